package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cpunion/reddit-consensus/pkg/agent"
	"github.com/cpunion/reddit-consensus/pkg/config"
	"github.com/cpunion/reddit-consensus/pkg/llm"
	"github.com/cpunion/reddit-consensus/pkg/reddit"
	"github.com/cpunion/reddit-consensus/pkg/tools"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	_ = godotenv.Load()

	// Flags
	maxIterations := flag.Int("iterations", config.DefaultMaxIterations, "Max reasoning iterations per phase")
	maxComments := flag.Int("comments", config.DefaultMaxComments, "Max top-level comments per post")
	maxDepth := flag.Int("depth", config.DefaultMaxDepth, "Max comment tree depth")
	percentile := flag.Float64("percentile", config.DefaultFilterPercentile, "Comment score percentile filter")
	sortComments := flag.Bool("sort", false, "Sort sibling comments by score")
	logPath := flag.String("log", "", "Optional JSONL research trace path")
	flag.Parse()

	fmt.Println("=== Reddit Consensus Agent ===")

	if os.Getenv("GOOGLE_API_KEY") == "" {
		fmt.Println("GOOGLE_API_KEY missing")
		fmt.Println()
		fmt.Println("Please set the following environment variable:")
		fmt.Println("export GOOGLE_API_KEY='your-api-key'  # Get from https://aistudio.google.com/apikey")
		os.Exit(1)
	}

	creds, err := config.LoadRedditCredentials()
	if err != nil {
		fmt.Printf("Reddit API credentials missing: %v\n", err)
		fmt.Println()
		fmt.Println("Please set the following environment variables:")
		fmt.Println("export REDDIT_CLIENT_ID='your-reddit-client-id'  # Get from https://www.reddit.com/prefs/apps/")
		fmt.Println("export REDDIT_CLIENT_SECRET='your-reddit-client-secret'")
		fmt.Println("export REDDIT_USER_AGENT='YourApp/1.0 (by /u/yourusername)'")
		os.Exit(1)
	}

	cfg := config.Default()
	cfg.MaxIterations = *maxIterations
	cfg.MaxComments = *maxComments
	cfg.MaxDepth = *maxDepth
	cfg.FilterPercentile = *percentile
	cfg.SortComments = *sortComments

	ctx := context.Background()

	provider, err := llm.NewGeminiProvider(ctx, llm.GeminiConfig{})
	if err != nil {
		log.Fatalf("Failed to create Gemini provider: %v", err)
	}
	defer provider.Close()

	var logger *agent.ResearchLogger
	if *logPath != "" {
		logger, err = agent.NewResearchLogger(*logPath)
		if err != nil {
			log.Fatalf("Failed to create trace logger: %v", err)
		}
		defer logger.Close()
	}

	client := reddit.NewClient(creds)
	toolset := tools.NewToolset(client, cfg)

	fmt.Printf("Model: %s\n", provider.Model())
	fmt.Println("Ready to analyze Reddit discussions!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Println("What would you like to ask the Reddit hive mind?")
		fmt.Println("Examples: 'best coffee shops in tokyo', 'budget laptops under $800', 'reliable used cars'")
		fmt.Print("\nYour query: ")

		line, err := reader.ReadString('\n')
		if err != nil {
			break
		}
		query := strings.TrimSpace(line)
		if query == "" {
			fmt.Println("Please enter a query to get insights.")
			continue
		}

		r := agent.NewRecommender(provider, toolset, cfg, logger)
		result, err := r.ProcessQuery(ctx, query)
		if err != nil {
			fmt.Printf("Failed to process query: %v\n", err)
		} else {
			printRecommendations(r)
			fmt.Printf("\nFound %d insights | %d reasoning steps\n",
				len(result.Recommendations), result.Steps)
		}

		if !askContinue(reader) {
			break
		}
	}

	fmt.Println("\nThanks for using Reddit Consensus Agent!")
}

func printRecommendations(r *agent.Recommender) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println(" RECOMMENDATIONS")
	fmt.Println(strings.Repeat("=", 50))

	for i, rec := range r.State.FinalRecommendations {
		fmt.Printf("\n%d. %s\n", i+1, rec.Name)
		fmt.Printf("   %s\n", rec.Description)
		if rec.Pros != "" {
			fmt.Printf("   Pros: %s\n", rec.Pros)
		}
		if rec.Cons != "" {
			fmt.Printf("   Cons: %s\n", rec.Cons)
		}
		if rec.Reasoning != "" {
			fmt.Printf("   %s\n", rec.Reasoning)
		}
		if len(rec.RedditSources) > 0 {
			fmt.Printf("   Sources: %s\n", strings.Join(rec.RedditSources, ", "))
		}
	}
}

func askContinue(reader *bufio.Reader) bool {
	for {
		fmt.Print("\nAsk another query? [y/n] ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes", "":
			return true
		case "n", "no":
			return false
		default:
			fmt.Println("Please enter 'y' for yes or 'n' for no.")
		}
	}
}
