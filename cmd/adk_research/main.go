package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cpunion/reddit-consensus/pkg/config"
	"github.com/cpunion/reddit-consensus/pkg/reddit"
	"github.com/cpunion/reddit-consensus/pkg/tools"
	"github.com/joho/godotenv"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const appName = "reddit-consensus"

func main() {
	_ = godotenv.Load()

	modelDefault := envOr("GOOGLE_MODEL", "gemini-3-pro")

	modelName := flag.String("model", modelDefault, "Gemini model")
	maxComments := flag.Int("comments", config.DefaultMaxComments, "Max top-level comments per post")
	maxDepth := flag.Int("depth", config.DefaultMaxDepth, "Max comment tree depth")
	percentile := flag.Float64("percentile", config.DefaultFilterPercentile, "Comment score percentile filter")
	flag.Parse()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if query == "" {
		fmt.Println("Usage: adk_research [flags] <query>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()

	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		log.Fatal("GOOGLE_API_KEY not set")
	}

	creds, err := config.LoadRedditCredentials()
	if err != nil {
		log.Fatalf("Reddit credentials: %v", err)
	}

	cfg := config.Default()
	cfg.MaxComments = *maxComments
	cfg.MaxDepth = *maxDepth
	cfg.FilterPercentile = *percentile

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	llmModel, err := gemini.NewModel(ctx, *modelName, clientCfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini model (%s): %v", *modelName, err)
	}

	redditClient := reddit.NewClient(creds)
	toolset := tools.NewRedditToolset(redditClient, cfg)
	redditTools, err := toolset.AllTools()
	if err != nil {
		log.Fatalf("Failed to create Reddit tools: %v", err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "reddit-researcher",
		Model:       llmModel,
		Description: "Researches Reddit discussions to find community consensus",
		Instruction: buildInstruction(),
		Tools:       redditTools,
	})
	if err != nil {
		log.Fatalf("Failed to create ADK agent: %v", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		log.Fatalf("Failed to create runner: %v", err)
	}

	sess, err := sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    "researcher",
		SessionID: "research-session",
	})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	fmt.Println("=== Reddit ADK Research ===")
	fmt.Printf("Model: %s\n", *modelName)
	fmt.Printf("Query: %s\n\n", query)

	msg := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: query},
		},
	}

	for event, err := range r.Run(ctx, "researcher", sess.Session.ID(), msg, agent.RunConfig{}) {
		if err != nil {
			log.Printf("Agent error: %v", err)
			continue
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part.Text != "" {
				fmt.Print(part.Text)
			}
			if part.FunctionCall != nil {
				fmt.Printf("\n[tool] %s\n", part.FunctionCall.Name)
			}
		}
	}
	fmt.Println()
}

func buildInstruction() string {
	return `You are a Reddit consensus researcher. Given a user query, search Reddit for relevant discussions, read the comments on promising posts, and report what the community actually recommends.

Guidelines:
- Search for posts where people discuss, recommend, or ask about similar items or experiences
- Fetch comments from high-engagement posts and weigh upvoted comments heavily
- Look for repeated mentions across threads as a signal of consensus
- Note criticism and downsides, not only praise
- Cite the post titles you drew each conclusion from`
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
