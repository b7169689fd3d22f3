package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cpunion/reddit-consensus/pkg/curator"
	"github.com/cpunion/reddit-consensus/pkg/llm"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", "./data/dataset.db", "SQLite dataset built by index_posts")
	outPath := flag.String("out", "./data/curated_questions.json", "Output JSON file")
	configPath := flag.String("config", "", "Optional YAML pipeline config")
	startIdx := flag.Int("start", 0, "Start index into the dataset")
	maxPosts := flag.Int("max", 0, "Max posts to process (0 = all)")
	maxConcurrent := flag.Int("concurrent", 5, "Max concurrent requests")
	maxRetries := flag.Int("retries", 3, "Max retries for rate limited requests")
	screenOnly := flag.Bool("screen-only", false, "Only run screening without question generation")
	noMasking := flag.Bool("no-masking", false, "Skip keyword extraction, allow direct questions")
	flag.Parse()

	cfg := curator.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = curator.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	cfg.MaxConcurrent = *maxConcurrent
	cfg.MaxRetries = *maxRetries

	ctx := context.Background()

	store, err := curator.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open dataset store: %v", err)
	}
	defer store.Close()

	posts, err := store.Posts(*startIdx, *maxPosts)
	if err != nil {
		log.Fatalf("Failed to load posts: %v", err)
	}
	fmt.Printf("Processing %d posts from index %d\n", len(posts), *startIdx)

	provider, err := llm.NewGeminiProvider(ctx, llm.GeminiConfig{})
	if err != nil {
		log.Fatalf("Failed to create Gemini provider: %v", err)
	}
	defer provider.Close()

	c := curator.New(provider, cfg)

	if *screenOnly {
		fmt.Printf("Starting screening with %d concurrent requests...\n", cfg.MaxConcurrent)
		screenings := c.ScreenAll(ctx, posts)

		accepted, rejected := 0, 0
		totalCost := 0.0
		totalRetries := 0
		type screenRecord struct {
			PostID   string  `json:"post_id"`
			Title    string  `json:"title"`
			Rejected bool    `json:"rejected"`
			Reason   string  `json:"reason"`
			Cost     float64 `json:"cost"`
		}
		records := make([]screenRecord, len(screenings))
		for i, s := range screenings {
			title := posts[i].Title
			if len(title) > 100 {
				title = title[:100]
			}
			records[i] = screenRecord{
				PostID:   posts[i].ID,
				Title:    title,
				Rejected: s.Reject,
				Reason:   s.Reason,
				Cost:     s.Metrics.Cost,
			}
			if s.Reject {
				rejected++
			} else {
				accepted++
			}
			totalCost += s.Metrics.Cost
			totalRetries += s.Metrics.Retries
		}

		fmt.Println("\nScreening complete:")
		fmt.Printf("  Accepted: %d\n", accepted)
		fmt.Printf("  Rejected: %d\n", rejected)
		fmt.Printf("  Total cost: $%.4f\n", totalCost)
		fmt.Printf("  Total retries: %d\n", totalRetries)

		writeJSON(*outPath, records)
		return
	}

	fmt.Printf("Starting processing with %d concurrent requests...\n", cfg.MaxConcurrent)
	results := c.CurateAll(ctx, posts, *noMasking)
	stats := curator.Summarize(results)

	fmt.Println("\nProcessing complete:")
	fmt.Printf("  Accepted: %d\n", stats.Accepted)
	fmt.Printf("  Rejected: %d\n", stats.Rejected)
	fmt.Printf("  Total cost: $%.4f\n", stats.TotalCost)
	fmt.Printf("  Total tokens: %d\n", stats.TotalTokens)
	fmt.Printf("  Total retries: %d\n", stats.TotalRetries)
	fmt.Printf("  Posts requiring retries: %d\n", stats.PostsWithRetries)
	if len(results) > 0 {
		fmt.Printf("  Avg cost per post: $%.4f\n", stats.TotalCost/float64(len(results)))
	}

	writeJSON(*outPath, results)
}

func writeJSON(path string, v any) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal results: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}
	fmt.Printf("Results saved to %s\n", path)
}
