package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/cpunion/reddit-consensus/pkg/config"
	"github.com/cpunion/reddit-consensus/pkg/reddit"
	"github.com/cpunion/reddit-consensus/pkg/types"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	minSubs := flag.Int("min-subs", 1000, "Minimum subscriber count")
	limit := flag.Int("limit", 100, "Maximum number of results per search")
	outPath := flag.String("out", "", "Optional text file for subreddit names")
	flag.Parse()

	creds, err := config.LoadRedditCredentials()
	if err != nil {
		log.Fatalf("Reddit credentials: %v", err)
	}

	ctx := context.Background()
	client := reddit.NewClient(creds)

	fmt.Println("Searching for Ask subreddits...")

	seen := make(map[string]bool)
	var subs []types.Subreddit
	for _, query := range []string{"ask", "askscience", "askengineers"} {
		found, err := client.SearchSubreddits(ctx, query, *limit)
		if err != nil {
			log.Printf("Warning: search %q failed: %v", query, err)
			continue
		}
		for _, sr := range found {
			if !strings.HasPrefix(strings.ToLower(sr.Name), "ask") {
				continue
			}
			if sr.Subscribers < *minSubs {
				continue
			}
			if seen[sr.Name] {
				continue
			}
			seen[sr.Name] = true
			subs = append(subs, sr)
		}
	}

	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Subscribers > subs[j].Subscribers
	})

	printTable(subs)

	if *outPath != "" {
		if err := saveNames(subs, *outPath); err != nil {
			log.Fatalf("Failed to save names: %v", err)
		}
		fmt.Printf("Saved %d subreddit names to %s\n", len(subs), *outPath)
	}
}

func printTable(subs []types.Subreddit) {
	if len(subs) == 0 {
		fmt.Println("No subreddits matched the criteria.")
		return
	}
	fmt.Printf("\n%-25s %8s %4s  %s\n", "Name", "Subs", "18+", "Title")
	fmt.Println(strings.Repeat("-", 80))
	for _, sr := range subs {
		title := sr.Title
		if len(title) > 60 {
			title = title[:60] + "..."
		}
		over := "N"
		if sr.Over18 {
			over = "Y"
		}
		fmt.Printf("%-25s %8d %4s  %s\n", sr.Name, sr.Subscribers, over, title)
	}
}

func saveNames(subs []types.Subreddit, path string) error {
	var sb strings.Builder
	for _, sr := range subs {
		sb.WriteString(sr.Name)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}
