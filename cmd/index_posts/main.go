package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cpunion/reddit-consensus/pkg/curator"
)

func main() {
	postsPath := flag.String("posts", "", "JSONL post dump (RS_*)")
	commentsPath := flag.String("comments", "", "JSONL comment dump (RC_*)")
	dbPath := flag.String("db", "./data/dataset.db", "Output SQLite dataset")
	configPath := flag.String("config", "", "Optional YAML pipeline config")
	flag.Parse()

	if *postsPath == "" {
		fmt.Println("Usage: index_posts -posts RS_dump.jsonl [-comments RC_dump.jsonl] [-db dataset.db]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := curator.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = curator.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	store, err := curator.OpenStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open dataset store: %v", err)
	}
	defer store.Close()

	builder := curator.NewBuilder(cfg.Dataset, store)
	var stats curator.BuildStats

	fmt.Printf("Indexing posts from %s...\n", *postsPath)
	postsFile, err := os.Open(*postsPath)
	if err != nil {
		log.Fatalf("Failed to open posts dump: %v", err)
	}
	if err := builder.IndexPosts(postsFile, &stats); err != nil {
		log.Fatalf("Failed to index posts: %v", err)
	}
	postsFile.Close()
	fmt.Printf("  Posts read: %d\n", stats.PostsRead)
	fmt.Printf("  Posts kept: %d\n", stats.PostsKept)

	if *commentsPath != "" {
		fmt.Printf("Indexing comments from %s...\n", *commentsPath)
		commentsFile, err := os.Open(*commentsPath)
		if err != nil {
			log.Fatalf("Failed to open comments dump: %v", err)
		}
		if err := builder.IndexComments(commentsFile, &stats); err != nil {
			log.Fatalf("Failed to index comments: %v", err)
		}
		commentsFile.Close()
		fmt.Printf("  Comments read: %d\n", stats.CommentsRead)
		fmt.Printf("  Comments kept: %d\n", stats.CommentsKept)
	}

	fmt.Println("Finalizing dataset...")
	if err := builder.Finalize(&stats); err != nil {
		log.Fatalf("Failed to finalize dataset: %v", err)
	}
	fmt.Printf("  Posts dropped (token cap): %d\n", stats.PostsDropped)
	fmt.Printf("  Final posts: %d\n", stats.PostsFinal)
	fmt.Printf("Dataset saved to %s\n", *dbPath)
}
