package curator

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// BuildStats counts how many records survived each filter step.
type BuildStats struct {
	PostsRead    int `json:"posts_read"`
	PostsKept    int `json:"posts_kept"`
	CommentsRead int `json:"comments_read"`
	CommentsKept int `json:"comments_kept"`
	PostsDropped int `json:"posts_dropped"`
	PostsFinal   int `json:"posts_final"`
}

// Builder ingests Reddit archive dumps into a filtered dataset store.
type Builder struct {
	cfg   DatasetConfig
	store *Store

	goldSubs map[string]bool
	// subreddit -> lowercased titles already seen, for deduplication
	seenTitles map[string]map[string]bool
	perSub     map[string]int
}

// NewBuilder creates a builder writing into the given store.
func NewBuilder(cfg DatasetConfig, store *Store) *Builder {
	gold := make(map[string]bool, len(cfg.GoldSubreddits))
	for _, sub := range cfg.GoldSubreddits {
		gold[sub] = true
	}
	return &Builder{
		cfg:        cfg,
		store:      store,
		goldSubs:   gold,
		seenTitles: make(map[string]map[string]bool),
		perSub:     make(map[string]int),
	}
}

// dumpPost is the RS_* archive line shape.
type dumpPost struct {
	ID          string `json:"id"`
	Subreddit   string `json:"subreddit"`
	Title       string `json:"title"`
	Selftext    string `json:"selftext"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	CreatedUTC  int64  `json:"created_utc"`
}

// dumpComment is the RC_* archive line shape. LinkID carries a t3_
// prefix pointing at the parent post.
type dumpComment struct {
	ID         string `json:"id"`
	LinkID     string `json:"link_id"`
	Body       string `json:"body"`
	Score      int    `json:"score"`
	CreatedUTC int64  `json:"created_utc"`
}

// IndexPosts reads a JSONL post dump, keeping posts that pass the
// subreddit, score, comment-count, text, per-subreddit cap, and
// duplicate-title filters.
func (b *Builder) IndexPosts(r io.Reader, stats *BuildStats) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.PostsRead++

		var p dumpPost
		if err := json.Unmarshal(line, &p); err != nil {
			return fmt.Errorf("decode post line %d: %w", stats.PostsRead, err)
		}
		if !b.acceptPost(p) {
			continue
		}

		if err := b.store.InsertPost(Post{
			ID:          p.ID,
			Subreddit:   p.Subreddit,
			Title:       p.Title,
			Selftext:    p.Selftext,
			Score:       p.Score,
			NumComments: p.NumComments,
			CreatedUTC:  p.CreatedUTC,
		}); err != nil {
			return err
		}
		b.perSub[p.Subreddit]++
		stats.PostsKept++
	}
	return scanner.Err()
}

func (b *Builder) acceptPost(p dumpPost) bool {
	if !b.goldSubs[p.Subreddit] {
		return false
	}
	if p.Score < b.cfg.MinPostScore || p.NumComments < b.cfg.MinNumComments {
		return false
	}
	if p.Title == "" || p.Selftext == "" {
		return false
	}
	if b.cfg.MaxPostsPerSub > 0 && b.perSub[p.Subreddit] >= b.cfg.MaxPostsPerSub {
		return false
	}

	titleKey := strings.ToLower(p.Title)
	seen := b.seenTitles[p.Subreddit]
	if seen == nil {
		seen = make(map[string]bool)
		b.seenTitles[p.Subreddit] = seen
	}
	if seen[titleKey] {
		return false
	}
	seen[titleKey] = true
	return true
}

// IndexComments reads a JSONL comment dump, keeping comments that
// belong to stored posts, carry real text, and meet the score floor.
func (b *Builder) IndexComments(r io.Reader, stats *BuildStats) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.CommentsRead++

		var c dumpComment
		if err := json.Unmarshal(line, &c); err != nil {
			return fmt.Errorf("decode comment line %d: %w", stats.CommentsRead, err)
		}
		if !acceptComment(c, b.cfg.MinCommentScore) {
			continue
		}

		postID := strings.TrimPrefix(c.LinkID, "t3_")
		ok, err := b.store.HasPost(postID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		if err := b.store.InsertComment(postID, PostComment{
			ID:         c.ID,
			Body:       c.Body,
			Score:      c.Score,
			CreatedUTC: c.CreatedUTC,
		}); err != nil {
			return err
		}
		stats.CommentsKept++
	}
	return scanner.Err()
}

func acceptComment(c dumpComment, minScore int) bool {
	if c.Body == "" || c.Body == "[deleted]" || c.Body == "[removed]" {
		return false
	}
	return c.Score >= minScore
}

// Finalize trims each post to its top-scoring comments and drops posts
// whose combined text exceeds the token estimate cap.
func (b *Builder) Finalize(stats *BuildStats) error {
	posts, err := b.store.Posts(0, 0)
	if err != nil {
		return err
	}

	for _, p := range posts {
		if b.cfg.TopNComments > 0 {
			if err := b.store.trimComments(p.ID, b.cfg.TopNComments); err != nil {
				return err
			}
			if len(p.Comments) > b.cfg.TopNComments {
				p.Comments = p.Comments[:b.cfg.TopNComments]
			}
		}

		if b.cfg.MaxTokens > 0 && postTokens(p) > b.cfg.MaxTokens {
			if err := b.store.DeletePost(p.ID); err != nil {
				return err
			}
			stats.PostsDropped++
		}
	}

	final, err := b.store.CountPosts()
	if err != nil {
		return err
	}
	stats.PostsFinal = final
	return nil
}

func postTokens(p Post) int {
	total := estimateTokens(p.Title) + estimateTokens(p.Selftext)
	for _, c := range p.Comments {
		total += estimateTokens(c.Body)
	}
	return total
}
