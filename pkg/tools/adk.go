package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/cpunion/reddit-consensus/pkg/config"
	"github.com/cpunion/reddit-consensus/pkg/filter"
	"github.com/cpunion/reddit-consensus/pkg/reddit"
	"github.com/cpunion/reddit-consensus/pkg/retry"
	"github.com/cpunion/reddit-consensus/pkg/types"
)

// RedditToolset exposes the research tools as ADK function tools for
// llmagent-driven sessions.
type RedditToolset struct {
	fetcher Fetcher
	cfg     config.Config
}

// NewRedditToolset creates an ADK toolset over a fetcher.
func NewRedditToolset(fetcher Fetcher, cfg config.Config) *RedditToolset {
	return &RedditToolset{fetcher: fetcher, cfg: cfg}
}

func (rt *RedditToolset) retryConfig() retry.Config {
	return retry.Config{MaxRetries: rt.cfg.MaxRetries, BaseDelay: rt.cfg.BaseDelay, MaxJitter: rt.cfg.MaxJitter}
}

// --- Search Posts Tool ---

// SearchPostsInput is the input for searching posts.
type SearchPostsInput struct {
	// Query is the search query string.
	Query string `json:"query"`
	// Subreddit restricts the search; empty or "all" searches site-wide.
	Subreddit string `json:"subreddit,omitempty"`
	// MaxResults caps the number of posts returned.
	MaxResults int `json:"max_results,omitempty"`
}

// SearchPostsOutput is the output of searching posts.
type SearchPostsOutput struct {
	Query   string       `json:"query"`
	Results []types.Post `json:"results"`
	Count   int          `json:"count"`
}

// SearchPostsTool creates the post search tool.
func (rt *RedditToolset) SearchPostsTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input SearchPostsInput) (SearchPostsOutput, error) {
		if input.Query == "" {
			return SearchPostsOutput{}, fmt.Errorf("query is required")
		}
		subreddit := input.Subreddit
		if subreddit == "" {
			subreddit = "all"
		}
		limit := input.MaxResults
		if limit <= 0 || limit > 25 {
			limit = config.DefaultSearchResults
		}

		posts, _, err := retry.Do(ctx, rt.retryConfig(), func(ctx context.Context) ([]types.Post, error) {
			return rt.fetcher.SearchPosts(ctx, input.Query, subreddit, limit)
		})
		if err != nil {
			return SearchPostsOutput{}, err
		}
		if posts == nil {
			posts = []types.Post{}
		}

		return SearchPostsOutput{
			Query:   input.Query,
			Results: posts,
			Count:   len(posts),
		}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "reddit_search_for_posts",
		Description: "Search for Reddit posts on a given topic. Returns a list of posts with their IDs.",
	}, handler)
}

// --- Get Post Comments Tool ---

// GetCommentsInput is the input for fetching a post's comments.
type GetCommentsInput struct {
	// PostID is the ID of the post to fetch comments from.
	PostID string `json:"post_id"`
	// MaxComments caps top-level comments.
	MaxComments int `json:"max_comments,omitempty"`
	// MaxDepth caps the comment tree depth.
	MaxDepth int `json:"max_depth,omitempty"`
}

// GetCommentsOutput is the output of fetching comments. CommentTree is
// a JSON document rather than a typed tree: comment nodes nest
// arbitrarily deep, which a flat schema cannot express.
type GetCommentsOutput struct {
	PostID        string `json:"post_id"`
	PostTitle     string `json:"post_title"`
	CommentTree   string `json:"comment_tree"`
	TotalComments int    `json:"total_comments"`
}

// GetCommentsTool creates the comment fetch tool. Fetched forests are
// pruned with the percentile filter before reaching the model.
func (rt *RedditToolset) GetCommentsTool() (tool.Tool, error) {
	handler := func(ctx tool.Context, input GetCommentsInput) (GetCommentsOutput, error) {
		if input.PostID == "" {
			return GetCommentsOutput{}, fmt.Errorf("post_id is required")
		}
		maxComments := input.MaxComments
		if maxComments <= 0 {
			maxComments = rt.cfg.MaxComments
		}
		maxDepth := input.MaxDepth
		if maxDepth <= 0 {
			maxDepth = rt.cfg.MaxDepth
		}

		thread, _, err := retry.Do(ctx, rt.retryConfig(), func(ctx context.Context) (*types.CommentThread, error) {
			return rt.fetcher.GetComments(ctx, input.PostID, reddit.GetCommentsOptions{
				MaxComments: maxComments,
				MaxDepth:    maxDepth,
			})
		})
		if err != nil {
			return GetCommentsOutput{}, err
		}

		pruned := filter.Filter(thread.Comments, filter.Config{
			Percentile:  rt.cfg.FilterPercentile,
			MaxDepth:    maxDepth,
			SortByScore: rt.cfg.SortComments,
		})
		if pruned == nil {
			pruned = []*types.Comment{}
		}
		tree, err := json.Marshal(pruned)
		if err != nil {
			return GetCommentsOutput{}, fmt.Errorf("serialize comment tree: %w", err)
		}

		return GetCommentsOutput{
			PostID:        thread.PostID,
			PostTitle:     thread.PostTitle,
			CommentTree:   string(tree),
			TotalComments: countComments(pruned),
		}, nil
	}

	return functiontool.New(functiontool.Config{
		Name:        "reddit_get_post_comments",
		Description: "Fetch the comment tree for a specific Reddit post using its ID, pruned to the highest-signal comments.",
	}, handler)
}

// AllTools returns all Reddit research tools.
func (rt *RedditToolset) AllTools() ([]tool.Tool, error) {
	searchTool, err := rt.SearchPostsTool()
	if err != nil {
		return nil, err
	}

	commentsTool, err := rt.GetCommentsTool()
	if err != nil {
		return nil, err
	}

	return []tool.Tool{
		searchTool,
		commentsTool,
	}, nil
}
