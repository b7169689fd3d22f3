// Package tools provides the research tools the agent can invoke:
// Reddit post search and filtered comment fetching. Outbound calls are
// guarded by the rate-limit retry helper; results are normalized to
// JSON payloads the reasoning loop folds into its context.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cpunion/reddit-consensus/pkg/config"
	"github.com/cpunion/reddit-consensus/pkg/filter"
	"github.com/cpunion/reddit-consensus/pkg/reddit"
	"github.com/cpunion/reddit-consensus/pkg/retry"
	"github.com/cpunion/reddit-consensus/pkg/types"
)

// Fetcher is the Reddit read capability the tools depend on.
// *reddit.Client satisfies it.
type Fetcher interface {
	SearchPosts(ctx context.Context, query, subreddit string, limit int) ([]types.Post, error)
	GetComments(ctx context.Context, postID string, opts reddit.GetCommentsOptions) (*types.CommentThread, error)
}

// Tool is one named capability the reasoning loop may invoke.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, params map[string]any) (string, error)
}

// Toolset is the ordered collection of tools offered to the LLM. The
// zero value is an empty toolset ready for Add.
type Toolset struct {
	order  []string
	byName map[string]Tool
}

// NewToolset builds the standard toolset over a fetcher.
func NewToolset(fetcher Fetcher, cfg config.Config) *Toolset {
	ts := &Toolset{byName: make(map[string]Tool)}
	ts.Add(&SearchPostsTool{fetcher: fetcher, cfg: cfg})
	ts.Add(&GetCommentsTool{fetcher: fetcher, cfg: cfg})
	return ts
}

// Add registers a tool.
func (ts *Toolset) Add(t Tool) {
	if ts.byName == nil {
		ts.byName = make(map[string]Tool)
	}
	if _, ok := ts.byName[t.Name()]; !ok {
		ts.order = append(ts.order, t.Name())
	}
	ts.byName[t.Name()] = t
}

// Get returns a tool by name.
func (ts *Toolset) Get(name string) (Tool, bool) {
	t, ok := ts.byName[name]
	return t, ok
}

// Describe lists every tool as "- name: description" lines for the
// reasoning prompt.
func (ts *Toolset) Describe() string {
	out := ""
	for _, name := range ts.order {
		if out != "" {
			out += "\n"
		}
		out += fmt.Sprintf("- %s: %s", name, ts.byName[name].Description())
	}
	return out
}

// SearchPostsTool searches Reddit for posts on a topic.
type SearchPostsTool struct {
	fetcher Fetcher
	cfg     config.Config
}

// Name returns the tool's name.
func (t *SearchPostsTool) Name() string { return "reddit_search_for_posts" }

// Description returns the tool's description.
func (t *SearchPostsTool) Description() string {
	return "Search for Reddit posts on a given topic. Returns a list of posts with their IDs."
}

// searchResult is the normalized search payload.
type searchResult struct {
	Query   string       `json:"query"`
	Status  string       `json:"status"`
	Results []types.Post `json:"results"`
	Count   int          `json:"count"`
}

// Execute runs the search. Rate-limit failures are retried per the
// session configuration; other failures propagate.
func (t *SearchPostsTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query := stringParam(params, "query", "")
	if query == "" {
		return "", fmt.Errorf("reddit_search_for_posts: missing required param %q", "query")
	}
	subreddit := stringParam(params, "subreddit", "all")
	maxResults := intParam(params, "max_results", config.DefaultSearchResults)

	posts, _, err := retry.Do(ctx, t.retryConfig(), func(ctx context.Context) ([]types.Post, error) {
		return t.fetcher.SearchPosts(ctx, query, subreddit, maxResults)
	})
	if err != nil {
		return "", err
	}

	if posts == nil {
		posts = []types.Post{}
	}
	return marshalPayload(searchResult{
		Query:   query,
		Status:  "success",
		Results: posts,
		Count:   len(posts),
	})
}

func (t *SearchPostsTool) retryConfig() retry.Config {
	return retry.Config{MaxRetries: t.cfg.MaxRetries, BaseDelay: t.cfg.BaseDelay, MaxJitter: t.cfg.MaxJitter}
}

// GetCommentsTool fetches a post's comment forest and prunes it with
// the percentile filter before handing it to the LLM.
type GetCommentsTool struct {
	fetcher Fetcher
	cfg     config.Config
}

// Name returns the tool's name.
func (t *GetCommentsTool) Name() string { return "reddit_get_post_comments" }

// Description returns the tool's description.
func (t *GetCommentsTool) Description() string {
	return "Fetch the comment tree for a specific Reddit post using its ID, pruned to the highest-signal comments."
}

// commentsResult is the normalized comments payload.
type commentsResult struct {
	PostID         string           `json:"post_id"`
	PostTitle      string           `json:"post_title"`
	PostAuthor     string           `json:"post_author"`
	PostCreatedUTC int64            `json:"post_created_utc"`
	Status         string           `json:"status"`
	CommentTree    []*types.Comment `json:"comment_tree"`
	TotalComments  int              `json:"total_comments"`
	MaxDepth       int              `json:"max_depth"`
}

// Execute fetches and filters the comments for a post.
func (t *GetCommentsTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	postID := stringParam(params, "post_id", "")
	if postID == "" {
		return "", fmt.Errorf("reddit_get_post_comments: missing required param %q", "post_id")
	}
	maxComments := intParam(params, "max_comments", t.cfg.MaxComments)
	maxDepth := intParam(params, "max_depth", t.cfg.MaxDepth)

	thread, _, err := retry.Do(ctx, retry.Config{MaxRetries: t.cfg.MaxRetries, BaseDelay: t.cfg.BaseDelay, MaxJitter: t.cfg.MaxJitter},
		func(ctx context.Context) (*types.CommentThread, error) {
			return t.fetcher.GetComments(ctx, postID, reddit.GetCommentsOptions{
				MaxComments: maxComments,
				MaxDepth:    maxDepth,
			})
		})
	if err != nil {
		return "", err
	}

	pruned := filter.Filter(thread.Comments, filter.Config{
		Percentile:  t.cfg.FilterPercentile,
		MaxDepth:    maxDepth,
		SortByScore: t.cfg.SortComments,
	})
	if pruned == nil {
		pruned = []*types.Comment{}
	}

	return marshalPayload(commentsResult{
		PostID:         thread.PostID,
		PostTitle:      thread.PostTitle,
		PostAuthor:     thread.PostAuthor,
		PostCreatedUTC: thread.PostCreatedUTC,
		Status:         "success",
		CommentTree:    pruned,
		TotalComments:  countComments(pruned),
		MaxDepth:       maxDepth,
	})
}

func countComments(forest []*types.Comment) int {
	n := 0
	for _, c := range forest {
		n += 1 + countComments(c.Replies)
	}
	return n
}

func marshalPayload(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(data), nil
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// intParam reads an integer param. JSON numbers decode as float64.
func intParam(params map[string]any, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return fallback
	}
}
