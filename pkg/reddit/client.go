// Package reddit implements the Reddit read API: post search, comment
// forests, and subreddit discovery, over the OAuth client-credentials
// flow.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cpunion/reddit-consensus/pkg/config"
	"github.com/cpunion/reddit-consensus/pkg/types"
)

const (
	tokenURL = "https://www.reddit.com/api/v1/access_token"
	apiBase  = "https://oauth.reddit.com"
)

// APIError is a non-2xx response from the Reddit API. Rate-limit
// responses (429) classify as retryable; auth and not-found responses
// are fatal.
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

// Error implements error. The text embeds the status code and, for 429
// responses, a wait hint in the form the retry helper parses.
func (e *APIError) Error() string {
	if e.StatusCode == http.StatusTooManyRequests {
		if e.RetryAfter > 0 {
			return fmt.Sprintf("reddit: 429 rate limit exceeded, try again in %ds", int(e.RetryAfter.Seconds()))
		}
		return "reddit: 429 rate limit exceeded"
	}
	return fmt.Sprintf("reddit: %d %s", e.StatusCode, e.Message)
}

// Client is a Reddit read-API client. It is safe for concurrent use;
// the bearer token is fetched lazily and cached until expiry.
type Client struct {
	creds      config.RedditCredentials
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a Reddit client from credentials.
func NewClient(creds config.RedditCredentials) *Client {
	return &Client{
		creds:      creds,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// accessToken returns a valid bearer token, refreshing it when expired.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.creds.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("reddit: empty access token (check REDDIT_CLIENT_ID / REDDIT_CLIENT_SECRET)")
	}

	c.token = payload.AccessToken
	// Refresh a minute early.
	c.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

// get issues an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	u := apiBase + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.creds.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func apiError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
	}
	return apiErr
}

// SearchPosts searches for posts matching query. Subreddit "all"
// searches site-wide; anything else restricts the search to that
// subreddit.
func (c *Client) SearchPosts(ctx context.Context, query, subreddit string, limit int) ([]types.Post, error) {
	if subreddit == "" {
		subreddit = "all"
	}
	if limit <= 0 {
		limit = config.DefaultSearchResults
	}

	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
		"type":  {"link"},
	}
	if subreddit != "all" {
		params.Set("restrict_sr", "1")
	}

	body, err := c.get(ctx, "/r/"+url.PathEscape(subreddit)+"/search", params)
	if err != nil {
		return nil, err
	}
	return parsePostListing(body)
}

// GetCommentsOptions control a comment fetch.
type GetCommentsOptions struct {
	// MaxComments caps top-level comments; zero means the default.
	MaxComments int
	// MaxDepth caps the requested tree depth; zero means the default.
	MaxDepth int
	// Sort is the Reddit comment sort order; empty means "top".
	Sort string
}

// GetComments fetches the nested comment forest for a post.
func (c *Client) GetComments(ctx context.Context, postID string, opts GetCommentsOptions) (*types.CommentThread, error) {
	if opts.MaxComments <= 0 {
		opts.MaxComments = config.DefaultMaxComments
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = config.DefaultMaxDepth
	}
	if opts.Sort == "" {
		opts.Sort = "top"
	}

	params := url.Values{
		"limit": {strconv.Itoa(opts.MaxComments)},
		"depth": {strconv.Itoa(opts.MaxDepth)},
		"sort":  {opts.Sort},
	}

	body, err := c.get(ctx, "/comments/"+url.PathEscape(postID), params)
	if err != nil {
		return nil, err
	}
	return parseCommentListing(body, postID, opts)
}

// SearchSubreddits searches subreddits by name or topic.
func (c *Client) SearchSubreddits(ctx context.Context, query string, limit int) ([]types.Subreddit, error) {
	if limit <= 0 {
		limit = 25
	}
	params := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
	}
	body, err := c.get(ctx, "/subreddits/search", params)
	if err != nil {
		return nil, err
	}
	return parseSubredditListing(body)
}
