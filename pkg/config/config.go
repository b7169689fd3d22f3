// Package config holds the explicit configuration passed down from the
// entry points. Components never read ambient configuration themselves;
// credentials are resolved here, once, at startup.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Defaults mirroring the tuning the agent was developed against.
const (
	DefaultMaxIterations    = 20
	DefaultMaxComments      = 5
	DefaultMaxDepth         = 3
	DefaultFilterPercentile = 80.0
	DefaultMaxRetries       = 3
	DefaultBaseDelay        = time.Second
	DefaultMaxJitter        = time.Second
	DefaultSearchResults    = 5
)

// Config configures a research session.
type Config struct {
	// MaxIterations bounds each research phase (initial and critique).
	MaxIterations int

	// MaxComments caps top-level comments fetched per post.
	MaxComments int

	// MaxDepth caps comment tree depth; deeper subtrees are truncated.
	MaxDepth int

	// FilterPercentile is the score percentile used as the comment
	// filter threshold.
	FilterPercentile float64

	// SortComments reorders siblings by score after filtering.
	SortComments bool

	// MaxRetries and BaseDelay drive the rate-limit backoff helper.
	MaxRetries int
	BaseDelay  time.Duration
	MaxJitter  time.Duration

	// Model is the chat-completion model name. Empty selects the
	// provider default.
	Model string
}

// Default returns the default research configuration.
func Default() Config {
	return Config{
		MaxIterations:    DefaultMaxIterations,
		MaxComments:      DefaultMaxComments,
		MaxDepth:         DefaultMaxDepth,
		FilterPercentile: DefaultFilterPercentile,
		MaxRetries:       DefaultMaxRetries,
		BaseDelay:        DefaultBaseDelay,
		MaxJitter:        DefaultMaxJitter,
	}
}

// RedditCredentials are the read-API credentials.
type RedditCredentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
}

// LoadRedditCredentials reads Reddit credentials from the environment.
// A missing variable is a fatal configuration error; the message names
// every missing variable so the operator can act on it.
func LoadRedditCredentials() (RedditCredentials, error) {
	creds := RedditCredentials{
		ClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		ClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		UserAgent:    os.Getenv("REDDIT_USER_AGENT"),
	}

	var missing []string
	if creds.ClientID == "" {
		missing = append(missing, "REDDIT_CLIENT_ID")
	}
	if creds.ClientSecret == "" {
		missing = append(missing, "REDDIT_CLIENT_SECRET")
	}
	if creds.UserAgent == "" {
		missing = append(missing, "REDDIT_USER_AGENT")
	}
	if len(missing) > 0 {
		return RedditCredentials{}, fmt.Errorf("reddit credentials not set: %s (get them from https://www.reddit.com/prefs/apps/)", strings.Join(missing, ", "))
	}

	return creds, nil
}
