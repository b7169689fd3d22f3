// Package curator mines archived Reddit discussions into evaluation
// questions: a filtered dataset build, then screening, keyword
// extraction, and question generation passes over each post.
package curator

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can write delays as
// "250ms" or "1s". Bare numbers are taken as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var secs float64
	if err := value.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("parse duration: unsupported value %q", value.Value)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// ModelPricing is the cost per one million tokens.
type ModelPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// DatasetConfig holds the dataset build thresholds.
type DatasetConfig struct {
	MinPostScore    int      `yaml:"min_post_score"`
	MinNumComments  int      `yaml:"min_num_comments"`
	MinCommentScore int      `yaml:"min_comment_score"`
	TopNComments    int      `yaml:"top_n_comments"`
	MaxTokens       int      `yaml:"max_tokens"`
	MaxPostsPerSub  int      `yaml:"max_posts_per_sub"`
	GoldSubreddits  []string `yaml:"gold_subreddits"`
}

// Config configures the curation pipeline.
type Config struct {
	CheapModel    string                  `yaml:"cheap_model"`
	QualityModel  string                  `yaml:"quality_model"`
	Pricing       map[string]ModelPricing `yaml:"pricing"`
	MaxConcurrent int                     `yaml:"max_concurrent"`
	MaxRetries    int                     `yaml:"max_retries"`
	BaseDelay     Duration                `yaml:"base_delay"`
	Dataset       DatasetConfig           `yaml:"dataset"`
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		CheapModel:   "gemini-3-flash",
		QualityModel: "gemini-3-pro",
		Pricing: map[string]ModelPricing{
			"gemini-3-flash": {Input: 0.15, Output: 0.60},
			"gemini-3-pro":   {Input: 1.10, Output: 4.40},
		},
		MaxConcurrent: 5,
		MaxRetries:    3,
		BaseDelay:     Duration(time.Second),
		Dataset: DatasetConfig{
			MinPostScore:    500,
			MinNumComments:  30,
			MinCommentScore: 5,
			TopNComments:    10,
			MaxTokens:       10000,
			MaxPostsPerSub:  600,
			GoldSubreddits: []string{
				"AskReddit", "askscience", "AskHistorians", "AskEngineers",
				"science", "biology", "movies", "books", "technology",
				"gardening", "comics", "worldnews", "television",
			},
		},
	}
}

// LoadConfig reads a YAML config file, filling unset fields from the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// estimateTokens is a cheap length-based token estimate.
func estimateTokens(text string) int {
	return len(text) / 3
}
