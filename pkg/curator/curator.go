package curator

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cpunion/reddit-consensus/pkg/llm"
	"github.com/cpunion/reddit-consensus/pkg/retry"
)

// Generator produces model completions with token accounting.
// *llm.GeminiProvider satisfies it.
type Generator interface {
	GenerateModel(ctx context.Context, model, prompt string, maxTokens int) (string, llm.Usage, error)
}

// PassMetrics accounts for one LLM pass over a post.
type PassMetrics struct {
	Cost         float64 `json:"cost"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Retries      int     `json:"retries"`
}

func (m PassMetrics) add(other PassMetrics) PassMetrics {
	return PassMetrics{
		Cost:         m.Cost + other.Cost,
		InputTokens:  m.InputTokens + other.InputTokens,
		OutputTokens: m.OutputTokens + other.OutputTokens,
		Retries:      m.Retries + other.Retries,
	}
}

// Metrics summarizes all passes over one post.
type Metrics struct {
	TotalCost    float64 `json:"total_cost"`
	TotalTokens  int     `json:"total_tokens"`
	TotalRetries int     `json:"total_retries"`
	PassesUsed   int     `json:"passes_used"`
}

// Screening is the accept/reject decision for one post.
type Screening struct {
	Reject  bool
	Reason  string
	Metrics PassMetrics
}

// QuestionOutput is the parsed question-generation pass result.
type QuestionOutput struct {
	Questions         []string
	KeyCommentNumbers []int
	KeyCommentIDs     []string
	Metrics           PassMetrics
}

// CuratedQuestion is the final record for one post.
type CuratedQuestion struct {
	SourcePostID      string   `json:"source_post_id"`
	Subreddit         string   `json:"subreddit"`
	OriginalTitle     string   `json:"original_title"`
	OriginalBody      string   `json:"original_body"`
	Accepted          bool     `json:"accepted"`
	RejectionReason   string   `json:"rejection_reason,omitempty"`
	Questions         []string `json:"questions,omitempty"`
	ForbiddenKeywords []string `json:"forbidden_keywords,omitempty"`
	KeyCommentIDs     []string `json:"key_comment_ids,omitempty"`
	MaskingMode       bool     `json:"masking_mode"`
	Metrics           Metrics  `json:"metrics"`
}

// Curator runs the screening and question-generation passes.
type Curator struct {
	gen Generator
	cfg Config
	sem chan struct{}
}

// New creates a curator over the given generator.
func New(gen Generator, cfg Config) *Curator {
	concurrent := cfg.MaxConcurrent
	if concurrent <= 0 {
		concurrent = 1
	}
	return &Curator{
		gen: gen,
		cfg: cfg,
		sem: make(chan struct{}, concurrent),
	}
}

// generation is one rate-limit guarded model call with cost accounting.
func (c *Curator) generation(ctx context.Context, model, prompt string, maxTokens int) (string, PassMetrics, error) {
	type completion struct {
		text  string
		usage llm.Usage
	}

	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	retryCfg := retry.Config{
		MaxRetries: c.cfg.MaxRetries,
		BaseDelay:  time.Duration(c.cfg.BaseDelay),
		MaxJitter:  retry.DefaultConfig().MaxJitter,
	}
	result, retries, err := retry.Do(ctx, retryCfg, func(ctx context.Context) (completion, error) {
		text, usage, err := c.gen.GenerateModel(ctx, model, prompt, maxTokens)
		return completion{text: text, usage: usage}, err
	})
	if err != nil {
		return "", PassMetrics{Retries: retries}, err
	}

	pricing := c.cfg.Pricing[model]
	metrics := PassMetrics{
		Cost: float64(result.usage.InputTokens)*pricing.Input/1e6 +
			float64(result.usage.OutputTokens)*pricing.Output/1e6,
		InputTokens:  result.usage.InputTokens,
		OutputTokens: result.usage.OutputTokens,
		Retries:      retries,
	}
	return strings.TrimSpace(result.text), metrics, nil
}

// ScreenPost decides whether a post is usable for evaluation. Failed
// calls reject the post rather than aborting the batch.
func (c *Curator) ScreenPost(ctx context.Context, post Post) Screening {
	content := formatContent(post)
	text, metrics, err := c.generation(ctx, c.cfg.QualityModel, buildScreeningPrompt(content), 150)
	if err != nil {
		log.Printf("screening failed for %s: %v", post.ID, err)
		return Screening{
			Reject:  true,
			Reason:  fmt.Sprintf("Screening failed: %v", err),
			Metrics: metrics,
		}
	}

	reject, reason := parseScreening(text)
	return Screening{Reject: reject, Reason: reason, Metrics: metrics}
}

// parseScreening extracts the DECISION and REASON lines. A response
// without a parseable decision rejects the post.
func parseScreening(text string) (reject bool, reason string) {
	reject = true
	reason = "Unknown"
	for _, line := range strings.Split(text, "\n") {
		if rest, ok := strings.CutPrefix(line, "DECISION:"); ok {
			reject = strings.EqualFold(strings.TrimSpace(rest), "REJECT")
		} else if rest, ok := strings.CutPrefix(line, "REASON:"); ok {
			reason = strings.TrimSpace(rest)
		}
	}
	return reject, reason
}

// ExtractKeywords pulls the vocabulary that masked questions must avoid.
func (c *Curator) ExtractKeywords(ctx context.Context, post Post) ([]string, PassMetrics) {
	content := formatContent(post)
	text, metrics, err := c.generation(ctx, c.cfg.CheapModel, buildKeywordPrompt(content), 200)
	if err != nil {
		log.Printf("keyword extraction failed for %s: %v", post.ID, err)
		return nil, metrics
	}

	var keywords []string
	for _, k := range strings.Split(text, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords, metrics
}

// GenerateQuestions produces evaluation questions from a post. With
// forbidden terms it generates masked questions, otherwise direct ones.
func (c *Curator) GenerateQuestions(ctx context.Context, post Post, forbidden []string, masked bool) QuestionOutput {
	content := formatContent(post)
	var prompt string
	if masked {
		prompt = buildMaskedQuestionPrompt(content, forbidden)
	} else {
		prompt = buildDirectQuestionPrompt(content)
	}

	text, metrics, err := c.generation(ctx, c.cfg.QualityModel, prompt, 400)
	if err != nil {
		log.Printf("question generation failed for %s: %v", post.ID, err)
		return QuestionOutput{Metrics: metrics}
	}

	questionsText, nums := parseQuestionResponse(text)
	return QuestionOutput{
		Questions:         splitQuestions(questionsText),
		KeyCommentNumbers: nums,
		KeyCommentIDs:     mapCommentIDs(post, nums),
		Metrics:           metrics,
	}
}

// parseQuestionResponse splits the QUESTIONS and KEY_COMMENTS sections.
// Responses without the expected markers are treated as bare questions.
func parseQuestionResponse(text string) (questions string, nums []int) {
	if !strings.Contains(text, "QUESTIONS:") || !strings.Contains(text, "KEY_COMMENTS:") {
		return text, nil
	}

	parts := strings.SplitN(text, "KEY_COMMENTS:", 2)
	questions = strings.TrimSpace(strings.Replace(parts[0], "QUESTIONS:", "", 1))

	for _, field := range strings.Split(parts[1], ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(field)); err == nil {
			nums = append(nums, n)
		}
	}
	return questions, nums
}

var questionNumberRe = regexp.MustCompile(`\d+\.\s+`)

// splitQuestions breaks numbered question text into individual
// questions, each normalized to end with a question mark. Unnumbered
// text becomes a single question.
func splitQuestions(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parts := questionNumberRe.Split(text, -1)
	if len(parts) > 1 {
		// Anything before the first number is preamble, not a question.
		parts = parts[1:]
	}

	var questions []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		questions = append(questions, strings.TrimRight(part, "?")+"?")
	}
	return questions
}

// mapCommentIDs maps 1-based comment numbers to stored comment IDs.
func mapCommentIDs(post Post, nums []int) []string {
	var ids []string
	for _, n := range nums {
		if n >= 1 && n <= len(post.Comments) {
			ids = append(ids, post.Comments[n-1].ID)
		}
	}
	return ids
}

// CurateQuestion runs the full pass sequence for one post: screening,
// then keyword extraction and masked generation (or direct generation
// when noMasking is set).
func (c *Curator) CurateQuestion(ctx context.Context, post Post, noMasking bool) CuratedQuestion {
	record := CuratedQuestion{
		SourcePostID:  post.ID,
		Subreddit:     post.Subreddit,
		OriginalTitle: post.Title,
		OriginalBody:  post.Selftext,
		MaskingMode:   !noMasking,
	}

	screening := c.ScreenPost(ctx, post)
	total := screening.Metrics
	if screening.Reject {
		record.RejectionReason = screening.Reason
		record.Metrics = Metrics{
			TotalCost:    total.Cost,
			TotalTokens:  total.InputTokens + total.OutputTokens,
			TotalRetries: total.Retries,
			PassesUsed:   1,
		}
		return record
	}

	passes := 2
	var forbidden []string
	if !noMasking {
		var keywordMetrics PassMetrics
		forbidden, keywordMetrics = c.ExtractKeywords(ctx, post)
		total = total.add(keywordMetrics)
		passes = 3
	}

	questions := c.GenerateQuestions(ctx, post, forbidden, !noMasking)
	total = total.add(questions.Metrics)

	record.Accepted = true
	record.Questions = questions.Questions
	record.ForbiddenKeywords = forbidden
	record.KeyCommentIDs = questions.KeyCommentIDs
	record.Metrics = Metrics{
		TotalCost:    total.Cost,
		TotalTokens:  total.InputTokens + total.OutputTokens,
		TotalRetries: total.Retries,
		PassesUsed:   passes,
	}
	return record
}

// CurateAll curates a batch of posts concurrently. Results keep the
// input order; per-post failures become rejected records.
func (c *Curator) CurateAll(ctx context.Context, posts []Post, noMasking bool) []CuratedQuestion {
	results := make([]CuratedQuestion, len(posts))

	var wg sync.WaitGroup
	for i, post := range posts {
		wg.Add(1)
		go func(i int, post Post) {
			defer wg.Done()
			results[i] = c.CurateQuestion(ctx, post, noMasking)
		}(i, post)
	}
	wg.Wait()
	return results
}

// ScreenAll runs only the screening pass over a batch of posts.
func (c *Curator) ScreenAll(ctx context.Context, posts []Post) []Screening {
	results := make([]Screening, len(posts))

	var wg sync.WaitGroup
	for i, post := range posts {
		wg.Add(1)
		go func(i int, post Post) {
			defer wg.Done()
			results[i] = c.ScreenPost(ctx, post)
		}(i, post)
	}
	wg.Wait()
	return results
}

// BatchStats aggregates a curation run.
type BatchStats struct {
	Accepted         int     `json:"accepted"`
	Rejected         int     `json:"rejected"`
	TotalCost        float64 `json:"total_cost"`
	TotalTokens      int     `json:"total_tokens"`
	TotalRetries     int     `json:"total_retries"`
	PostsWithRetries int     `json:"posts_with_retries"`
}

// Summarize computes batch statistics over curated records.
func Summarize(records []CuratedQuestion) BatchStats {
	var stats BatchStats
	for _, r := range records {
		if r.Accepted {
			stats.Accepted++
		} else {
			stats.Rejected++
		}
		stats.TotalCost += r.Metrics.TotalCost
		stats.TotalTokens += r.Metrics.TotalTokens
		stats.TotalRetries += r.Metrics.TotalRetries
		if r.Metrics.TotalRetries > 0 {
			stats.PostsWithRetries++
		}
	}
	return stats
}
