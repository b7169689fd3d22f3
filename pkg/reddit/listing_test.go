package reddit

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cpunion/reddit-consensus/pkg/retry"
)

const searchFixture = `{
  "kind": "Listing",
  "data": {
    "children": [
      {"kind": "t3", "data": {
        "id": "abc123",
        "title": "Best budget espresso setup?",
        "selftext": "Looking for recommendations under $300.",
        "subreddit": "espresso",
        "author": "beanlover",
        "permalink": "/r/espresso/comments/abc123/best_budget_espresso_setup/",
        "score": 512,
        "num_comments": 87,
        "upvote_ratio": 0.97,
        "created_utc": 1454284800.0
      }},
      {"kind": "t3", "data": {
        "id": "def456",
        "title": "Another post",
        "selftext": "",
        "subreddit": "espresso",
        "author": "",
        "permalink": "/r/espresso/comments/def456/another_post/",
        "score": 3,
        "num_comments": 1,
        "upvote_ratio": 0.6,
        "created_utc": 1454284900.0
      }}
    ]
  }
}`

const commentsFixture = `[
  {"kind": "Listing", "data": {"children": [
    {"kind": "t3", "data": {
      "id": "abc123",
      "title": "Best budget espresso setup?",
      "author": "beanlover",
      "created_utc": 1454284800.0
    }}
  ]}},
  {"kind": "Listing", "data": {"children": [
    {"kind": "t1", "data": {
      "id": "c1",
      "author": "barista42",
      "body": "Gaggia Classic plus a decent hand grinder.",
      "score": 120,
      "parent_id": "t3_abc123",
      "created_utc": 1454285000.0,
      "replies": {"kind": "Listing", "data": {"children": [
        {"kind": "t1", "data": {
          "id": "c1a",
          "author": "",
          "body": "Seconding this, mine is 10 years old.",
          "score": 45,
          "parent_id": "t1_c1",
          "created_utc": 1454285100.0,
          "replies": ""
        }},
        {"kind": "more", "data": {"count": 12}}
      ]}}
    }},
    {"kind": "t1", "data": {
      "id": "c2",
      "author": "newbie",
      "body": "What about pods?",
      "score": -4,
      "parent_id": "t3_abc123",
      "created_utc": 1454285200.0,
      "replies": ""
    }},
    {"kind": "more", "data": {"count": 30}}
  ]}}
]`

func TestParsePostListing(t *testing.T) {
	posts, err := parsePostListing([]byte(searchFixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}

	p := posts[0]
	if p.ID != "abc123" {
		t.Errorf("expected id abc123, got %s", p.ID)
	}
	if p.Score != 512 || p.NumComments != 87 {
		t.Errorf("unexpected score/comments: %d/%d", p.Score, p.NumComments)
	}
	if !strings.HasPrefix(p.URL, "https://reddit.com/r/espresso/") {
		t.Errorf("unexpected URL: %s", p.URL)
	}
	if posts[1].Author != "[deleted]" {
		t.Errorf("expected empty author mapped to [deleted], got %s", posts[1].Author)
	}
}

func TestParseCommentListing(t *testing.T) {
	thread, err := parseCommentListing([]byte(commentsFixture), "abc123", GetCommentsOptions{MaxComments: 5, MaxDepth: 3})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if thread.PostTitle != "Best budget espresso setup?" {
		t.Errorf("unexpected post title: %s", thread.PostTitle)
	}
	if len(thread.Comments) != 2 {
		t.Fatalf("expected 2 top-level comments (more stub skipped), got %d", len(thread.Comments))
	}

	c1 := thread.Comments[0]
	if c1.Score != 120 || c1.Depth != 0 {
		t.Errorf("unexpected first comment: score=%d depth=%d", c1.Score, c1.Depth)
	}
	if len(c1.Replies) != 1 {
		t.Fatalf("expected 1 reply under c1, got %d", len(c1.Replies))
	}
	if c1.Replies[0].Depth != 1 {
		t.Errorf("expected reply depth 1, got %d", c1.Replies[0].Depth)
	}
	if c1.Replies[0].Author != "[deleted]" {
		t.Errorf("expected deleted author placeholder, got %s", c1.Replies[0].Author)
	}
	if thread.Comments[1].Score != -4 {
		t.Errorf("negative scores must survive parsing, got %d", thread.Comments[1].Score)
	}
}

func TestParseCommentListing_TopLevelCap(t *testing.T) {
	thread, err := parseCommentListing([]byte(commentsFixture), "abc123", GetCommentsOptions{MaxComments: 1, MaxDepth: 3})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(thread.Comments) != 1 {
		t.Errorf("expected 1 top-level comment after cap, got %d", len(thread.Comments))
	}
}

func TestParseCommentListing_DepthCap(t *testing.T) {
	thread, err := parseCommentListing([]byte(commentsFixture), "abc123", GetCommentsOptions{MaxComments: 5, MaxDepth: 1})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(thread.Comments[0].Replies) != 0 {
		t.Errorf("expected replies dropped at depth cap 1, got %d", len(thread.Comments[0].Replies))
	}
}

func TestParseCommentListing_MalformedScore(t *testing.T) {
	malformed := strings.Replace(commentsFixture, `"score": 120`, `"score": "many"`, 1)
	_, err := parseCommentListing([]byte(malformed), "abc123", GetCommentsOptions{MaxComments: 5, MaxDepth: 3})
	if err == nil {
		t.Fatal("expected a decode error for a non-numeric score")
	}
	if !strings.Contains(err.Error(), "decode comment") {
		t.Errorf("expected a descriptive decode error, got %v", err)
	}
}

func TestAPIError_RateLimitClassification(t *testing.T) {
	rateErr := &APIError{StatusCode: http.StatusTooManyRequests, RetryAfter: 3 * time.Second}
	if !retry.IsRateLimit(rateErr) {
		t.Error("expected 429 to classify as retryable")
	}
	if hint, ok := retry.WaitHint(rateErr); !ok || hint != 3*time.Second {
		t.Errorf("expected Retry-After surfaced as a 3s wait hint, got %v %v", hint, ok)
	}

	authErr := &APIError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}
	if retry.IsRateLimit(authErr) {
		t.Error("expected 401 to classify as fatal")
	}

	var apiErr *APIError
	if !errors.As(error(authErr), &apiErr) {
		t.Error("expected APIError to be matchable with errors.As")
	}
}
