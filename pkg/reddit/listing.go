package reddit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cpunion/reddit-consensus/pkg/types"
)

// Reddit wraps everything in "things": {kind, data}. Comment replies are
// either a nested listing or, annoyingly, the empty string.

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listingData struct {
	Children []thing `json:"children"`
}

type postData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	CreatedUTC  float64 `json:"created_utc"`
}

type commentData struct {
	ID         string          `json:"id"`
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	Score      int             `json:"score"`
	ParentID   string          `json:"parent_id"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"`
}

func decodeListing(raw json.RawMessage) (listingData, error) {
	var t thing
	if err := json.Unmarshal(raw, &t); err != nil {
		return listingData{}, fmt.Errorf("decode listing: %w", err)
	}
	var data listingData
	if err := json.Unmarshal(t.Data, &data); err != nil {
		return listingData{}, fmt.Errorf("decode listing data: %w", err)
	}
	return data, nil
}

// parsePostListing converts a search response into posts.
func parsePostListing(body []byte) ([]types.Post, error) {
	data, err := decodeListing(body)
	if err != nil {
		return nil, err
	}

	posts := make([]types.Post, 0, len(data.Children))
	for _, child := range data.Children {
		if child.Kind != "t3" {
			continue
		}
		var p postData
		if err := json.Unmarshal(child.Data, &p); err != nil {
			return nil, fmt.Errorf("decode post: %w", err)
		}
		posts = append(posts, types.Post{
			ID:          p.ID,
			Title:       p.Title,
			Selftext:    snippet(p.Selftext, 200),
			Subreddit:   p.Subreddit,
			Author:      authorName(p.Author),
			URL:         "https://reddit.com" + p.Permalink,
			Score:       p.Score,
			NumComments: p.NumComments,
			UpvoteRatio: p.UpvoteRatio,
			CreatedUTC:  int64(p.CreatedUTC),
		})
	}
	return posts, nil
}

// parseCommentListing converts a /comments/<id> response (a two-element
// array: the post listing, then the comment listing) into a thread.
func parseCommentListing(body []byte, postID string, opts GetCommentsOptions) (*types.CommentThread, error) {
	var listings []json.RawMessage
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("decode comments response: %w", err)
	}
	if len(listings) < 2 {
		return nil, fmt.Errorf("reddit: comments response has %d listings, want 2", len(listings))
	}

	postListing, err := decodeListing(listings[0])
	if err != nil {
		return nil, err
	}

	thread := &types.CommentThread{PostID: postID}
	if len(postListing.Children) > 0 {
		var p postData
		if err := json.Unmarshal(postListing.Children[0].Data, &p); err != nil {
			return nil, fmt.Errorf("decode post header: %w", err)
		}
		thread.PostTitle = p.Title
		thread.PostAuthor = authorName(p.Author)
		thread.PostCreatedUTC = int64(p.CreatedUTC)
	}

	commentListing, err := decodeListing(listings[1])
	if err != nil {
		return nil, err
	}

	forest, err := parseCommentChildren(commentListing.Children, 0, opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	if opts.MaxComments > 0 && len(forest) > opts.MaxComments {
		forest = forest[:opts.MaxComments]
	}

	thread.Comments = forest
	thread.TotalComments = len(forest)
	return thread, nil
}

func parseCommentChildren(children []thing, depth, maxDepth int) ([]*types.Comment, error) {
	var out []*types.Comment
	for _, child := range children {
		// "more" stubs carry no body and are skipped.
		if child.Kind != "t1" {
			continue
		}
		var c commentData
		if err := json.Unmarshal(child.Data, &c); err != nil {
			return nil, fmt.Errorf("decode comment: %w", err)
		}

		comment := &types.Comment{
			ID:         c.ID,
			Author:     authorName(c.Author),
			Body:       c.Body,
			Score:      c.Score,
			Depth:      depth,
			ParentID:   c.ParentID,
			CreatedUTC: int64(c.CreatedUTC),
		}

		if depth+1 < maxDepth || maxDepth <= 0 {
			replies, err := parseReplies(c.Replies, depth+1, maxDepth)
			if err != nil {
				return nil, fmt.Errorf("comment %s: %w", c.ID, err)
			}
			comment.Replies = replies
		}

		out = append(out, comment)
	}
	return out, nil
}

func parseReplies(raw json.RawMessage, depth, maxDepth int) ([]*types.Comment, error) {
	trimmed := bytes.TrimSpace(raw)
	// Leaf comments carry replies as "" or null instead of a listing.
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte(`""`)) || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	data, err := decodeListing(trimmed)
	if err != nil {
		return nil, err
	}
	return parseCommentChildren(data.Children, depth, maxDepth)
}

// parseSubredditListing converts a subreddit search response.
func parseSubredditListing(body []byte) ([]types.Subreddit, error) {
	data, err := decodeListing(body)
	if err != nil {
		return nil, err
	}

	subs := make([]types.Subreddit, 0, len(data.Children))
	for _, child := range data.Children {
		if child.Kind != "t5" {
			continue
		}
		var s types.Subreddit
		if err := json.Unmarshal(child.Data, &s); err != nil {
			return nil, fmt.Errorf("decode subreddit: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, nil
}

func authorName(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}

func snippet(text string, maxChars int) string {
	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + "..."
}
