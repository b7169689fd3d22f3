// Package types defines core types for the Reddit Consensus agent.
package types

// Post is a Reddit submission as returned by the search capability.
type Post struct {
	ID          string  `json:"post_id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"snippet,omitempty"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	URL         string  `json:"url"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	CreatedUTC  int64   `json:"created_utc"`
}

// Comment is a single node in a post's comment forest. Replies preserve
// Reddit's nesting; Depth is 0 for top-level comments.
type Comment struct {
	ID         string     `json:"id"`
	Author     string     `json:"author"`
	Body       string     `json:"text"`
	Score      int        `json:"score"`
	Depth      int        `json:"depth"`
	ParentID   string     `json:"parent_id,omitempty"`
	CreatedUTC int64      `json:"created_utc"`
	Replies    []*Comment `json:"replies"`
}

// ReplyCount returns the number of direct replies.
func (c *Comment) ReplyCount() int {
	return len(c.Replies)
}

// CommentThread is a post together with its comment forest.
type CommentThread struct {
	PostID         string     `json:"post_id"`
	PostTitle      string     `json:"post_title"`
	PostAuthor     string     `json:"post_author"`
	PostCreatedUTC int64      `json:"post_created_utc"`
	Comments       []*Comment `json:"comment_tree"`
	TotalComments  int        `json:"total_comments"`
}

// Subreddit is the metadata returned by subreddit search.
type Subreddit struct {
	Name        string `json:"display_name"`
	Title       string `json:"title"`
	Subscribers int    `json:"subscribers"`
	Over18      bool   `json:"over18"`
}

// Recommendation is one synthesized recommendation with cited community
// sentiment.
type Recommendation struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Pros          string   `json:"pros,omitempty"`
	Cons          string   `json:"cons,omitempty"`
	Reasoning     string   `json:"reasoning,omitempty"`
	RedditSources []string `json:"reddit_sources,omitempty"`
}
