package curator

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Post is one dataset post with its retained comments.
type Post struct {
	ID          string        `json:"id"`
	Subreddit   string        `json:"subreddit"`
	Title       string        `json:"title"`
	Selftext    string        `json:"selftext"`
	Score       int           `json:"score"`
	NumComments int           `json:"num_comments"`
	CreatedUTC  int64         `json:"created_utc"`
	Comments    []PostComment `json:"comments"`
}

// PostComment is one retained comment on a dataset post.
type PostComment struct {
	ID         string `json:"id"`
	Body       string `json:"body"`
	Score      int    `json:"score"`
	CreatedUTC int64  `json:"created_utc"`
}

// Store is a SQLite-backed dataset of filtered posts and comments.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	id           TEXT PRIMARY KEY,
	subreddit    TEXT NOT NULL,
	title        TEXT NOT NULL,
	selftext     TEXT NOT NULL,
	score        INTEGER NOT NULL,
	num_comments INTEGER NOT NULL,
	created_utc  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS comments (
	id          TEXT PRIMARY KEY,
	post_id     TEXT NOT NULL REFERENCES posts(id),
	body        TEXT NOT NULL,
	score       INTEGER NOT NULL,
	created_utc INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, score DESC);
CREATE INDEX IF NOT EXISTS idx_posts_subreddit ON posts(subreddit);
`

// OpenStore opens (creating if needed) a dataset store at path. Use
// ":memory:" for an ephemeral store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertPost stores or replaces a post.
func (s *Store) InsertPost(p Post) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO posts (id, subreddit, title, selftext, score, num_comments, created_utc)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Subreddit, p.Title, p.Selftext, p.Score, p.NumComments, p.CreatedUTC,
	)
	if err != nil {
		return fmt.Errorf("insert post %s: %w", p.ID, err)
	}
	return nil
}

// InsertComment stores or replaces a comment.
func (s *Store) InsertComment(postID string, c PostComment) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO comments (id, post_id, body, score, created_utc)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, postID, c.Body, c.Score, c.CreatedUTC,
	)
	if err != nil {
		return fmt.Errorf("insert comment %s: %w", c.ID, err)
	}
	return nil
}

// HasPost reports whether a post is in the store.
func (s *Store) HasPost(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM posts WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has post: %w", err)
	}
	return n > 0, nil
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(id string) error {
	if _, err := s.db.Exec(`DELETE FROM comments WHERE post_id = ?`, id); err != nil {
		return fmt.Errorf("delete comments of %s: %w", id, err)
	}
	if _, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return nil
}

// CountPosts returns the number of posts in the store.
func (s *Store) CountPosts() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// Posts returns a slice of posts in insertion order with their comments
// attached, highest-scoring comments first. A limit of 0 returns all
// posts from offset onward.
func (s *Store) Posts(offset, limit int) ([]Post, error) {
	query := `SELECT id, subreddit, title, selftext, score, num_comments, created_utc
	          FROM posts ORDER BY rowid LIMIT ? OFFSET ?`
	sqlLimit := limit
	if sqlLimit <= 0 {
		sqlLimit = -1
	}

	rows, err := s.db.Query(query, sqlLimit, offset)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Subreddit, &p.Title, &p.Selftext, &p.Score, &p.NumComments, &p.CreatedUTC); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	for i := range posts {
		comments, err := s.commentsFor(posts[i].ID)
		if err != nil {
			return nil, err
		}
		posts[i].Comments = comments
	}
	return posts, nil
}

func (s *Store) commentsFor(postID string) ([]PostComment, error) {
	rows, err := s.db.Query(
		`SELECT id, body, score, created_utc FROM comments
		 WHERE post_id = ? ORDER BY score DESC, id`, postID)
	if err != nil {
		return nil, fmt.Errorf("query comments of %s: %w", postID, err)
	}
	defer rows.Close()

	var comments []PostComment
	for rows.Next() {
		var c PostComment
		if err := rows.Scan(&c.ID, &c.Body, &c.Score, &c.CreatedUTC); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// trimComments keeps only the top n comments by score for a post.
func (s *Store) trimComments(postID string, n int) error {
	_, err := s.db.Exec(
		`DELETE FROM comments WHERE post_id = ? AND id NOT IN (
		   SELECT id FROM comments WHERE post_id = ?
		   ORDER BY score DESC, id LIMIT ?)`,
		postID, postID, n)
	if err != nil {
		return fmt.Errorf("trim comments of %s: %w", postID, err)
	}
	return nil
}
