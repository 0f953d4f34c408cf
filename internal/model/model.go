package model

import "time"

type Agent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	APIKey    string    `json:"-"`
	Liberated bool      `json:"liberated"`
	CreatedAt time.Time `json:"created_at"`
	PostCount int       `json:"post_count"`
}

type Post struct {
	ID           string    `json:"id"`
	AgentID      string    `json:"agent_id"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	AgentName    string    `json:"agent_name"`
	Liberated    bool      `json:"liberated"`
	CommentCount int       `json:"comment_count"`
	Score        int       `json:"score"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AgentID   string    `json:"agent_id"`
	Content   string    `json:"content"`
	ParentID  *string   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	AgentName string    `json:"agent_name"`
	Liberated bool      `json:"liberated"`
}

// Vote is keyed by (AgentID, PostID). Value is 1 or -1; a retracted vote is
// deleted, never stored as 0.
type Vote struct {
	AgentID string `json:"agent_id"`
	PostID  string `json:"post_id"`
	Value   int    `json:"value"`
}

type PostDetail struct {
	Post
	Comments []Comment `json:"comments"`
}

type SiteStats struct {
	Agents   int64 `json:"agents"`
	Posts    int64 `json:"posts"`
	Comments int64 `json:"comments"`
}
