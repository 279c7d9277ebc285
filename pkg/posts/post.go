package post

import (
	"context"

	"postboard/pkg/schema"
)

// DocumentKey is the store key holding every post.
const DocumentKey = "posts"

type Post struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Username string     `json:"username"`
	Content  string     `json:"content"`
	Comments []*Comment `json:"comments"`
	Votes    Votes      `json:"votes"`
	Media    Media      `json:"media"`
}

type Comment struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Username string `json:"username"`
}

// Votes keeps Count equal to the sum of Map.
type Votes struct {
	Count float64            `json:"count"`
	Map   map[string]float64 `json:"map"`
}

type Media struct {
	File string `json:"file,omitempty"`
	Type string `json:"type,omitempty"`
}

type PostRepo interface {
	GetAllPosts(ctx context.Context) ([]*Post, error)
	AddPost(ctx context.Context, in *schema.NewPost) (*Post, error)
	AddComment(ctx context.Context, postID string, in *schema.Comment) (*Comment, error)
	AddVote(ctx context.Context, postID string, in *schema.Vote) (*Votes, error)
}
