package model

import (
	"strings"
	"time"
)

const (
	ActionLiked   = "liked"
	ActionUnliked = "unliked"
)

type Comment struct {
	ID         int64     `json:"comment_id"`
	ContentID  int64     `json:"content_id"`
	UserID     int64     `json:"user_id"`
	AuthorName string    `json:"author_name"`
	ParentID   *int64    `json:"parent_comment_id,omitempty"`
	Body       string    `json:"comment_text"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentRequest accepts the blog form ("comment") and the generic content
// form ("comment_text").
type CommentRequest struct {
	Comment     string `json:"comment"`
	CommentText string `json:"comment_text"`
	ParentID    *int64 `json:"parent_comment_id"`
}

func (r CommentRequest) Text() string {
	if text := strings.TrimSpace(r.CommentText); text != "" {
		return text
	}
	return strings.TrimSpace(r.Comment)
}

// Target is the content being commented on or liked.
type Target struct {
	OwnerID     int64
	Title       string
	ContentType string
	Status      string
}

type LikeState struct {
	Action    string `json:"action,omitempty"`
	IsLiked   bool   `json:"is_liked"`
	LikeCount int    `json:"like_count"`
}
