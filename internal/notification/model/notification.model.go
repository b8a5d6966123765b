package model

import "time"

const (
	TypeNewApplication    = "new_application"
	TypeApplicationStatus = "application_status"
	TypeContentSaved      = "content_saved"
	TypeContentComment    = "content_comment"
	TypeResearchReview    = "research_review"
	TypeAccessRequest     = "access_request"
	TypeAccessApproved    = "access_approved"
	TypeAccessDenied      = "access_denied"
)

type Notification struct {
	ID               int64     `json:"notification_id"`
	UserID           int64     `json:"user_id"`
	Type             string    `json:"type"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	IsRead           bool      `json:"is_read"`
	RelatedContentID *int64    `json:"related_content_id,omitempty"`
	ActionURL        string    `json:"action_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// New is a notification about to be stored.
type New struct {
	UserID           int64
	Type             string
	Title            string
	Message          string
	RelatedContentID *int64
	ActionURL        string
}

type Page struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unread_count"`
}
