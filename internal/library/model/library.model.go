package model

import "time"

// Entry is one saved item with the content fields a library page shows.
type Entry struct {
	SaveID           int64     `json:"save_id"`
	ContentID        int64     `json:"content_id"`
	Notes            string    `json:"notes"`
	SavedAt          time.Time `json:"saved_at"`
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	ContentType      string    `json:"content_type"`
	Category         string    `json:"category"`
	AuthorName       string    `json:"author_name"`
	ContentCreatedAt time.Time `json:"content_created_at"`
}

type SaveRequest struct {
	ContentID int64  `json:"content_id"`
	Notes     string `json:"notes"`
}

type Filter struct {
	ContentType string
	Search      string
	Sort        string
	Limit       int
	Offset      int
}

type ListResult struct {
	Entries []Entry `json:"saved_content"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Target is the content a save points at.
type Target struct {
	OwnerID     int64
	Title       string
	ContentType string
	Status      string
}
