package model

import "time"

// How many rows each recent list shows.
const (
	RecentApplications = 5
	RecentContent      = 5
	AnalyticsContent   = 10
)

type RecentApplication struct {
	ApplicationID int64     `json:"application_id"`
	PositionID    int64     `json:"position_id"`
	Title         string    `json:"title"`
	CompanyName   string    `json:"company_name"`
	Type          string    `json:"application_type"`
	Status        string    `json:"status"`
	AppliedAt     time.Time `json:"application_date"`
}

// UserCounts are the single-row totals behind the user dashboard.
type UserCounts struct {
	Applications        int
	PendingApplications int
	Submissions         int
	UnreadNotifications int
}

type UserDashboard struct {
	TotalApplications   int                 `json:"total_applications"`
	PendingApplications int                 `json:"pending_applications"`
	SavedContent        int                 `json:"saved_content"`
	SavedPostings       int                 `json:"saved_postings"`
	SavedCourses        int                 `json:"saved_courses"`
	SavedByType         map[string]int      `json:"saved_by_type"`
	ResearchSubmissions int                 `json:"research_submissions"`
	UnreadNotifications int                 `json:"unread_notifications"`
	RecentApplications  []RecentApplication `json:"recent_applications"`
}

// TypeStats aggregates one content type.
type TypeStats struct {
	ContentType string `json:"content_type"`
	Count       int    `json:"count"`
	ActiveCount int    `json:"active_count"`
	Views       int    `json:"total_views"`
	Likes       int    `json:"total_likes"`
	Comments    int    `json:"total_comments"`
	Saves       int    `json:"total_saves"`
}

// Summary is the engagement of a single item.
type Summary struct {
	ContentID    int64     `json:"content_id"`
	Title        string    `json:"title"`
	ContentType  string    `json:"content_type"`
	Status       string    `json:"status"`
	Views        int       `json:"views"`
	Likes        int       `json:"likes"`
	Comments     int       `json:"comments"`
	Saves        int       `json:"saves"`
	Applications int       `json:"applications"`
	CreatedAt    time.Time `json:"created_at"`
}

type ApplicationStats struct {
	Total       int `json:"total"`
	Pending     int `json:"pending"`
	Jobs        int `json:"job_applications"`
	Internships int `json:"internship_applications"`
}

type EditorDashboard struct {
	TotalContent  int              `json:"total_content"`
	Published     int              `json:"published_content"`
	Drafts        int              `json:"draft_content"`
	TotalViews    int              `json:"total_views"`
	TotalLikes    int              `json:"total_likes"`
	TotalComments int              `json:"total_comments"`
	TotalSaves    int              `json:"total_saves"`
	ByType        []TypeStats      `json:"content_by_type"`
	Applications  ApplicationStats `json:"applications"`
	RecentContent []Summary        `json:"recent_content"`
}

// Analytics covers the caller's own content, or the whole site for those
// who may view all metrics.
type Analytics struct {
	Scope        string           `json:"scope"`
	ByType       []TypeStats      `json:"content_stats"`
	Applications ApplicationStats `json:"application_stats"`
	Recent       []Summary        `json:"recent_performance"`
}
