package model

import "time"

const (
	StatusPending     = "Pending"
	StatusReviewed    = "Reviewed"
	StatusShortlisted = "Shortlisted"
	StatusRejected    = "Rejected"
	StatusHired       = "Hired"
	StatusSelected    = "Selected"

	ReviewPending       = "Pending"
	ReviewApproved      = "Approved"
	ReviewRejected      = "Rejected"
	ReviewNeedsRevision = "Needs Revision"

	// TypeResearch marks research submissions in the admin listing.
	TypeResearch = "Research_Paper"
)

// statuses is the status vocabulary per posting type.
var statuses = map[string][]string{
	"Job":        {StatusPending, StatusReviewed, StatusShortlisted, StatusRejected, StatusHired},
	"Internship": {StatusPending, StatusReviewed, StatusShortlisted, StatusRejected, StatusSelected},
}

// ValidStatus reports whether status belongs to the vocabulary of kind.
func ValidStatus(kind, status string) bool {
	for _, s := range statuses[kind] {
		if s == status {
			return true
		}
	}
	return false
}

// Statuses lists the vocabulary of kind.
func Statuses(kind string) []string {
	return statuses[kind]
}

type Application struct {
	ID              int64      `json:"application_id"`
	PositionID      int64      `json:"position_id"`
	UserID          int64      `json:"user_id"`
	Type            string     `json:"application_type"`
	Status          string     `json:"status"`
	ResumeURL       string     `json:"resume_url"`
	CoverLetter     string     `json:"cover_letter"`
	Notes           string     `json:"notes"`
	AppliedAt       time.Time  `json:"application_date"`
	ReviewedBy      *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	PositionTitle   string     `json:"position_title"`
	CompanyName     string     `json:"company_name"`
	Location        string     `json:"location"`
	PositionType    string     `json:"position_type"`
	PositionOwnerID int64      `json:"-"`
	ApplicantName   string     `json:"applicant_name"`
	ApplicantEmail  string     `json:"applicant_email"`
}

type ApplyRequest struct {
	ResumeURL   string `json:"resume_url"`
	CoverLetter string `json:"cover_letter"`
}

type StatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type AdminFilter struct {
	Type     string
	Status   string
	Company  string
	DateFrom string
	DateTo   string
	Limit    int
	Offset   int
}

type ListResult struct {
	Applications []Application `json:"applications"`
	Total        int           `json:"total"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}

// Upload is a stored resume or research paper PDF.
type Upload struct {
	FileURL  string `json:"file_url"`
	Filename string `json:"filename"`
	Size     int64  `json:"file_size"`
}

// Submission is a research paper going through review.
type Submission struct {
	ReviewID      int64      `json:"review_id"`
	ContentID     int64      `json:"content_id"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary"`
	Authors       string     `json:"authors"`
	Abstract      string     `json:"abstract"`
	Keywords      string     `json:"keywords"`
	Status        string     `json:"status"`
	DisplayStatus string     `json:"display_status"`
	Comments      string     `json:"review_comments"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	AuthorName    string     `json:"author_name"`
	AuthorEmail   string     `json:"author_email"`
}

var displayStatuses = map[string]string{
	ReviewPending:       "Under Review",
	ReviewNeedsRevision: "Revision Required",
}

// DisplayStatusFor is the label an author sees for a review status.
func DisplayStatusFor(status string) string {
	if d, ok := displayStatuses[status]; ok {
		return d
	}
	return status
}

type SubmitRequest struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Authors  string `json:"authors"`
	Keywords string `json:"keywords"`
	Category string `json:"category"`
	PDFURL   string `json:"pdf_url"`
}

type ReviewRequest struct {
	Action   string `json:"action"`
	Comments string `json:"comments"`
}

// Decision is the outcome of a review action.
type Decision struct {
	ReviewStatus  string
	ContentStatus string
	Verb          string
}

var decisions = map[string]Decision{
	"approve":          {ReviewStatus: ReviewApproved, ContentStatus: "Active", Verb: "approved"},
	"reject":           {ReviewStatus: ReviewRejected, ContentStatus: "Inactive", Verb: "rejected"},
	"request_revision": {ReviewStatus: ReviewNeedsRevision, ContentStatus: "Pending", Verb: "sent back for revision"},
}

func DecisionFor(action string) (Decision, bool) {
	d, ok := decisions[action]
	return d, ok
}
