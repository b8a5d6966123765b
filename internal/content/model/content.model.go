package model

import (
	"time"

	"lawfort/config/features"
	"lawfort/internal/access"
)

const (
	TypeBlogPost      = "Blog_Post"
	TypeResearchPaper = "Research_Paper"
	TypeNote          = "Note"
	TypeCourse        = "Course"
	TypeJob           = "Job"
	TypeInternship    = "Internship"

	StatusActive   = "Active"
	StatusInactive = "Inactive"
	StatusPending  = "Pending"
	StatusDeleted  = "Deleted"

	DateLayout = "2006-01-02"
)

// Kind describes one content vertical exposed under /api/<Slug>.
type Kind struct {
	Slug    string
	Type    string
	Label   string
	Feature string
	// Positional kinds are postings people apply to.
	Positional      bool
	ApplyPermission access.Permission
}

var (
	BlogPosts      = Kind{Slug: "blog-posts", Type: TypeBlogPost, Label: "Blog post", Feature: features.BlogPosts}
	Notes          = Kind{Slug: "notes", Type: TypeNote, Label: "Note", Feature: features.Notes}
	ResearchPapers = Kind{Slug: "research-papers", Type: TypeResearchPaper, Label: "Research paper", Feature: features.ResearchPapers}
	Courses        = Kind{Slug: "courses", Type: TypeCourse, Label: "Course", Feature: features.Courses}
	Jobs           = Kind{Slug: "jobs", Type: TypeJob, Label: "Job", Feature: features.Jobs, Positional: true, ApplyPermission: access.JobApply}
	Internships    = Kind{Slug: "internships", Type: TypeInternship, Label: "Internship", Feature: features.Internships, Positional: true, ApplyPermission: access.InternshipApply}
)

// AllKinds in route registration order.
func AllKinds() []Kind {
	return []Kind{BlogPosts, Notes, ResearchPapers, Courses, Jobs, Internships}
}

func KindByType(t string) (Kind, bool) {
	for _, k := range AllKinds() {
		if k.Type == t {
			return k, true
		}
	}
	return Kind{}, false
}

type Item struct {
	ID            int64     `json:"content_id"`
	UserID        int64     `json:"user_id"`
	AuthorName    string    `json:"author_name"`
	ContentType   string    `json:"content_type"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	Body          string    `json:"content"`
	Tags          string    `json:"tags"`
	Category      string    `json:"category"`
	FeaturedImage string    `json:"featured_image"`
	Status        string    `json:"status"`
	IsFeatured    bool      `json:"is_featured"`
	Views         int       `json:"views"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	CompanyName         string     `json:"company_name,omitempty"`
	Location            string     `json:"location,omitempty"`
	PositionType        string     `json:"position_type,omitempty"`
	SalaryRange         string     `json:"salary_range,omitempty"`
	ExperienceRequired  string     `json:"experience_required,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	ContactEmail        string     `json:"contact_email,omitempty"`
	Authors             string     `json:"authors,omitempty"`
	Abstract            string     `json:"abstract,omitempty"`
	Keywords            string     `json:"keywords,omitempty"`
	Instructor          string     `json:"instructor,omitempty"`
	Duration            string     `json:"duration,omitempty"`
	FileURL             string     `json:"file_url,omitempty"`

	// What the requesting user may do with this item.
	CanEdit    bool              `json:"can_edit"`
	CanDelete  bool              `json:"can_delete"`
	IsSaved    bool              `json:"is_saved"`
	HasApplied *bool             `json:"has_applied,omitempty"`
	ApplyState access.ApplyState `json:"apply_state,omitempty"`
}

// Open reports whether a posting still takes applications on day now.
func (i Item) Open(now time.Time) bool {
	if i.Status != StatusActive {
		return false
	}
	if i.ApplicationDeadline == nil {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	deadline := time.Date(i.ApplicationDeadline.Year(), i.ApplicationDeadline.Month(), i.ApplicationDeadline.Day(), 0, 0, 0, 0, time.UTC)
	return !deadline.Before(today)
}

type Filter struct {
	Type         string
	Status       string
	Category     string
	Search       string
	Company      string
	Location     string
	PositionType string
	Featured     bool
	AuthorID     int64
	Sort         string
	Limit        int
	Offset       int
}

// Input is the create/update body shared by every kind.
type Input struct {
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	Body          string `json:"content"`
	Tags          string `json:"tags"`
	Category      string `json:"category"`
	FeaturedImage string `json:"featured_image"`
	Status        string `json:"status"`
	IsPublished   *bool  `json:"is_published"`
	IsFeatured    bool   `json:"is_featured"`

	CompanyName         string `json:"company_name"`
	Location            string `json:"location"`
	PositionType        string `json:"position_type"`
	SalaryRange         string `json:"salary_range"`
	ExperienceRequired  string `json:"experience_required"`
	ApplicationDeadline string `json:"application_deadline"`
	ContactEmail        string `json:"contact_email"`
	Authors             string `json:"authors"`
	Abstract            string `json:"abstract"`
	Keywords            string `json:"keywords"`
	Instructor          string `json:"instructor"`
	Duration            string `json:"duration"`
	FileURL             string `json:"file_url"`
}

type ListResult struct {
	Items  []Item `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
