package service

import (
	"context"
	"database/sql"

	"lawfort/internal/access"
	content "lawfort/internal/content/model"
	"lawfort/internal/dashboard/model"
	"lawfort/internal/dashboard/repository"
	"lawfort/pkg/apperror"
)

const (
	ScopeOwn = "own"
	ScopeAll = "all"
)

type DashboardService struct {
	Repo *repository.DashboardRepository
}

func NewDashboardService(repo *repository.DashboardRepository) *DashboardService {
	return &DashboardService{Repo: repo}
}

// User is the personal overview: applications, library and submissions.
func (s *DashboardService) User(ctx context.Context, user *access.Principal) (model.UserDashboard, error) {
	if user == nil {
		return model.UserDashboard{}, apperror.Unauthorized("Login required")
	}
	counts, err := s.Repo.UserCounts(ctx, user.ID)
	if err != nil {
		return model.UserDashboard{}, err
	}
	saved, err := s.Repo.SavedByType(ctx, user.ID)
	if err != nil {
		return model.UserDashboard{}, err
	}
	recent, err := s.Repo.RecentApplications(ctx, user.ID, model.RecentApplications)
	if err != nil {
		return model.UserDashboard{}, err
	}

	d := model.UserDashboard{
		TotalApplications:   counts.Applications,
		PendingApplications: counts.PendingApplications,
		SavedPostings:       saved[content.TypeJob] + saved[content.TypeInternship],
		SavedCourses:        saved[content.TypeCourse],
		SavedByType:         saved,
		ResearchSubmissions: counts.Submissions,
		UnreadNotifications: counts.UnreadNotifications,
		RecentApplications:  recent,
	}
	for _, n := range saved {
		d.SavedContent += n
	}
	return d, nil
}

// Editor summarises the caller's own content and the applications it drew.
func (s *DashboardService) Editor(ctx context.Context, user *access.Principal) (model.EditorDashboard, error) {
	if !access.HasPermission(user, access.ContentCreateOwn, 0) {
		return model.EditorDashboard{}, apperror.Forbidden("Editor access required")
	}
	stats, err := s.Repo.TypeStats(ctx, user.ID)
	if err != nil {
		return model.EditorDashboard{}, err
	}
	apps, err := s.Repo.ApplicationStats(ctx, user.ID)
	if err != nil {
		return model.EditorDashboard{}, err
	}
	recent, err := s.Repo.RecentContent(ctx, user.ID, model.RecentContent)
	if err != nil {
		return model.EditorDashboard{}, err
	}

	d := model.EditorDashboard{ByType: stats, Applications: apps, RecentContent: recent}
	for _, st := range stats {
		d.TotalContent += st.Count
		d.Published += st.ActiveCount
		d.TotalViews += st.Views
		d.TotalLikes += st.Likes
		d.TotalComments += st.Comments
		d.TotalSaves += st.Saves
	}
	d.Drafts = d.TotalContent - d.Published
	return d, nil
}

// Analytics reports per-type engagement. Admins see the whole site.
func (s *DashboardService) Analytics(ctx context.Context, user *access.Principal) (model.Analytics, error) {
	if !access.HasPermission(user, access.MetricsViewOwn, 0) {
		return model.Analytics{}, apperror.Forbidden("Access denied")
	}
	owner, scope := user.ID, ScopeOwn
	if access.HasPermission(user, access.MetricsViewAll, 0) {
		owner, scope = 0, ScopeAll
	}

	stats, err := s.Repo.TypeStats(ctx, owner)
	if err != nil {
		return model.Analytics{}, err
	}
	apps, err := s.Repo.ApplicationStats(ctx, owner)
	if err != nil {
		return model.Analytics{}, err
	}
	recent, err := s.Repo.RecentContent(ctx, owner, model.AnalyticsContent)
	if err != nil {
		return model.Analytics{}, err
	}
	return model.Analytics{Scope: scope, ByType: stats, Applications: apps, Recent: recent}, nil
}

// ContentMetrics shows the engagement of one item to its owner or an admin.
// Missing items and someone else's items look the same.
func (s *DashboardService) ContentMetrics(ctx context.Context, user *access.Principal, contentID int64) (model.Summary, error) {
	sum, owner, err := s.Repo.Summary(ctx, contentID)
	if err == sql.ErrNoRows || (err == nil && !access.HasPermission(user, access.MetricsViewOwn, owner)) {
		return model.Summary{}, apperror.NotFound("Metrics not found or permission denied")
	}
	return sum, err
}
