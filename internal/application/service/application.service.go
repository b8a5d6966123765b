package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"lawfort/internal/access"
	"lawfort/internal/application/model"
	"lawfort/internal/application/repository"
	"lawfort/internal/audit"
	content "lawfort/internal/content/model"
	contentrepo "lawfort/internal/content/repository"
	notification "lawfort/internal/notification/model"
	"lawfort/pkg/apperror"
	"lawfort/pkg/logger"
	"lawfort/pkg/metrics"
	"lawfort/pkg/request"
)

const (
	defaultAdminLimit = 50
	maxAdminLimit     = 200
)

var managers = []access.Role{access.RoleAdmin, access.RoleEditor}

type Notifier interface {
	Notify(ctx context.Context, n notification.New) error
	NotifyRoles(ctx context.Context, roles []access.Role, n notification.New) error
}

type ApplicationService struct {
	Repo     *repository.ApplicationRepository
	Content  *contentrepo.ContentRepository
	Notifier Notifier
	Audit    *audit.Log
	Resumes  *FileStore
	Papers   *FileStore
	now      func() time.Time
}

func NewApplicationService(repo *repository.ApplicationRepository, contentRepo *contentrepo.ContentRepository, notifier Notifier, auditLog *audit.Log, resumes, papers *FileStore) *ApplicationService {
	return &ApplicationService{
		Repo:     repo,
		Content:  contentRepo,
		Notifier: notifier,
		Audit:    auditLog,
		Resumes:  resumes,
		Papers:   papers,
		now:      time.Now,
	}
}

// Apply records the caller's application to an open posting of kind.
func (s *ApplicationService) Apply(ctx context.Context, user *access.Principal, kind content.Kind, positionID int64, req model.ApplyRequest) (int64, error) {
	if !access.HasPermission(user, kind.ApplyPermission, 0) {
		return 0, apperror.Forbidden("Access denied")
	}
	req.ResumeURL = strings.TrimSpace(req.ResumeURL)
	if req.ResumeURL == "" {
		return 0, apperror.Invalid("Resume URL is required")
	}

	label := strings.ToLower(kind.Label)
	posting, err := s.Content.Get(ctx, positionID)
	if err == sql.ErrNoRows || (err == nil && (posting.ContentType != kind.Type || posting.Status == content.StatusDeleted)) {
		return 0, apperror.NotFound(kind.Label + " posting not found")
	}
	if err != nil {
		return 0, err
	}
	if posting.Status != content.StatusActive {
		return 0, apperror.Invalid("This " + label + " posting is no longer active")
	}
	if !posting.Open(s.now()) {
		return 0, apperror.Invalid("The application deadline for this " + label + " has passed")
	}

	id, err := s.Repo.Create(ctx, positionID, user.ID, kind.Type, req)
	if err == repository.ErrAlreadyApplied {
		return 0, apperror.Conflict("You have already applied for this " + label)
	}
	if err != nil {
		return 0, err
	}
	metrics.ApplicationsSubmitted.WithLabelValues(kind.Type).Inc()

	s.notifyRoles(ctx, notification.New{
		Type:  notification.TypeNewApplication,
		Title: "New " + kind.Label + " Application",
		Message: fmt.Sprintf("New %s application: %s applied for %s at %s",
			label, s.Repo.ApplicantName(ctx, user.ID), posting.Title, posting.CompanyName),
		RelatedContentID: &positionID,
	})
	return id, nil
}

func (s *ApplicationService) UploadResume(user *access.Principal, filename string, r io.Reader) (model.Upload, error) {
	if !access.HasPermission(user, access.JobApply, 0) {
		return model.Upload{}, apperror.Forbidden("Access denied")
	}
	return s.Resumes.Save(user.ID, filename, r)
}

// UploadPaper stores a research paper PDF ahead of SubmitForReview.
func (s *ApplicationService) UploadPaper(user *access.Principal, filename string, r io.Reader) (model.Upload, error) {
	if !access.HasPermission(user, access.ResearchSubmit, 0) {
		return model.Upload{}, apperror.Forbidden("Access denied")
	}
	return s.Papers.Save(user.ID, filename, r)
}

// HasApplied returns the caller's application to a posting, or nil.
func (s *ApplicationService) HasApplied(ctx context.Context, userID, positionID int64) (*model.Application, error) {
	a, err := s.Repo.ForUser(ctx, userID, positionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ApplicationService) ListMine(ctx context.Context, user *access.Principal, kind content.Kind) ([]model.Application, error) {
	if !access.HasPermission(user, kind.ApplyPermission, 0) {
		return nil, apperror.Forbidden("Access denied")
	}
	return s.Repo.ListByApplicant(ctx, user.ID, kind.Type)
}

// ListSubmissions shows the caller's research papers with their review state.
func (s *ApplicationService) ListSubmissions(ctx context.Context, user *access.Principal) ([]model.Submission, error) {
	if !access.HasPermission(user, access.ResearchSubmit, 0) {
		return nil, apperror.Forbidden("Access denied")
	}
	return s.Repo.SubmissionsByAuthor(ctx, user.ID)
}

// ListForEditor returns applications to postings the caller owns.
func (s *ApplicationService) ListForEditor(ctx context.Context, user *access.Principal, kind content.Kind) ([]model.Application, error) {
	if user == nil || !user.Role.Manager() {
		return nil, apperror.Forbidden("Access denied")
	}
	return s.Repo.ListByPositionOwner(ctx, user.ID, kind.Type)
}

var adminTypes = map[string]struct {
	kinds    []string
	research bool
}{
	"":                {[]string{content.TypeJob, content.TypeInternship}, true},
	"all":             {[]string{content.TypeJob, content.TypeInternship}, true},
	"jobs":            {[]string{content.TypeJob}, false},
	"internships":     {[]string{content.TypeInternship}, false},
	"research-papers": {nil, true},
}

func parseDay(raw string, field string) (sql.NullTime, error) {
	if raw == "" {
		return sql.NullTime{}, nil
	}
	t, err := time.Parse(content.DateLayout, raw)
	if err != nil {
		return sql.NullTime{}, apperror.Invalid(field + " must be a YYYY-MM-DD date")
	}
	return sql.NullTime{Time: t, Valid: true}, nil
}

// ListForAdmin merges every application type behind one filter. A company
// filter excludes research submissions, which have no company.
func (s *ApplicationService) ListForAdmin(ctx context.Context, f model.AdminFilter) (model.ListResult, error) {
	t, ok := adminTypes[f.Type]
	if !ok {
		return model.ListResult{}, apperror.Invalid("Invalid application type")
	}
	from, err := parseDay(f.DateFrom, "date_from")
	if err != nil {
		return model.ListResult{}, err
	}
	to, err := parseDay(f.DateTo, "date_to")
	if err != nil {
		return model.ListResult{}, err
	}
	if to.Valid {
		to.Time = to.Time.AddDate(0, 0, 1)
	}

	limit, offset := request.Page(f.Limit, f.Offset, defaultAdminLimit, maxAdminLimit)
	items, total, err := s.Repo.ListAll(ctx, repository.AdminFilter{
		Kinds:    t.kinds,
		Research: t.research && f.Company == "",
		Status:   f.Status,
		Company:  f.Company,
		DateFrom: from,
		DateTo:   to,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return model.ListResult{}, err
	}
	return model.ListResult{Applications: items, Total: total, Limit: limit, Offset: offset}, nil
}

// UpdateStatus moves an application through its kind's vocabulary. Only the
// posting's owner or an admin may do so.
func (s *ApplicationService) UpdateStatus(ctx context.Context, user *access.Principal, kind content.Kind, id int64, req model.StatusRequest) error {
	req.Status = strings.TrimSpace(req.Status)
	if req.Status == "" {
		return apperror.Invalid("Status is required")
	}
	a, err := s.Repo.Find(ctx, id)
	if err == sql.ErrNoRows || (err == nil && a.Type != kind.Type) {
		return apperror.NotFound("Application not found")
	}
	if err != nil {
		return err
	}
	if !access.CanModify(user, a.PositionOwnerID) {
		return apperror.Forbidden("Permission denied")
	}
	if !model.ValidStatus(kind.Type, req.Status) {
		return apperror.Invalid(fmt.Sprintf("Status must be one of: %s", strings.Join(model.Statuses(kind.Type), ", ")))
	}
	if err := s.Repo.UpdateStatus(ctx, id, req.Status, req.Notes, user.ID); err != nil {
		return err
	}
	if user.ID != a.PositionOwnerID {
		s.Audit.Record(ctx, user.ID, "Update Application Status",
			fmt.Sprintf("Set %s application %d to %s", strings.ToLower(kind.Label), id, req.Status))
	}

	positionID := a.PositionID
	s.notify(ctx, notification.New{
		UserID: a.UserID,
		Type:   notification.TypeApplicationStatus,
		Title:  kind.Label + " Application Status Update",
		Message: fmt.Sprintf("Your application for %s at %s has been updated to: %s",
			a.PositionTitle, a.CompanyName, req.Status),
		RelatedContentID: &positionID,
		ActionURL:        "/applications",
	})
	return nil
}

// SubmitForReview stores a research paper as Pending together with its open
// review, and alerts reviewers.
func (s *ApplicationService) SubmitForReview(ctx context.Context, user *access.Principal, req model.SubmitRequest) (int64, error) {
	if !access.HasPermission(user, access.ResearchSubmit, 0) {
		return 0, apperror.Forbidden("Access denied")
	}
	required := []struct{ field, value string }{
		{"title", req.Title}, {"abstract", req.Abstract}, {"authors", req.Authors},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return 0, apperror.Invalid("Missing required field: " + r.field)
		}
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "General"
	}
	paper := content.Item{
		UserID:      user.ID,
		ContentType: content.TypeResearchPaper,
		Title:       strings.TrimSpace(req.Title),
		Summary:     req.Abstract,
		Body:        req.Abstract,
		Tags:        req.Keywords,
		Category:    category,
		Status:      content.StatusPending,
		Authors:     req.Authors,
		Abstract:    req.Abstract,
		Keywords:    req.Keywords,
		FileURL:     req.PDFURL,
	}

	tx, err := s.Repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := s.Content.CreateTx(ctx, tx, paper)
	if err != nil {
		return 0, err
	}
	if err := s.Repo.CreateReviewTx(ctx, tx, id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.notifyRoles(ctx, notification.New{
		Type:             notification.TypeResearchReview,
		Title:            "New Research Paper Submitted",
		Message:          fmt.Sprintf("A new research paper %q has been submitted for review.", paper.Title),
		RelatedContentID: &id,
	})
	return id, nil
}

func (s *ApplicationService) PendingReviews(ctx context.Context, user *access.Principal) ([]model.Submission, error) {
	if !access.HasPermission(user, access.ResearchReview, 0) {
		return nil, apperror.Forbidden("Access denied")
	}
	return s.Repo.PendingReviews(ctx)
}

// Review decides an open review and publishes, hides or returns the paper.
func (s *ApplicationService) Review(ctx context.Context, user *access.Principal, contentID int64, req model.ReviewRequest) (string, error) {
	if !access.HasPermission(user, access.ResearchReview, 0) {
		return "", apperror.Forbidden("Access denied")
	}
	d, ok := model.DecisionFor(req.Action)
	if !ok {
		return "", apperror.Invalid("Invalid action")
	}

	tx, err := s.Repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	review, err := s.Repo.LockPendingReview(ctx, tx, contentID)
	if err == sql.ErrNoRows {
		return "", apperror.NotFound("Review not found or already completed")
	}
	if err != nil {
		return "", err
	}
	if err := s.Repo.DecideReviewTx(ctx, tx, review.ID, contentID, user.ID, d, req.Comments); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	s.Audit.Record(ctx, user.ID, "Research Paper Review", fmt.Sprintf("Reviewed research paper %d: %s", contentID, req.Action))

	msg := fmt.Sprintf("Your research paper %q has been %s.", review.Title, d.Verb)
	if c := strings.TrimSpace(req.Comments); c != "" {
		msg += " Comments: " + c
	}
	s.notify(ctx, notification.New{
		UserID:           review.AuthorID,
		Type:             notification.TypeResearchReview,
		Title:            "Research Paper " + d.ReviewStatus,
		Message:          msg,
		RelatedContentID: &contentID,
	})
	return "Research paper " + d.Verb + " successfully", nil
}

func (s *ApplicationService) notify(ctx context.Context, n notification.New) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		logger.Sugar.Warnf("Failed to notify user %d: %v", n.UserID, err)
	}
}

func (s *ApplicationService) notifyRoles(ctx context.Context, n notification.New) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.NotifyRoles(ctx, managers, n); err != nil {
		logger.Sugar.Warnf("Failed to notify reviewers: %v", err)
	}
}
