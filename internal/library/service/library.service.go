package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"lawfort/internal/access"
	"lawfort/internal/library/model"
	"lawfort/internal/library/repository"
	notification "lawfort/internal/notification/model"
	"lawfort/pkg/apperror"
	"lawfort/pkg/logger"
	"lawfort/pkg/metrics"
	"lawfort/pkg/request"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Notifier interface {
	Notify(ctx context.Context, n notification.New) error
}

type LibraryService struct {
	Repo     *repository.LibraryRepository
	Notifier Notifier
}

func NewLibraryService(repo *repository.LibraryRepository, notifier Notifier) *LibraryService {
	return &LibraryService{Repo: repo, Notifier: notifier}
}

// Save puts an Active item in the caller's library and tells its author.
func (s *LibraryService) Save(ctx context.Context, user *access.Principal, req model.SaveRequest) (int64, error) {
	if !access.HasPermission(user, access.ContentSave, 0) {
		return 0, apperror.Forbidden("Access denied")
	}
	if req.ContentID <= 0 {
		return 0, apperror.Invalid("content_id is required")
	}
	target, err := s.Repo.Target(ctx, req.ContentID)
	if err == sql.ErrNoRows || (err == nil && target.Status == "Deleted") {
		return 0, apperror.NotFound("Content not found")
	}
	if err != nil {
		return 0, err
	}
	if target.Status != "Active" {
		return 0, apperror.Invalid("Content is not available for saving")
	}

	id, err := s.Repo.Save(ctx, user.ID, req.ContentID, strings.TrimSpace(req.Notes))
	if err == sql.ErrNoRows {
		return 0, apperror.Conflict("Content already saved")
	}
	if err != nil {
		return 0, err
	}
	metrics.ContentSaved.Inc()

	if target.OwnerID != user.ID && s.Notifier != nil {
		kind := strings.ToLower(strings.ReplaceAll(target.ContentType, "_", " "))
		contentID := req.ContentID
		n := notification.New{
			UserID:           target.OwnerID,
			Type:             notification.TypeContentSaved,
			Title:            "Content Saved",
			Message:          fmt.Sprintf("%s saved your %s: %s", s.Repo.SaverName(ctx, user.ID), kind, target.Title),
			RelatedContentID: &contentID,
			ActionURL:        fmt.Sprintf("/content/%d", contentID),
		}
		if err := s.Notifier.Notify(ctx, n); err != nil {
			logger.Sugar.Warnf("Failed to notify author of content %d: %v", contentID, err)
		}
	}
	return id, nil
}

func (s *LibraryService) Unsave(ctx context.Context, userID, contentID int64) error {
	n, err := s.Repo.Delete(ctx, userID, contentID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Content not found in saved items")
	}
	return nil
}

func (s *LibraryService) List(ctx context.Context, userID int64, f model.Filter) (model.ListResult, error) {
	f.Limit, f.Offset = request.Page(f.Limit, f.Offset, defaultLimit, maxLimit)
	entries, total, err := s.Repo.List(ctx, userID, f)
	if err != nil {
		return model.ListResult{}, err
	}
	return model.ListResult{Entries: entries, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}
