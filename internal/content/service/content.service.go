package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lawfort/internal/access"
	"lawfort/internal/audit"
	"lawfort/internal/content/model"
	"lawfort/internal/content/repository"
	"lawfort/pkg/apperror"
	"lawfort/pkg/logger"
	"lawfort/pkg/request"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type ContentService struct {
	Repo  *repository.ContentRepository
	Audit *audit.Log
}

func NewContentService(repo *repository.ContentRepository, auditLog *audit.Log) *ContentService {
	return &ContentService{Repo: repo, Audit: auditLog}
}

// List returns one page of a vertical. Only managers may look past Active
// items, and never at deleted ones.
func (s *ContentService) List(ctx context.Context, viewer *access.Principal, kind model.Kind, f model.Filter, mine bool) (model.ListResult, error) {
	f.Type = kind.Type
	f.Limit, f.Offset = request.Page(f.Limit, f.Offset, defaultLimit, maxLimit)

	privileged := viewer != nil && viewer.Role.Manager()
	switch {
	case !privileged || f.Status == model.StatusDeleted:
		f.Status = model.StatusActive
	case f.Status == "" && !mine:
		f.Status = model.StatusActive
	}
	if mine {
		if viewer == nil {
			return model.ListResult{}, apperror.Unauthorized("Login required")
		}
		f.AuthorID = viewer.ID
	}

	items, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return model.ListResult{}, err
	}
	if err := s.decorate(ctx, viewer, kind, items); err != nil {
		return model.ListResult{}, err
	}
	return model.ListResult{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Load returns an item of kind regardless of who is asking. Deleted items
// and items of another kind do not exist.
func (s *ContentService) Load(ctx context.Context, kind model.Kind, id int64) (model.Item, error) {
	it, err := s.Repo.Get(ctx, id)
	if err == sql.ErrNoRows || (err == nil && (it.Status == model.StatusDeleted || it.ContentType != kind.Type)) {
		return model.Item{}, apperror.NotFound(kind.Label + " not found")
	}
	return it, err
}

// Get shows one item and counts the view. Unpublished items are visible
// only to those who may modify them.
func (s *ContentService) Get(ctx context.Context, viewer *access.Principal, kind model.Kind, id int64) (model.Item, error) {
	it, err := s.Load(ctx, kind, id)
	if err != nil {
		return model.Item{}, err
	}
	if it.Status != model.StatusActive && !access.CanModify(viewer, it.UserID) {
		return model.Item{}, apperror.NotFound(kind.Label + " not found")
	}
	if err := s.Repo.IncrementViews(ctx, id); err == nil {
		it.Views++
	}
	items := []model.Item{it}
	if err := s.decorate(ctx, viewer, kind, items); err != nil {
		return model.Item{}, err
	}
	return items[0], nil
}

func (s *ContentService) Create(ctx context.Context, viewer *access.Principal, kind model.Kind, in model.Input) (model.Item, error) {
	if viewer == nil || !viewer.Role.Manager() {
		return model.Item{}, apperror.Forbidden("Only editors and admins can create content")
	}
	it := model.Item{UserID: viewer.ID, ContentType: kind.Type}
	if err := apply(kind, &it, in, true); err != nil {
		return model.Item{}, err
	}
	id, err := s.Repo.Create(ctx, it)
	if err != nil {
		return model.Item{}, err
	}
	logger.Sugar.Infof("User %d created %s %d", viewer.ID, kind.Type, id)
	return s.Get(ctx, viewer, kind, id)
}

// Update replaces the editable fields of an item. Owner or admin only.
func (s *ContentService) Update(ctx context.Context, viewer *access.Principal, kind model.Kind, id int64, in model.Input) (model.Item, error) {
	it, err := s.Load(ctx, kind, id)
	if err != nil {
		return model.Item{}, err
	}
	if !access.CanModify(viewer, it.UserID) {
		return model.Item{}, apperror.Forbidden("You can only edit your own content")
	}
	if err := apply(kind, &it, in, false); err != nil {
		return model.Item{}, err
	}
	if err := s.Repo.Update(ctx, it); err != nil {
		return model.Item{}, err
	}
	if viewer.ID != it.UserID {
		s.Audit.Record(ctx, viewer.ID, "Update Content", fmt.Sprintf("Updated %s %d owned by user %d", kind.Type, id, it.UserID))
	}
	return s.Get(ctx, viewer, kind, id)
}

// Delete hides an item by marking it Deleted.
func (s *ContentService) Delete(ctx context.Context, viewer *access.Principal, kind model.Kind, id int64) error {
	it, err := s.Load(ctx, kind, id)
	if err != nil {
		return err
	}
	if !access.CanModify(viewer, it.UserID) {
		return apperror.Forbidden("You can only delete your own content")
	}
	if err := s.Repo.SetStatus(ctx, id, model.StatusDeleted); err != nil {
		return err
	}
	if viewer.ID != it.UserID {
		s.Audit.Record(ctx, viewer.ID, "Delete Content", fmt.Sprintf("Deleted %s %d owned by user %d", kind.Type, id, it.UserID))
	}
	return nil
}

// decorate fills the viewer-specific flags on items in place.
func (s *ContentService) decorate(ctx context.Context, viewer *access.Principal, kind model.Kind, items []model.Item) error {
	saved := map[int64]bool{}
	applied := map[int64]bool{}
	if viewer != nil && len(items) > 0 {
		ids := make([]int64, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		var err error
		if saved, err = s.Repo.SavedIDs(ctx, viewer.ID, ids); err != nil {
			return err
		}
		if kind.Positional {
			if applied, err = s.Repo.AppliedIDs(ctx, viewer.ID, ids); err != nil {
				return err
			}
		}
	}
	for i := range items {
		it := &items[i]
		it.CanEdit = access.CanModify(viewer, it.UserID)
		it.CanDelete = it.CanEdit
		it.IsSaved = saved[it.ID]
		if kind.Positional {
			has := applied[it.ID]
			it.HasApplied = &has
			it.ApplyState = access.ApplyStateFor(viewer, kind.ApplyPermission, has)
		}
	}
	return nil
}

var settableStatuses = map[string]bool{model.StatusActive: true, model.StatusInactive: true, model.StatusPending: true}

// apply validates in and copies it onto it. creating selects the default
// status for new items.
func apply(kind model.Kind, it *model.Item, in model.Input, creating bool) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Body) == "" {
		return apperror.Invalid("Title and content are required")
	}

	var deadline *time.Time
	if kind.Positional {
		if strings.TrimSpace(in.CompanyName) == "" || strings.TrimSpace(in.Location) == "" ||
			strings.TrimSpace(in.PositionType) == "" || strings.TrimSpace(in.ApplicationDeadline) == "" {
			return apperror.Invalid("Company name, location, position type and application deadline are required")
		}
		d, err := time.Parse(model.DateLayout, strings.TrimSpace(in.ApplicationDeadline))
		if err != nil {
			return apperror.Invalid("Application deadline must be a YYYY-MM-DD date")
		}
		deadline = &d
	}

	switch {
	case in.Status != "":
		if !settableStatuses[in.Status] {
			return apperror.Invalid("Invalid status")
		}
		it.Status = in.Status
	case in.IsPublished != nil && !*in.IsPublished:
		it.Status = model.StatusInactive
	case in.IsPublished != nil && *in.IsPublished:
		it.Status = model.StatusActive
	case creating:
		it.Status = model.StatusActive
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "General"
	}

	it.Title = in.Title
	it.Summary = in.Summary
	it.Body = in.Body
	it.Tags = in.Tags
	it.Category = category
	it.FeaturedImage = in.FeaturedImage
	it.IsFeatured = in.IsFeatured
	it.CompanyName = strings.TrimSpace(in.CompanyName)
	it.Location = strings.TrimSpace(in.Location)
	it.PositionType = strings.TrimSpace(in.PositionType)
	it.SalaryRange = in.SalaryRange
	it.ExperienceRequired = in.ExperienceRequired
	it.ApplicationDeadline = deadline
	it.ContactEmail = in.ContactEmail
	it.Authors = in.Authors
	it.Abstract = in.Abstract
	it.Keywords = in.Keywords
	it.Instructor = in.Instructor
	it.Duration = in.Duration
	it.FileURL = in.FileURL
	return nil
}
