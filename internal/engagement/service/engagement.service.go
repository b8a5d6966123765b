package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"lawfort/internal/access"
	content "lawfort/internal/content/model"
	"lawfort/internal/engagement/model"
	"lawfort/internal/engagement/repository"
	notification "lawfort/internal/notification/model"
	"lawfort/pkg/apperror"
	"lawfort/pkg/logger"
	"lawfort/pkg/metrics"
)

const maxCommentLength = 5000

type Notifier interface {
	Notify(ctx context.Context, n notification.New) error
}

// EngagementService handles comments and likes on any content item.
type EngagementService struct {
	Repo     *repository.EngagementRepository
	Notifier Notifier
}

func NewEngagementService(repo *repository.EngagementRepository, notifier Notifier) *EngagementService {
	return &EngagementService{Repo: repo, Notifier: notifier}
}

// target loads contentID. A non-empty contentType restricts the lookup to
// one vertical; deleted items never exist.
func (s *EngagementService) target(ctx context.Context, contentID int64, contentType string) (model.Target, error) {
	t, err := s.Repo.Target(ctx, contentID)
	if err == sql.ErrNoRows || (err == nil && (t.Status == content.StatusDeleted || (contentType != "" && t.ContentType != contentType))) {
		return model.Target{}, apperror.NotFound("Content not found")
	}
	return t, err
}

func (s *EngagementService) Comments(ctx context.Context, contentID int64, contentType string) ([]model.Comment, error) {
	t, err := s.target(ctx, contentID, contentType)
	if err != nil {
		return nil, err
	}
	if t.Status != content.StatusActive {
		return nil, apperror.NotFound("Content not found")
	}
	return s.Repo.Comments(ctx, contentID)
}

// AddComment posts a comment, or a reply when ParentID names a comment on
// the same item, and tells the author unless they wrote it themselves.
func (s *EngagementService) AddComment(ctx context.Context, user *access.Principal, contentID int64, contentType string, req model.CommentRequest) (int64, error) {
	if !access.HasPermission(user, access.BlogComment, 0) {
		return 0, apperror.Forbidden("Access denied")
	}
	text := req.Text()
	if text == "" {
		return 0, apperror.Invalid("Comment content is required")
	}
	if len(text) > maxCommentLength {
		return 0, apperror.Invalid(fmt.Sprintf("Comment must be at most %d characters", maxCommentLength))
	}
	t, err := s.target(ctx, contentID, contentType)
	if err != nil {
		return 0, err
	}
	if t.Status != content.StatusActive {
		return 0, apperror.Invalid("Cannot comment on inactive content")
	}
	if req.ParentID != nil {
		_, parentContent, err := s.Repo.CommentOwner(ctx, *req.ParentID)
		if err == sql.ErrNoRows || (err == nil && parentContent != contentID) {
			return 0, apperror.Invalid("Parent comment not found")
		}
		if err != nil {
			return 0, err
		}
	}

	id, err := s.Repo.AddComment(ctx, contentID, user.ID, req.ParentID, text)
	if err != nil {
		return 0, err
	}
	metrics.CommentsPosted.Inc()
	logger.Sugar.Infof("User %d commented on content %d", user.ID, contentID)

	if t.OwnerID != user.ID && s.Notifier != nil {
		label := strings.ReplaceAll(t.ContentType, "_", " ")
		n := notification.New{
			UserID:           t.OwnerID,
			Type:             notification.TypeContentComment,
			Title:            "New Comment on Your " + label,
			Message:          fmt.Sprintf("%s commented on your %s: %s", s.Repo.UserName(ctx, user.ID), strings.ToLower(label), t.Title),
			RelatedContentID: &contentID,
			ActionURL:        fmt.Sprintf("/content/%d", contentID),
		}
		if err := s.Notifier.Notify(ctx, n); err != nil {
			logger.Sugar.Warnf("Failed to notify author of content %d: %v", contentID, err)
		}
	}
	return id, nil
}

// DeleteComment hides a comment. Authors may remove their own, admins any.
func (s *EngagementService) DeleteComment(ctx context.Context, user *access.Principal, commentID int64) error {
	owner, _, err := s.Repo.CommentOwner(ctx, commentID)
	if err == sql.ErrNoRows {
		return apperror.NotFound("Comment not found")
	}
	if err != nil {
		return err
	}
	if user == nil || (user.ID != owner && user.Role != access.RoleAdmin) {
		return apperror.Forbidden("You can only delete your own comments")
	}
	return s.Repo.DeleteComment(ctx, commentID)
}

func (s *EngagementService) ToggleLike(ctx context.Context, user *access.Principal, contentID int64) (model.LikeState, error) {
	if !access.HasPermission(user, access.ContentReadPublic, 0) {
		return model.LikeState{}, apperror.Forbidden("Access denied")
	}
	t, err := s.Repo.Target(ctx, contentID)
	if err == sql.ErrNoRows || (err == nil && t.Status != content.StatusActive) {
		return model.LikeState{}, apperror.NotFound("Content not found or inactive")
	}
	if err != nil {
		return model.LikeState{}, err
	}

	liked, err := s.Repo.ToggleLike(ctx, user.ID, contentID)
	if err != nil {
		return model.LikeState{}, err
	}
	state := model.LikeState{Action: model.ActionUnliked}
	if liked {
		state.Action = model.ActionLiked
	}
	metrics.LikesToggled.WithLabelValues(state.Action).Inc()

	if state.IsLiked, state.LikeCount, err = s.Repo.Likes(ctx, user.ID, contentID); err != nil {
		return model.LikeState{}, err
	}
	return state, nil
}

func (s *EngagementService) LikeStatus(ctx context.Context, user *access.Principal, contentID int64) (model.LikeState, error) {
	if _, err := s.target(ctx, contentID, ""); err != nil {
		return model.LikeState{}, err
	}
	var userID int64
	if user != nil {
		userID = user.ID
	}
	liked, count, err := s.Repo.Likes(ctx, userID, contentID)
	if err != nil {
		return model.LikeState{}, err
	}
	return model.LikeState{IsLiked: liked, LikeCount: count}, nil
}
