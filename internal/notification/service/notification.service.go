package service

import (
	"context"

	"lawfort/internal/access"
	"lawfort/internal/notification/model"
	"lawfort/internal/notification/repository"
	"lawfort/pkg/apperror"
	"lawfort/pkg/logger"
	"lawfort/pkg/request"
	"lawfort/socket"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Publisher pushes a message to a user's live connections.
type Publisher interface {
	Publish(userID int64, msgType string, payload interface{}) error
}

type NotificationService struct {
	Repo *repository.NotificationRepository
	Hub  Publisher
}

func NewNotificationService(repo *repository.NotificationRepository, hub Publisher) *NotificationService {
	return &NotificationService{Repo: repo, Hub: hub}
}

// Notify stores n and pushes it to the recipient if they are connected.
func (s *NotificationService) Notify(ctx context.Context, n model.New) error {
	created, err := s.Repo.Create(ctx, n)
	if err != nil {
		return err
	}
	s.push(created.UserID, socket.NotificationType, created)
	return nil
}

// NotifyRoles sends n to every active user with one of roles.
func (s *NotificationService) NotifyRoles(ctx context.Context, roles []access.Role, n model.New) error {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	created, err := s.Repo.CreateForRoles(ctx, names, n)
	if err != nil {
		return err
	}
	for _, c := range created {
		s.push(c.UserID, socket.NotificationType, c)
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) (model.Page, error) {
	limit, offset = request.Page(limit, offset, defaultLimit, maxLimit)
	items, err := s.Repo.List(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return model.Page{}, err
	}
	total, unread, err := s.Repo.Counts(ctx, userID)
	if err != nil {
		return model.Page{}, err
	}
	if unreadOnly {
		total = unread
	}
	return model.Page{Notifications: items, Total: total, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	n, err := s.Repo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Notification not found")
	}
	s.push(userID, socket.NotificationReadType, map[string]int64{"notification_id": id})
	return nil
}

// MarkAllRead returns how many notifications changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.Repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.push(userID, socket.NotificationReadType, map[string]bool{"all": true})
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id int64) error {
	n, err := s.Repo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Notification not found")
	}
	return nil
}

func (s *NotificationService) push(userID int64, msgType string, payload interface{}) {
	if s.Hub == nil {
		return
	}
	if err := s.Hub.Publish(userID, msgType, payload); err != nil {
		logger.Sugar.Warnf("Failed to push %s to user %d: %v", msgType, userID, err)
	}
}
