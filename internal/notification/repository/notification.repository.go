package repository

import (
	"context"
	"database/sql"

	"lawfort/internal/notification/model"
	"lawfort/pkg/logger"

	"github.com/lib/pq"
)

type NotificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n model.New) (model.Notification, error) {
	out := model.Notification{
		UserID:           n.UserID,
		Type:             n.Type,
		Title:            n.Title,
		Message:          n.Message,
		RelatedContentID: n.RelatedContentID,
		ActionURL:        n.ActionURL,
	}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, related_content_id, action_url)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		n.UserID, n.Type, n.Title, n.Message, n.RelatedContentID, n.ActionURL,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create notification for user %d: %v", n.UserID, err)
	}
	return out, err
}

// CreateForRoles fans one notification out to every active user holding
// one of roles.
func (r *NotificationRepository) CreateForRoles(ctx context.Context, roles []string, n model.New) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		`INSERT INTO notifications (user_id, type, title, message, related_content_id, action_url)
		 SELECT id, $2, $3, $4, $5, $6 FROM users WHERE role = ANY($1) AND status = 'Active'
		 RETURNING id, user_id, created_at`,
		pq.Array(roles), n.Type, n.Title, n.Message, n.RelatedContentID, n.ActionURL,
	)
	if err != nil {
		logger.Sugar.Errorf("Failed to notify roles %v: %v", roles, err)
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		item := model.Notification{
			Type:             n.Type,
			Title:            n.Title,
			Message:          n.Message,
			RelatedContentID: n.RelatedContentID,
			ActionURL:        n.ActionURL,
		}
		if err := rows.Scan(&item.ID, &item.UserID, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, type, title, message, is_read, related_content_id, action_url, created_at
		 FROM notifications
		 WHERE user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		userID, unreadOnly, limit, offset)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notifications for user %d: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		var related sql.NullInt64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &related, &n.ActionURL, &n.CreatedAt); err != nil {
			return nil, err
		}
		if related.Valid {
			n.RelatedContentID = &related.Int64
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Counts returns the total and unread number of notifications of a user.
func (r *NotificationRepository) Counts(ctx context.Context, userID int64) (total, unread int, err error) {
	err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_read = FALSE) FROM notifications WHERE user_id = $1`,
		userID).Scan(&total, &unread)
	if err != nil {
		logger.Sugar.Errorf("Failed to count notifications for user %d: %v", userID, err)
	}
	return total, unread, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to mark notification %d read: %v", id, err)
		return 0, err
	}
	return res.RowsAffected()
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to mark notifications read for user %d: %v", userID, err)
		return 0, err
	}
	return res.RowsAffected()
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete notification %d: %v", id, err)
		return 0, err
	}
	return res.RowsAffected()
}
