package repository

import (
	"context"
	"database/sql"

	"lawfort/internal/engagement/model"
	"lawfort/pkg/logger"
)

type EngagementRepository struct {
	DB *sql.DB
}

func NewEngagementRepository(db *sql.DB) *EngagementRepository {
	return &EngagementRepository{DB: db}
}

func (r *EngagementRepository) Target(ctx context.Context, contentID int64) (model.Target, error) {
	var t model.Target
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, title, content_type, status FROM content WHERE id = $1`, contentID,
	).Scan(&t.OwnerID, &t.Title, &t.ContentType, &t.Status)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load content %d: %v", contentID, err)
	}
	return t, err
}

func (r *EngagementRepository) Comments(ctx context.Context, contentID int64) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT cc.id, cc.content_id, cc.user_id, COALESCE(u.full_name, ''), cc.parent_id, cc.body, cc.created_at
		 FROM content_comments cc LEFT JOIN users u ON u.id = cc.user_id
		 WHERE cc.content_id = $1 AND cc.status = 'Active'
		 ORDER BY cc.created_at ASC, cc.id ASC`, contentID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list comments of content %d: %v", contentID, err)
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.ContentID, &c.UserID, &c.AuthorName, &parent, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		if parent.Valid {
			p := parent.Int64
			c.ParentID = &p
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CommentOwner returns the author and content of a live comment, or
// sql.ErrNoRows.
func (r *EngagementRepository) CommentOwner(ctx context.Context, commentID int64) (userID, contentID int64, err error) {
	err = r.DB.QueryRowContext(ctx,
		`SELECT user_id, content_id FROM content_comments WHERE id = $1 AND status = 'Active'`, commentID,
	).Scan(&userID, &contentID)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load comment %d: %v", commentID, err)
	}
	return userID, contentID, err
}

func (r *EngagementRepository) AddComment(ctx context.Context, contentID, userID int64, parentID *int64, body string) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO content_comments (content_id, user_id, parent_id, body) VALUES ($1, $2, $3, $4) RETURNING id`,
		contentID, userID, parentID, body,
	).Scan(&id)
	if err != nil {
		logger.Sugar.Errorf("Failed to add comment to content %d: %v", contentID, err)
	}
	return id, err
}

func (r *EngagementRepository) DeleteComment(ctx context.Context, commentID int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE content_comments SET status = 'Deleted' WHERE id = $1`, commentID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete comment %d: %v", commentID, err)
	}
	return err
}

// ToggleLike removes the user's like when present and adds it otherwise.
// It reports whether the content is liked afterwards.
func (r *EngagementRepository) ToggleLike(ctx context.Context, userID, contentID int64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM content_likes WHERE user_id = $1 AND content_id = $2`, userID, contentID)
	if err != nil {
		logger.Sugar.Errorf("Failed to unlike content %d for user %d: %v", contentID, userID, err)
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	if _, err := r.DB.ExecContext(ctx,
		`INSERT INTO content_likes (user_id, content_id) VALUES ($1, $2) ON CONFLICT (user_id, content_id) DO NOTHING`,
		userID, contentID); err != nil {
		logger.Sugar.Errorf("Failed to like content %d for user %d: %v", contentID, userID, err)
		return false, err
	}
	return true, nil
}

// Likes returns the like total of contentID and whether userID is among
// them. userID 0 never matches.
func (r *EngagementRepository) Likes(ctx context.Context, userID, contentID int64) (liked bool, count int, err error) {
	err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(BOOL_OR(user_id = $2), FALSE) FROM content_likes WHERE content_id = $1`,
		contentID, userID,
	).Scan(&count, &liked)
	if err != nil {
		logger.Sugar.Errorf("Failed to count likes of content %d: %v", contentID, err)
	}
	return liked, count, err
}

func (r *EngagementRepository) UserName(ctx context.Context, userID int64) string {
	var name string
	if err := r.DB.QueryRowContext(ctx, `SELECT full_name FROM users WHERE id = $1`, userID).Scan(&name); err != nil || name == "" {
		return "Someone"
	}
	return name
}
