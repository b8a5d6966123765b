package repository

import (
	"context"
	"database/sql"
	"fmt"

	"lawfort/config/database"
	"lawfort/internal/library/model"
	"lawfort/pkg/logger"
)

type LibraryRepository struct {
	DB *sql.DB
}

func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{DB: db}
}

func (r *LibraryRepository) Target(ctx context.Context, contentID int64) (model.Target, error) {
	var t model.Target
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, title, content_type, status FROM content WHERE id = $1`, contentID,
	).Scan(&t.OwnerID, &t.Title, &t.ContentType, &t.Status)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load content %d for saving: %v", contentID, err)
	}
	return t, err
}

// Save adds contentID to the user's library. It returns sql.ErrNoRows when
// the item was already saved.
func (r *LibraryRepository) Save(ctx context.Context, userID, contentID int64, notes string) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO saved_content (user_id, content_id, notes) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, content_id) DO NOTHING
		 RETURNING id`,
		userID, contentID, notes,
	).Scan(&id)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to save content %d for user %d: %v", contentID, userID, err)
	}
	return id, err
}

func (r *LibraryRepository) Delete(ctx context.Context, userID, contentID int64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM saved_content WHERE user_id = $1 AND content_id = $2`, userID, contentID)
	if err != nil {
		logger.Sugar.Errorf("Failed to unsave content %d for user %d: %v", contentID, userID, err)
		return 0, err
	}
	return res.RowsAffected()
}

var sortOrders = map[string]string{
	"recent": "s.saved_at DESC",
	"oldest": "s.saved_at ASC",
	"title":  "c.title ASC",
	"author": "u.full_name ASC",
}

const fromSaved = ` FROM saved_content s
	JOIN content c ON c.id = s.content_id
	LEFT JOIN users u ON u.id = c.user_id
	WHERE s.user_id = $1 AND c.status = 'Active'`

func (r *LibraryRepository) List(ctx context.Context, userID int64, f model.Filter) ([]model.Entry, int, error) {
	clause := fromSaved
	args := []interface{}{userID}
	if f.ContentType != "" {
		args = append(args, f.ContentType)
		clause += fmt.Sprintf(` AND c.content_type = $%d`, len(args))
	}
	if f.Search != "" {
		args = append(args, database.Contains(f.Search))
		n := len(args)
		clause += fmt.Sprintf(` AND (c.title ILIKE $%d ESCAPE '\' OR u.full_name ILIKE $%d ESCAPE '\' OR c.summary ILIKE $%d ESCAPE '\')`, n, n, n)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*)`+clause, args...).Scan(&total); err != nil {
		logger.Sugar.Errorf("Failed to count saved content of user %d: %v", userID, err)
		return nil, 0, err
	}

	order, ok := sortOrders[f.Sort]
	if !ok {
		order = sortOrders["recent"]
	}
	args = append(args, f.Limit, f.Offset)
	query := `SELECT s.id, s.content_id, s.notes, s.saved_at, c.title, c.summary, c.content_type, c.category,
		COALESCE(u.full_name, ''), c.created_at` + clause +
		fmt.Sprintf(` ORDER BY %s LIMIT $%d OFFSET $%d`, order, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list saved content of user %d: %v", userID, err)
		return nil, 0, err
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.SaveID, &e.ContentID, &e.Notes, &e.SavedAt, &e.Title, &e.Summary,
			&e.ContentType, &e.Category, &e.AuthorName, &e.ContentCreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// SaverName is the display name used in the author's notification.
func (r *LibraryRepository) SaverName(ctx context.Context, userID int64) string {
	var name string
	if err := r.DB.QueryRowContext(ctx, `SELECT full_name FROM users WHERE id = $1`, userID).Scan(&name); err != nil || name == "" {
		return "Someone"
	}
	return name
}
