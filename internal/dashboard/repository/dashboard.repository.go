package repository

import (
	"context"
	"database/sql"

	"lawfort/internal/dashboard/model"
	"lawfort/pkg/logger"
)

// DashboardRepository reads aggregates only. Owner-scoped queries take
// ownerID 0 to mean every author.
type DashboardRepository struct {
	DB *sql.DB
}

func NewDashboardRepository(db *sql.DB) *DashboardRepository {
	return &DashboardRepository{DB: db}
}

func (r *DashboardRepository) UserCounts(ctx context.Context, userID int64) (model.UserCounts, error) {
	var c model.UserCounts
	err := r.DB.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM applications WHERE user_id = $1),
			(SELECT COUNT(*) FROM applications WHERE user_id = $1 AND status IN ('Pending', 'Reviewed')),
			(SELECT COUNT(*) FROM research_reviews r JOIN content c ON c.id = r.content_id
			  WHERE c.user_id = $1 AND c.status <> 'Deleted'),
			(SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE)`, userID,
	).Scan(&c.Applications, &c.PendingApplications, &c.Submissions, &c.UnreadNotifications)
	if err != nil {
		logger.Sugar.Errorf("Failed to load dashboard counts of user %d: %v", userID, err)
	}
	return c, err
}

// SavedByType counts the user's saved Active items per content type.
func (r *DashboardRepository) SavedByType(ctx context.Context, userID int64) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT c.content_type, COUNT(*) FROM saved_content s JOIN content c ON c.id = s.content_id
		 WHERE s.user_id = $1 AND c.status = 'Active'
		 GROUP BY c.content_type`, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to count saved content of user %d: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var contentType string
		var n int
		if err := rows.Scan(&contentType, &n); err != nil {
			return nil, err
		}
		out[contentType] = n
	}
	return out, rows.Err()
}

func (r *DashboardRepository) RecentApplications(ctx context.Context, userID int64, limit int) ([]model.RecentApplication, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT a.id, a.position_id, c.title, c.company_name, a.kind, a.status, a.applied_at
		 FROM applications a JOIN content c ON c.id = a.position_id
		 WHERE a.user_id = $1
		 ORDER BY a.applied_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		logger.Sugar.Errorf("Failed to list recent applications of user %d: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	apps := []model.RecentApplication{}
	for rows.Next() {
		var a model.RecentApplication
		if err := rows.Scan(&a.ApplicationID, &a.PositionID, &a.Title, &a.CompanyName, &a.Type, &a.Status, &a.AppliedAt); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (r *DashboardRepository) TypeStats(ctx context.Context, ownerID int64) ([]model.TypeStats, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT c.content_type, COUNT(*), COUNT(*) FILTER (WHERE c.status = 'Active'), COALESCE(SUM(c.views), 0),
			COALESCE(SUM(l.n), 0), COALESCE(SUM(cm.n), 0), COALESCE(SUM(s.n), 0)
		 FROM content c
		 LEFT JOIN (SELECT content_id, COUNT(*) AS n FROM content_likes GROUP BY content_id) l ON l.content_id = c.id
		 LEFT JOIN (SELECT content_id, COUNT(*) AS n FROM content_comments WHERE status = 'Active' GROUP BY content_id) cm ON cm.content_id = c.id
		 LEFT JOIN (SELECT content_id, COUNT(*) AS n FROM saved_content GROUP BY content_id) s ON s.content_id = c.id
		 WHERE c.status <> 'Deleted' AND ($1::BIGINT = 0 OR c.user_id = $1)
		 GROUP BY c.content_type
		 ORDER BY c.content_type`, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to aggregate content of user %d: %v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	stats := []model.TypeStats{}
	for rows.Next() {
		var s model.TypeStats
		if err := rows.Scan(&s.ContentType, &s.Count, &s.ActiveCount, &s.Views, &s.Likes, &s.Comments, &s.Saves); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ApplicationStats counts applications to postings owned by ownerID.
func (r *DashboardRepository) ApplicationStats(ctx context.Context, ownerID int64) (model.ApplicationStats, error) {
	var s model.ApplicationStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE a.status IN ('Pending', 'Reviewed')),
			COUNT(*) FILTER (WHERE a.kind = 'Job'), COUNT(*) FILTER (WHERE a.kind = 'Internship')
		 FROM applications a JOIN content c ON c.id = a.position_id
		 WHERE c.status <> 'Deleted' AND ($1::BIGINT = 0 OR c.user_id = $1)`, ownerID,
	).Scan(&s.Total, &s.Pending, &s.Jobs, &s.Internships)
	if err != nil {
		logger.Sugar.Errorf("Failed to count applications for user %d: %v", ownerID, err)
	}
	return s, err
}

const summaryColumns = `c.id, c.title, c.content_type, c.status, c.views, c.created_at,
	(SELECT COUNT(*) FROM content_likes l WHERE l.content_id = c.id),
	(SELECT COUNT(*) FROM content_comments cm WHERE cm.content_id = c.id AND cm.status = 'Active'),
	(SELECT COUNT(*) FROM saved_content s WHERE s.content_id = c.id),
	(SELECT COUNT(*) FROM applications a WHERE a.position_id = c.id)`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row scanner, extra ...interface{}) (model.Summary, error) {
	var s model.Summary
	dest := append([]interface{}{&s.ContentID, &s.Title, &s.ContentType, &s.Status, &s.Views, &s.CreatedAt,
		&s.Likes, &s.Comments, &s.Saves, &s.Applications}, extra...)
	err := row.Scan(dest...)
	return s, err
}

// RecentContent returns the newest items of ownerID with their engagement.
func (r *DashboardRepository) RecentContent(ctx context.Context, ownerID int64, limit int) ([]model.Summary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM content c
		 WHERE c.status <> 'Deleted' AND ($1::BIGINT = 0 OR c.user_id = $1)
		 ORDER BY c.created_at DESC LIMIT $2`, ownerID, limit)
	if err != nil {
		logger.Sugar.Errorf("Failed to list recent content of user %d: %v", ownerID, err)
		return nil, err
	}
	defer rows.Close()

	out := []model.Summary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Summary loads the engagement of one live item and its owner, or
// sql.ErrNoRows.
func (r *DashboardRepository) Summary(ctx context.Context, contentID int64) (model.Summary, int64, error) {
	var owner int64
	s, err := scanSummary(r.DB.QueryRowContext(ctx,
		`SELECT `+summaryColumns+`, c.user_id FROM content c WHERE c.id = $1 AND c.status <> 'Deleted'`, contentID), &owner)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load metrics of content %d: %v", contentID, err)
	}
	return s, owner, err
}
