package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"lawfort/config/database"
	"lawfort/internal/content/model"
	"lawfort/pkg/logger"

	"github.com/lib/pq"
)

type ContentRepository struct {
	DB *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{DB: db}
}

const itemColumns = `c.id, c.user_id, COALESCE(u.full_name, ''), c.content_type, c.title, c.summary, c.body,
	c.tags, c.category, c.featured_image, c.status, c.is_featured, c.views, c.created_at, c.updated_at,
	c.company_name, c.location, c.position_type, c.salary_range, c.experience_required,
	c.application_deadline, c.contact_email, c.authors, c.abstract, c.keywords, c.instructor,
	c.duration, c.file_url`

const fromContent = ` FROM content c LEFT JOIN users u ON u.id = c.user_id`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(s scanner) (model.Item, error) {
	var it model.Item
	var deadline sql.NullTime
	err := s.Scan(
		&it.ID, &it.UserID, &it.AuthorName, &it.ContentType, &it.Title, &it.Summary, &it.Body,
		&it.Tags, &it.Category, &it.FeaturedImage, &it.Status, &it.IsFeatured, &it.Views, &it.CreatedAt, &it.UpdatedAt,
		&it.CompanyName, &it.Location, &it.PositionType, &it.SalaryRange, &it.ExperienceRequired,
		&deadline, &it.ContactEmail, &it.Authors, &it.Abstract, &it.Keywords, &it.Instructor,
		&it.Duration, &it.FileURL,
	)
	if deadline.Valid {
		d := deadline.Time
		it.ApplicationDeadline = &d
	}
	return it, err
}

var sortOrders = map[string]string{
	"newest": "c.is_featured DESC, c.created_at DESC",
	"oldest": "c.created_at ASC",
	"title":  "c.title ASC",
}

// where renders the filter as a WHERE clause with positional args.
func where(f model.Filter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Type != "" {
		add("c.content_type = $%d", f.Type)
	}
	if f.Status != "" {
		add("c.status = $%d", f.Status)
	} else {
		conds = append(conds, "c.status <> 'Deleted'")
	}
	if f.Category != "" {
		add("c.category = $%d", f.Category)
	}
	if f.Search != "" {
		args = append(args, database.Contains(f.Search))
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(c.title ILIKE $%d ESCAPE '\' OR c.summary ILIKE $%d ESCAPE '\' OR c.tags ILIKE $%d ESCAPE '\')`, n, n, n))
	}
	if f.Company != "" {
		add(`c.company_name ILIKE $%d ESCAPE '\'`, database.Contains(f.Company))
	}
	if f.Location != "" {
		add(`c.location ILIKE $%d ESCAPE '\'`, database.Contains(f.Location))
	}
	if f.PositionType != "" {
		add("c.position_type = $%d", f.PositionType)
	}
	if f.Featured {
		conds = append(conds, "c.is_featured = TRUE")
	}
	if f.AuthorID != 0 {
		add("c.user_id = $%d", f.AuthorID)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of items matching f and the total match count.
func (r *ContentRepository) List(ctx context.Context, f model.Filter) ([]model.Item, int, error) {
	clause, args := where(f)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM content c`+clause, args...).Scan(&total); err != nil {
		logger.Sugar.Errorf("Failed to count %s content: %v", f.Type, err)
		return nil, 0, err
	}

	order, ok := sortOrders[f.Sort]
	if !ok {
		order = sortOrders["newest"]
	}
	args = append(args, f.Limit, f.Offset)
	query := `SELECT ` + itemColumns + fromContent + clause +
		fmt.Sprintf(` ORDER BY %s LIMIT $%d OFFSET $%d`, order, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list %s content: %v", f.Type, err)
		return nil, 0, err
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// Get loads an item in any status.
func (r *ContentRepository) Get(ctx context.Context, id int64) (model.Item, error) {
	it, err := scanItem(r.DB.QueryRowContext(ctx, `SELECT `+itemColumns+fromContent+` WHERE c.id = $1`, id))
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load content %d: %v", id, err)
	}
	return it, err
}

func (r *ContentRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE content SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to count view of content %d: %v", id, err)
	}
	return err
}

func (r *ContentRepository) Create(ctx context.Context, it model.Item) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO content (user_id, content_type, title, summary, body, tags, category, featured_image,
			status, is_featured, company_name, location, position_type, salary_range, experience_required,
			application_deadline, contact_email, authors, abstract, keywords, instructor, duration, file_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		 RETURNING id`,
		it.UserID, it.ContentType, it.Title, it.Summary, it.Body, it.Tags, it.Category, it.FeaturedImage,
		it.Status, it.IsFeatured, it.CompanyName, it.Location, it.PositionType, it.SalaryRange, it.ExperienceRequired,
		it.ApplicationDeadline, it.ContactEmail, it.Authors, it.Abstract, it.Keywords, it.Instructor, it.Duration, it.FileURL,
	).Scan(&id)
	if err != nil {
		logger.Sugar.Errorf("Failed to create %s: %v", it.ContentType, err)
	}
	return id, err
}

// CreateTx is Create inside a caller's transaction.
func (r *ContentRepository) CreateTx(ctx context.Context, tx *sql.Tx, it model.Item) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO content (user_id, content_type, title, summary, body, tags, category, status,
			authors, abstract, keywords, file_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		it.UserID, it.ContentType, it.Title, it.Summary, it.Body, it.Tags, it.Category, it.Status,
		it.Authors, it.Abstract, it.Keywords, it.FileURL,
	).Scan(&id)
	if err != nil {
		logger.Sugar.Errorf("Failed to create %s: %v", it.ContentType, err)
	}
	return id, err
}

func (r *ContentRepository) Update(ctx context.Context, it model.Item) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE content SET title = $2, summary = $3, body = $4, tags = $5, category = $6, featured_image = $7,
			status = $8, is_featured = $9, company_name = $10, location = $11, position_type = $12,
			salary_range = $13, experience_required = $14, application_deadline = $15, contact_email = $16,
			authors = $17, abstract = $18, keywords = $19, instructor = $20, duration = $21, file_url = $22,
			updated_at = NOW()
		 WHERE id = $1`,
		it.ID, it.Title, it.Summary, it.Body, it.Tags, it.Category, it.FeaturedImage,
		it.Status, it.IsFeatured, it.CompanyName, it.Location, it.PositionType,
		it.SalaryRange, it.ExperienceRequired, it.ApplicationDeadline, it.ContactEmail,
		it.Authors, it.Abstract, it.Keywords, it.Instructor, it.Duration, it.FileURL,
	)
	if err != nil {
		logger.Sugar.Errorf("Failed to update content %d: %v", it.ID, err)
	}
	return err
}

func (r *ContentRepository) SetStatus(ctx context.Context, id int64, status string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE content SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		logger.Sugar.Errorf("Failed to set status of content %d: %v", id, err)
	}
	return err
}

// SavedIDs reports which of ids userID has in their library.
func (r *ContentRepository) SavedIDs(ctx context.Context, userID int64, ids []int64) (map[int64]bool, error) {
	return r.idSet(ctx, `SELECT content_id FROM saved_content WHERE user_id = $1 AND content_id = ANY($2)`, userID, ids)
}

// AppliedIDs reports which of the postings ids userID applied to.
func (r *ContentRepository) AppliedIDs(ctx context.Context, userID int64, ids []int64) (map[int64]bool, error) {
	return r.idSet(ctx, `SELECT position_id FROM applications WHERE user_id = $1 AND position_id = ANY($2)`, userID, ids)
}

func (r *ContentRepository) idSet(ctx context.Context, query string, userID int64, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.DB.QueryContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		logger.Sugar.Errorf("Failed to look up viewer state for user %d: %v", userID, err)
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}
