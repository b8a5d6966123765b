package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lawfort/config/database"
	"lawfort/internal/application/model"
	"lawfort/pkg/logger"

	"github.com/lib/pq"
)

var ErrAlreadyApplied = errors.New("already applied")

type ApplicationRepository struct {
	DB *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{DB: db}
}

const applicationColumns = `a.id, a.position_id, a.user_id, a.kind, a.status, a.resume_url, a.cover_letter,
	a.admin_notes, a.applied_at, a.reviewed_by, a.reviewed_at, c.title, c.company_name, c.location,
	c.position_type, c.user_id, COALESCE(u.full_name, ''), COALESCE(u.email, '')`

const fromApplications = ` FROM applications a
	JOIN content c ON c.id = a.position_id
	LEFT JOIN users u ON u.id = a.user_id`

// researchColumns shapes research submissions like applications so both
// can share one admin listing.
const researchColumns = `r.content_id, r.content_id, c.user_id, 'Research_Paper', r.status, '', r.comments,
	r.comments, r.submitted_at AS applied_at, r.reviewer_id, r.reviewed_at, c.title, 'Research Submission', 'Academic',
	'Research Paper', c.user_id, COALESCE(u.full_name, ''), COALESCE(u.email, '')`

const fromResearch = ` FROM research_reviews r
	JOIN content c ON c.id = r.content_id
	LEFT JOIN users u ON u.id = c.user_id`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(s scanner) (model.Application, error) {
	var a model.Application
	var reviewedBy sql.NullInt64
	var reviewedAt sql.NullTime
	err := s.Scan(&a.ID, &a.PositionID, &a.UserID, &a.Type, &a.Status, &a.ResumeURL, &a.CoverLetter,
		&a.Notes, &a.AppliedAt, &reviewedBy, &reviewedAt, &a.PositionTitle, &a.CompanyName, &a.Location,
		&a.PositionType, &a.PositionOwnerID, &a.ApplicantName, &a.ApplicantEmail)
	if reviewedBy.Valid {
		a.ReviewedBy = &reviewedBy.Int64
	}
	if reviewedAt.Valid {
		a.ReviewedAt = &reviewedAt.Time
	}
	return a, err
}

func (r *ApplicationRepository) query(ctx context.Context, what, query string, args ...interface{}) ([]model.Application, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list %s: %v", what, err)
		return nil, err
	}
	defer rows.Close()

	out := []model.Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create stores a new application. A second application by the same user
// for the same posting yields ErrAlreadyApplied.
func (r *ApplicationRepository) Create(ctx context.Context, positionID, userID int64, kind string, req model.ApplyRequest) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO applications (position_id, user_id, kind, resume_url, cover_letter)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		positionID, userID, kind, req.ResumeURL, req.CoverLetter,
	).Scan(&id)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return 0, ErrAlreadyApplied
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to create application of user %d for %d: %v", userID, positionID, err)
	}
	return id, err
}

func (r *ApplicationRepository) Find(ctx context.Context, id int64) (model.Application, error) {
	a, err := scanApplication(r.DB.QueryRowContext(ctx,
		`SELECT `+applicationColumns+fromApplications+` WHERE a.id = $1`, id))
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load application %d: %v", id, err)
	}
	return a, err
}

// ForUser returns the user's application to a posting, or sql.ErrNoRows.
func (r *ApplicationRepository) ForUser(ctx context.Context, userID, positionID int64) (model.Application, error) {
	a, err := scanApplication(r.DB.QueryRowContext(ctx,
		`SELECT `+applicationColumns+fromApplications+` WHERE a.user_id = $1 AND a.position_id = $2`, userID, positionID))
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load application of user %d for %d: %v", userID, positionID, err)
	}
	return a, err
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int64, status, notes string, reviewerID int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE applications SET status = $2, admin_notes = $3, reviewed_by = $4, reviewed_at = NOW() WHERE id = $1`,
		id, status, notes, reviewerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to update application %d: %v", id, err)
	}
	return err
}

func (r *ApplicationRepository) ListByApplicant(ctx context.Context, userID int64, kind string) ([]model.Application, error) {
	return r.query(ctx, "applications of user",
		`SELECT `+applicationColumns+fromApplications+` WHERE a.user_id = $1 AND a.kind = $2 ORDER BY a.applied_at DESC`,
		userID, kind)
}

func (r *ApplicationRepository) ListByPositionOwner(ctx context.Context, ownerID int64, kind string) ([]model.Application, error) {
	return r.query(ctx, "applications for owner",
		`SELECT `+applicationColumns+fromApplications+` WHERE c.user_id = $1 AND a.kind = $2 ORDER BY a.applied_at DESC`,
		ownerID, kind)
}

// AdminFilter is the resolved admin listing filter.
type AdminFilter struct {
	Kinds    []string
	Research bool
	Status   string
	Company  string
	DateFrom sql.NullTime
	DateTo   sql.NullTime
	Limit    int
	Offset   int
}

// ListAll merges applications and research submissions, newest first.
func (r *ApplicationRepository) ListAll(ctx context.Context, f AdminFilter) ([]model.Application, int, error) {
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	var parts []string
	if len(f.Kinds) > 0 {
		conds := []string{"a.kind = ANY(" + arg(pq.Array(f.Kinds)) + ")"}
		if f.Status != "" {
			conds = append(conds, "a.status = "+arg(f.Status))
		}
		if f.Company != "" {
			conds = append(conds, "c.company_name ILIKE "+arg(database.Contains(f.Company))+` ESCAPE '\'`)
		}
		if f.DateFrom.Valid {
			conds = append(conds, "a.applied_at >= "+arg(f.DateFrom.Time))
		}
		if f.DateTo.Valid {
			conds = append(conds, "a.applied_at < "+arg(f.DateTo.Time))
		}
		parts = append(parts, `SELECT `+applicationColumns+fromApplications+` WHERE `+strings.Join(conds, " AND "))
	}
	if f.Research {
		conds := []string{"c.content_type = 'Research_Paper'"}
		if f.Status != "" {
			conds = append(conds, "r.status = "+arg(f.Status))
		}
		if f.DateFrom.Valid {
			conds = append(conds, "r.submitted_at >= "+arg(f.DateFrom.Time))
		}
		if f.DateTo.Valid {
			conds = append(conds, "r.submitted_at < "+arg(f.DateTo.Time))
		}
		parts = append(parts, `SELECT `+researchColumns+fromResearch+` WHERE `+strings.Join(conds, " AND "))
	}
	if len(parts) == 0 {
		return []model.Application{}, 0, nil
	}
	union := strings.Join(parts, " UNION ALL ")

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM (`+union+`) apps`, args...).Scan(&total); err != nil {
		logger.Sugar.Errorf("Failed to count applications: %v", err)
		return nil, 0, err
	}

	limit, offset := arg(f.Limit), arg(f.Offset)
	items, err := r.query(ctx, "all applications",
		`SELECT * FROM (`+union+`) apps ORDER BY applied_at DESC LIMIT `+limit+` OFFSET `+offset, args...)
	return items, total, err
}

// ApplicantName is the display name used in notifications.
func (r *ApplicationRepository) ApplicantName(ctx context.Context, userID int64) string {
	var name string
	if err := r.DB.QueryRowContext(ctx, `SELECT full_name FROM users WHERE id = $1`, userID).Scan(&name); err != nil || name == "" {
		return "Someone"
	}
	return name
}

const submissionColumns = `r.id, c.id, c.title, c.summary, c.authors, c.abstract, c.keywords, r.status,
	r.comments, r.submitted_at, r.reviewed_at, COALESCE(u.full_name, ''), COALESCE(u.email, '')`

func (r *ApplicationRepository) submissions(ctx context.Context, query string, args ...interface{}) ([]model.Submission, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list research submissions: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		var reviewedAt sql.NullTime
		if err := rows.Scan(&s.ReviewID, &s.ContentID, &s.Title, &s.Summary, &s.Authors, &s.Abstract, &s.Keywords,
			&s.Status, &s.Comments, &s.SubmittedAt, &reviewedAt, &s.AuthorName, &s.AuthorEmail); err != nil {
			return nil, err
		}
		if reviewedAt.Valid {
			s.ReviewedAt = &reviewedAt.Time
		}
		s.DisplayStatus = model.DisplayStatusFor(s.Status)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ApplicationRepository) SubmissionsByAuthor(ctx context.Context, authorID int64) ([]model.Submission, error) {
	return r.submissions(ctx, `SELECT `+submissionColumns+fromResearch+`
		WHERE c.user_id = $1 AND c.status <> 'Deleted' ORDER BY r.submitted_at DESC`, authorID)
}

func (r *ApplicationRepository) PendingReviews(ctx context.Context) ([]model.Submission, error) {
	return r.submissions(ctx, `SELECT `+submissionColumns+fromResearch+`
		WHERE r.status = 'Pending' AND c.status <> 'Deleted' ORDER BY r.submitted_at ASC`)
}

func (r *ApplicationRepository) CreateReviewTx(ctx context.Context, tx *sql.Tx, contentID int64) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO research_reviews (content_id) VALUES ($1)`, contentID)
	if err != nil {
		logger.Sugar.Errorf("Failed to open review for content %d: %v", contentID, err)
	}
	return err
}

// PendingReview is an open review locked for a decision.
type PendingReview struct {
	ID       int64
	AuthorID int64
	Title    string
}

// LockPendingReview locks the open review of contentID inside tx, or
// returns sql.ErrNoRows. Reviews of deleted papers are never open.
func (r *ApplicationRepository) LockPendingReview(ctx context.Context, tx *sql.Tx, contentID int64) (PendingReview, error) {
	var p PendingReview
	err := tx.QueryRowContext(ctx,
		`SELECT r.id, c.user_id, c.title FROM research_reviews r JOIN content c ON c.id = r.content_id
		 WHERE r.content_id = $1 AND r.status = 'Pending' AND c.status <> 'Deleted' FOR UPDATE OF r`, contentID,
	).Scan(&p.ID, &p.AuthorID, &p.Title)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to lock review of content %d: %v", contentID, err)
	}
	return p, err
}

func (r *ApplicationRepository) DecideReviewTx(ctx context.Context, tx *sql.Tx, reviewID, contentID, reviewerID int64, d model.Decision, comments string) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE research_reviews SET status = $2, reviewer_id = $3, comments = $4, reviewed_at = NOW() WHERE id = $1`,
		reviewID, d.ReviewStatus, reviewerID, comments); err != nil {
		logger.Sugar.Errorf("Failed to record review %d: %v", reviewID, err)
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE content SET status = $2, updated_at = NOW() WHERE id = $1`, contentID, d.ContentStatus); err != nil {
		logger.Sugar.Errorf("Failed to set status of reviewed content %d: %v", contentID, err)
		return err
	}
	return nil
}
