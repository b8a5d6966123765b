package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lawfort/internal/access"
	"lawfort/internal/user/model"
	"lawfort/pkg/logger"

	"github.com/lib/pq"
)

var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrRequestPending  = errors.New("access request already pending")
	ErrAlreadyDecided  = errors.New("access request already processed")
	ErrRequestNotFound = errors.New("access request not found")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, email, role, status, created_at, full_name, phone, bio, practice_area,
	organization, law_specialization, education, bar_exam_status, license_number, location,
	years_of_experience, linkedin_profile, alumni_of, professional_organizations`

func (r *UserRepository) Create(ctx context.Context, email, passwordHash string, p model.Profile) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, role, status, full_name, phone, bio, practice_area,
			organization, law_specialization, education, bar_exam_status, license_number, location,
			years_of_experience, linkedin_profile, alumni_of, professional_organizations)
		 VALUES ($1, $2, 'User', 'Active', $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING id`,
		email, passwordHash, p.FullName, p.Phone, p.Bio, p.PracticeArea, p.Organization,
		p.LawSpecialization, p.Education, p.BarExamStatus, p.LicenseNumber, p.Location,
		p.YearsOfExperience, p.LinkedInProfile, p.AlumniOf, p.ProfessionalOrganizations,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrEmailTaken
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to create user %s: %v", email, err)
	}
	return id, err
}

func (r *UserRepository) FindCredentials(ctx context.Context, email string) (model.Credentials, error) {
	var c model.Credentials
	var role string
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, password_hash, role, status FROM users WHERE email = $1`, email,
	).Scan(&c.ID, &c.PasswordHash, &role, &c.Status)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load credentials for %s: %v", email, err)
	}
	c.Role = access.Role(role)
	return c, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	var role string
	err := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id).Scan(
		&u.ID, &u.Email, &role, &u.Status, &u.CreatedAt, &u.FullName, &u.Phone, &u.Bio, &u.PracticeArea,
		&u.Organization, &u.LawSpecialization, &u.Education, &u.BarExamStatus, &u.LicenseNumber, &u.Location,
		&u.YearsOfExperience, &u.LinkedInProfile, &u.AlumniOf, &u.ProfessionalOrganizations,
	)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load user %d: %v", id, err)
	}
	u.Role = access.Role(role)
	u.RoleID = u.Role.ID()
	return u, err
}

// NameAndArea returns a user's full name and practice area, both empty
// when the user is unknown.
func (r *UserRepository) NameAndArea(ctx context.Context, id int64) (string, string, error) {
	var name, area string
	err := r.DB.QueryRowContext(ctx, `SELECT full_name, practice_area FROM users WHERE id = $1`, id).Scan(&name, &area)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load name of user %d: %v", id, err)
		return "", "", err
	}
	return name, area, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, p model.Profile) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET full_name = $2, phone = $3, bio = $4, practice_area = $5, organization = $6,
			law_specialization = $7, education = $8, bar_exam_status = $9, license_number = $10,
			location = $11, years_of_experience = $12, linkedin_profile = $13, alumni_of = $14,
			professional_organizations = $15
		 WHERE id = $1`,
		id, p.FullName, p.Phone, p.Bio, p.PracticeArea, p.Organization, p.LawSpecialization,
		p.Education, p.BarExamStatus, p.LicenseNumber, p.Location, p.YearsOfExperience,
		p.LinkedInProfile, p.AlumniOf, p.ProfessionalOrganizations,
	)
	if err != nil {
		logger.Sugar.Errorf("Failed to update profile of user %d: %v", id, err)
		return 0, err
	}
	return res.RowsAffected()
}

func (r *UserRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2, $3)`, id, userID, expiresAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create session for user %d: %v", userID, err)
	}
	return err
}

// FindSession loads a session together with the owner's current role.
// Sessions of deactivated users are treated as missing.
func (r *UserRepository) FindSession(ctx context.Context, id string) (model.Session, error) {
	s := model.Session{ID: id}
	var role string
	err := r.DB.QueryRowContext(ctx,
		`SELECT s.user_id, u.role, s.expires_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.id = $1 AND u.status = 'Active'`, id,
	).Scan(&s.UserID, &role, &s.ExpiresAt)
	if err != nil && err != sql.ErrNoRows {
		logger.Sugar.Errorf("Failed to load session %s: %v", id, err)
	}
	s.Role = access.Role(role)
	return s, err
}

func (r *UserRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete session %s: %v", id, err)
	}
	return err
}

func (r *UserRepository) SessionIDs(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to list sessions of user %d: %v", userID, err)
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepository) CreateAccessRequest(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO access_requests (user_id, status) VALUES ($1, 'Pending') RETURNING id`, userID,
	).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrRequestPending
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to create access request for user %d: %v", userID, err)
	}
	return id, err
}

func (r *UserRepository) PendingAccessRequests(ctx context.Context) ([]model.AccessRequest, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT ar.id, ar.user_id, u.full_name, u.practice_area, ar.requested_at, ar.status
		 FROM access_requests ar JOIN users u ON u.id = ar.user_id
		 WHERE ar.status = 'Pending'
		 ORDER BY ar.requested_at DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list access requests: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := []model.AccessRequest{}
	for rows.Next() {
		var a model.AccessRequest
		if err := rows.Scan(&a.ID, &a.UserID, &a.FullName, &a.PracticeArea, &a.RequestedAt, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DecideAccessRequest settles a pending request and, on approval, promotes
// the requester to Editor. It returns the requester's id.
func (r *UserRepository) DecideAccessRequest(ctx context.Context, requestID, adminID int64, approve bool) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var userID int64
	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, status FROM access_requests WHERE id = $1 FOR UPDATE`, requestID,
	).Scan(&userID, &status)
	if err == sql.ErrNoRows {
		return 0, ErrRequestNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load access request %d: %v", requestID, err)
		return 0, err
	}
	if status != model.RequestPending {
		return 0, ErrAlreadyDecided
	}

	next := model.RequestDenied
	if approve {
		next = model.RequestApproved
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE access_requests SET status = $1, decided_at = NOW(), admin_id = $2 WHERE id = $3`,
		next, adminID, requestID); err != nil {
		logger.Sugar.Errorf("Failed to update access request %d: %v", requestID, err)
		return 0, err
	}
	if approve {
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET role = 'Editor' WHERE id = $1 AND role = 'User'`, userID); err != nil {
			logger.Sugar.Errorf("Failed to promote user %d: %v", userID, err)
			return 0, err
		}
	}
	return userID, tx.Commit()
}
