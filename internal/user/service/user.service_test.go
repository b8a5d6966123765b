package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"lawfort/internal/access"
	"lawfort/internal/audit"
	notification "lawfort/internal/notification/model"
	"lawfort/internal/user/model"
	"lawfort/internal/user/repository"
	"lawfort/pkg/apperror"
	"lawfort/pkg/token"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var secret = []byte("test-secret")

type fakeNotifier struct {
	direct []notification.New
	roles  [][]access.Role
	byRole []notification.New
}

func (f *fakeNotifier) Notify(_ context.Context, n notification.New) error {
	f.direct = append(f.direct, n)
	return nil
}

func (f *fakeNotifier) NotifyRoles(_ context.Context, roles []access.Role, n notification.New) error {
	f.roles = append(f.roles, roles)
	f.byRole = append(f.byRole, n)
	return nil
}

func newService(t *testing.T) (*UserService, sqlmock.Sqlmock, *fakeNotifier) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	n := &fakeNotifier{}
	svc := NewUserService(repository.NewUserRepository(db), repository.NewSessionCache(nil, time.Minute), n, audit.NewLog(db), secret, time.Hour)
	svc.BcryptCost = bcrypt.MinCost
	return svc, mock, n
}

func isKind(err, kind error) bool { return errors.Is(err, kind) }

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	cases := []model.RegisterRequest{
		{Email: "not-an-email", Password: "secret1", Profile: model.Profile{FullName: "Ann"}},
		{Email: "ann@example.com", Password: "123", Profile: model.Profile{FullName: "Ann"}},
		{Email: "ann@example.com", Password: "secret1"},
		{Email: "ann@example.com", Password: "secret1", Profile: model.Profile{FullName: "Ann", BarExamStatus: "Maybe"}},
	}
	for _, req := range cases {
		_, err := svc.Register(ctx, req)
		assert.True(t, isKind(err, apperror.ErrInvalidInput), "%+v", req)
	}
}

func TestRegister(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	id, err := svc.Register(context.Background(), model.RegisterRequest{
		Email: " Ann@Example.com ", Password: "secret1",
		Profile: model.Profile{FullName: "Ann", BarExamStatus: "Passed"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})
	_, err = svc.Register(context.Background(), model.RegisterRequest{
		Email: "ann@example.com", Password: "secret1", Profile: model.Profile{FullName: "Ann"},
	})
	assert.True(t, isKind(err, apperror.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

var credentialsQuery = regexp.QuoteMeta(`SELECT id, password_hash, role, status FROM users WHERE email = $1`)

func TestLogin(t *testing.T) {
	svc, mock, _ := newService(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(credentialsQuery).WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "role", "status"}).
			AddRow(5, string(hash), "Admin", "Active"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (id, user_id, expires_at) VALUES ($1, $2, $3)`)).
		WithArgs(sqlmock.AnyArg(), int64(5), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := svc.Login(context.Background(), model.LoginRequest{Email: "Ann@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)
	assert.Equal(t, access.RoleAdmin, res.UserRole)

	claims, err := token.Parse(secret, res.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, "5", claims.Subject)
	assert.Equal(t, "Admin", claims.Role)
	assert.NotEmpty(t, claims.SessionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejections(t *testing.T) {
	svc, mock, _ := newService(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	cols := []string{"id", "password_hash", "role", "status"}

	mock.ExpectQuery(credentialsQuery).WillReturnError(sql.ErrNoRows)
	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "ghost@example.com", Password: "secret1"})
	assert.True(t, isKind(err, apperror.ErrUnauthorized))

	mock.ExpectQuery(credentialsQuery).WillReturnRows(sqlmock.NewRows(cols).AddRow(5, string(hash), "User", "Active"))
	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "ann@example.com", Password: "wrong-pass"})
	assert.True(t, isKind(err, apperror.ErrUnauthorized))

	mock.ExpectQuery(credentialsQuery).WillReturnRows(sqlmock.NewRows(cols).AddRow(5, string(hash), "User", "Inactive"))
	_, err = svc.Login(context.Background(), model.LoginRequest{Email: "ann@example.com", Password: "secret1"})
	assert.True(t, isKind(err, apperror.ErrUnauthorized))
	assert.NoError(t, mock.ExpectationsWereMet())
}

var sessionQuery = `SELECT s.user_id, u.role, s.expires_at\s+FROM sessions s JOIN users u`

func TestResolve(t *testing.T) {
	svc, mock, _ := newService(t)
	raw, err := token.Issue(secret, 5, "sid-1", "User", time.Hour, time.Now())
	require.NoError(t, err)
	cols := []string{"user_id", "role", "expires_at"}

	// The role comes from the users table, not the token.
	mock.ExpectQuery(sessionQuery).WithArgs("sid-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, "Editor", time.Now().Add(time.Hour)))
	p, err := svc.Resolve(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, &access.Principal{ID: 5, Role: access.RoleEditor}, p)

	mock.ExpectQuery(sessionQuery).WithArgs("sid-1").WillReturnError(sql.ErrNoRows)
	_, err = svc.Resolve(context.Background(), raw)
	assert.True(t, isKind(err, apperror.ErrUnauthorized), "logged out session")

	mock.ExpectQuery(sessionQuery).WithArgs("sid-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(6, "User", time.Now().Add(time.Hour)))
	_, err = svc.Resolve(context.Background(), raw)
	assert.True(t, isKind(err, apperror.ErrUnauthorized), "session of another user")

	mock.ExpectQuery(sessionQuery).WithArgs("sid-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(5, "User", time.Now().Add(-time.Minute)))
	_, err = svc.Resolve(context.Background(), raw)
	assert.True(t, isKind(err, apperror.ErrUnauthorized), "expired session")

	_, err = svc.Resolve(context.Background(), "garbage")
	assert.True(t, isKind(err, apperror.ErrUnauthorized))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogout(t *testing.T) {
	svc, mock, _ := newService(t)
	raw, err := token.Issue(secret, 5, "sid-9", "User", time.Hour, time.Now())
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sessions WHERE id = $1`)).WithArgs("sid-9").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.Logout(context.Background(), raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestEditorAccess(t *testing.T) {
	svc, mock, n := newService(t)
	user := &access.Principal{ID: 5, Role: access.RoleUser}
	insert := regexp.QuoteMeta(`INSERT INTO access_requests (user_id, status) VALUES ($1, 'Pending') RETURNING id`)

	mock.ExpectQuery(insert).WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT full_name, practice_area FROM users WHERE id = $1`)).WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"full_name", "practice_area"}).AddRow("Ann", "Tax"))
	require.NoError(t, svc.RequestEditorAccess(context.Background(), user))
	require.Len(t, n.byRole, 1)
	assert.Equal(t, []access.Role{access.RoleAdmin}, n.roles[0])
	assert.Equal(t, "Ann has requested editor access (Practice Area: Tax)", n.byRole[0].Message)

	mock.ExpectQuery(insert).WithArgs(int64(5)).WillReturnError(&pq.Error{Code: "23505"})
	err := svc.RequestEditorAccess(context.Background(), user)
	assert.True(t, isKind(err, apperror.ErrInvalidInput))
	assert.EqualError(t, err, "You already have a pending request.")

	err = svc.RequestEditorAccess(context.Background(), &access.Principal{ID: 2, Role: access.RoleEditor})
	assert.True(t, isKind(err, apperror.ErrInvalidInput))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideAccessApprove(t *testing.T) {
	svc, mock, n := newService(t)
	admin := &access.Principal{ID: 1, Role: access.RoleAdmin}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id, status FROM access_requests WHERE id = \$1 FOR UPDATE`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status"}).AddRow(9, "Pending"))
	mock.ExpectExec(`UPDATE access_requests SET status = \$1`).WithArgs("Approved", int64(1), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET role = 'Editor'`).WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`INSERT INTO audit_logs`).WithArgs(int64(1), "Approve Editor Access", "Approved editor access for user 9").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT id FROM sessions WHERE user_id = \$1`).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sid-a"))

	msg, err := svc.DecideAccess(context.Background(), admin, model.DecisionRequest{RequestID: 3, Action: "Approve"})
	require.NoError(t, err)
	assert.Equal(t, "Editor access granted.", msg)
	require.Len(t, n.direct, 1)
	assert.Equal(t, int64(9), n.direct[0].UserID)
	assert.Equal(t, notification.TypeAccessApproved, n.direct[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideAccessRejections(t *testing.T) {
	svc, mock, _ := newService(t)
	admin := &access.Principal{ID: 1, Role: access.RoleAdmin}

	_, err := svc.DecideAccess(context.Background(), admin, model.DecisionRequest{RequestID: 3, Action: "Maybe"})
	assert.True(t, isKind(err, apperror.ErrInvalidInput))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id, status FROM access_requests`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status"}).AddRow(9, "Approved"))
	mock.ExpectRollback()
	_, err = svc.DecideAccess(context.Background(), admin, model.DecisionRequest{RequestID: 3, Action: "Deny"})
	assert.EqualError(t, err, "This request has already been processed")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id, status FROM access_requests`).WithArgs(int64(4)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()
	_, err = svc.DecideAccess(context.Background(), admin, model.DecisionRequest{RequestID: 4, Action: "Deny"})
	assert.True(t, isKind(err, apperror.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
