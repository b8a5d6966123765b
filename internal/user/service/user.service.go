package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"lawfort/internal/access"
	"lawfort/internal/audit"
	notification "lawfort/internal/notification/model"
	"lawfort/internal/user/model"
	"lawfort/internal/user/repository"
	"lawfort/pkg/apperror"
	"lawfort/pkg/logger"
	"lawfort/pkg/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

var barExamStatuses = map[string]bool{"": true, "Passed": true, "Pending": true, "Not Applicable": true}

// Notifier delivers in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, n notification.New) error
	NotifyRoles(ctx context.Context, roles []access.Role, n notification.New) error
}

type UserService struct {
	Repo       *repository.UserRepository
	Cache      *repository.SessionCache
	Notifier   Notifier
	Audit      *audit.Log
	Secret     []byte
	SessionTTL time.Duration
	BcryptCost int

	now func() time.Time
}

func NewUserService(repo *repository.UserRepository, cache *repository.SessionCache, notifier Notifier, auditLog *audit.Log, secret []byte, ttl time.Duration) *UserService {
	return &UserService{
		Repo:       repo,
		Cache:      cache,
		Notifier:   notifier,
		Audit:      auditLog,
		Secret:     secret,
		SessionTTL: ttl,
		BcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func validateProfile(p model.Profile) error {
	if !barExamStatuses[p.BarExamStatus] {
		return apperror.Invalid("Invalid bar exam status")
	}
	if p.YearsOfExperience < 0 {
		return apperror.Invalid("Years of experience cannot be negative")
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (int64, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return 0, apperror.Invalid("A valid email is required")
	}
	if len(req.Password) < minPasswordLen || len(req.Password) > maxPasswordLen {
		return 0, apperror.Invalid(fmt.Sprintf("Password must be between %d and %d characters", minPasswordLen, maxPasswordLen))
	}
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" {
		return 0, apperror.Invalid("Full name is required")
	}
	if err := validateProfile(req.Profile); err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.BcryptCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.Repo.Create(ctx, email, string(hash), req.Profile)
	if errors.Is(err, repository.ErrEmailTaken) {
		return 0, apperror.Conflict("Email already registered")
	}
	return id, err
}

func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	creds, err := s.Repo.FindCredentials(ctx, email)
	if err == sql.ErrNoRows {
		return model.LoginResponse{}, apperror.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return model.LoginResponse{}, err
	}
	if creds.Status != model.StatusActive {
		return model.LoginResponse{}, apperror.Unauthorized("Invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(req.Password)) != nil {
		return model.LoginResponse{}, apperror.Unauthorized("Invalid email or password")
	}

	now := s.now()
	sessionID := uuid.NewString()
	expiresAt := now.Add(s.SessionTTL)
	if err := s.Repo.CreateSession(ctx, sessionID, creds.ID, expiresAt); err != nil {
		return model.LoginResponse{}, err
	}
	signed, err := token.Issue(s.Secret, creds.ID, sessionID, string(creds.Role), s.SessionTTL, now)
	if err != nil {
		return model.LoginResponse{}, fmt.Errorf("sign session token: %w", err)
	}
	logger.Sugar.Infof("User %d logged in", creds.ID)
	return model.LoginResponse{
		SessionToken: signed,
		UserID:       creds.ID,
		UserRole:     creds.Role,
		IsAdmin:      creds.Role == access.RoleAdmin,
		ExpiresAt:    expiresAt,
	}, nil
}

// Logout ends the session behind raw. The token stops working at once,
// before its own expiry.
func (s *UserService) Logout(ctx context.Context, raw string) error {
	claims, err := token.Parse(s.Secret, raw)
	if err != nil {
		return apperror.Unauthorized("Invalid or expired token")
	}
	if err := s.Repo.DeleteSession(ctx, claims.SessionID); err != nil {
		return err
	}
	s.Cache.Delete(ctx, claims.SessionID)
	return nil
}

// Resolve implements the session lookup used by the auth middleware.
func (s *UserService) Resolve(ctx context.Context, raw string) (*access.Principal, error) {
	claims, err := token.Parse(s.Secret, raw)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid or expired token")
	}
	userID, _ := claims.UserID()

	sess, cached := s.Cache.Get(ctx, claims.SessionID)
	if !cached {
		sess, err = s.Repo.FindSession(ctx, claims.SessionID)
		if err == sql.ErrNoRows {
			return nil, apperror.Unauthorized("Session not found")
		}
		if err != nil {
			return nil, err
		}
	}
	if sess.UserID != userID || !sess.ExpiresAt.After(s.now()) {
		return nil, apperror.Unauthorized("Session expired")
	}
	role, ok := access.ParseRole(string(sess.Role))
	if !ok {
		return nil, apperror.Unauthorized("Unknown role")
	}
	if !cached {
		s.Cache.Set(ctx, sess)
	}
	return &access.Principal{ID: sess.UserID, Role: role}, nil
}

func (s *UserService) Profile(ctx context.Context, userID int64) (model.User, error) {
	u, err := s.Repo.FindByID(ctx, userID)
	if err == sql.ErrNoRows {
		return model.User{}, apperror.NotFound("User not found")
	}
	return u, err
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, p model.Profile) (model.User, error) {
	p.FullName = strings.TrimSpace(p.FullName)
	if p.FullName == "" {
		return model.User{}, apperror.Invalid("Full name is required")
	}
	if err := validateProfile(p); err != nil {
		return model.User{}, err
	}
	n, err := s.Repo.UpdateProfile(ctx, userID, p)
	if err != nil {
		return model.User{}, err
	}
	if n == 0 {
		return model.User{}, apperror.NotFound("User not found")
	}
	return s.Profile(ctx, userID)
}

// RequestEditorAccess files a promotion request and tells every admin.
func (s *UserService) RequestEditorAccess(ctx context.Context, p *access.Principal) error {
	if p.Role != access.RoleUser {
		return apperror.Invalid("Only users can request editor access")
	}
	if _, err := s.Repo.CreateAccessRequest(ctx, p.ID); err != nil {
		if errors.Is(err, repository.ErrRequestPending) {
			return apperror.Invalid("You already have a pending request.")
		}
		return err
	}

	name, area, err := s.Repo.NameAndArea(ctx, p.ID)
	if err != nil || name == "" {
		name = "A user"
	}
	msg := name + " has requested editor access"
	if area != "" {
		msg += " (Practice Area: " + area + ")"
	}
	s.notifyRoles(ctx, []access.Role{access.RoleAdmin}, notification.New{
		Type:      notification.TypeAccessRequest,
		Title:     "New Editor Access Request",
		Message:   msg,
		ActionURL: "/admin/access-requests",
	})
	return nil
}

func (s *UserService) AccessRequests(ctx context.Context) ([]model.AccessRequest, error) {
	return s.Repo.PendingAccessRequests(ctx)
}

// DecideAccess approves or denies a pending request and returns the
// message shown to the admin.
func (s *UserService) DecideAccess(ctx context.Context, admin *access.Principal, req model.DecisionRequest) (string, error) {
	if req.RequestID <= 0 {
		return "", apperror.Invalid("Missing required parameters")
	}
	var approve bool
	switch req.Action {
	case "Approve":
		approve = true
	case "Deny":
	default:
		return "", apperror.Invalid(`Invalid action. Must be "Approve" or "Deny"`)
	}

	userID, err := s.Repo.DecideAccessRequest(ctx, req.RequestID, admin.ID, approve)
	switch {
	case errors.Is(err, repository.ErrRequestNotFound):
		return "", apperror.NotFound("Request not found")
	case errors.Is(err, repository.ErrAlreadyDecided):
		return "", apperror.Invalid("This request has already been processed")
	case err != nil:
		return "", err
	}

	if !approve {
		s.Audit.Record(ctx, admin.ID, "Deny Editor Access", fmt.Sprintf("Denied editor access for user %d", userID))
		s.notify(ctx, notification.New{
			UserID:    userID,
			Type:      notification.TypeAccessDenied,
			Title:     "Editor Access Request Denied",
			Message:   "Your request for editor access has been denied. Please contact support if you have questions.",
			ActionURL: "/profile",
		})
		return "Editor access denied.", nil
	}

	s.Audit.Record(ctx, admin.ID, "Approve Editor Access", fmt.Sprintf("Approved editor access for user %d", userID))
	// Cached sessions still carry the old role.
	if ids, err := s.Repo.SessionIDs(ctx, userID); err == nil {
		s.Cache.Delete(ctx, ids...)
	}
	s.notify(ctx, notification.New{
		UserID:    userID,
		Type:      notification.TypeAccessApproved,
		Title:     "Editor Access Approved",
		Message:   "Congratulations! Your request for editor access has been approved. You can now create and manage content.",
		ActionURL: "/editor-dashboard",
	})
	return "Editor access granted.", nil
}

func (s *UserService) notify(ctx context.Context, n notification.New) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		logger.Sugar.Warnf("Failed to notify user %d: %v", n.UserID, err)
	}
}

func (s *UserService) notifyRoles(ctx context.Context, roles []access.Role, n notification.New) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.NotifyRoles(ctx, roles, n); err != nil {
		logger.Sugar.Warnf("Failed to notify %v: %v", roles, err)
	}
}
