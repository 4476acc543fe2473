package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/skilltrack/internal/auth"
	"github.com/BradenHooton/skilltrack/internal/models"
	pkgauth "github.com/BradenHooton/skilltrack/pkg/auth"
	pkglogger "github.com/BradenHooton/skilltrack/pkg/logger"
)

// UserRepository defines the user store used by authentication
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// LockoutTracker is the failed-login state consulted on every login
type LockoutTracker interface {
	GetLockInfo(identifier string) models.LockInfo
	RecordFailedAttempt(identifier string)
	ClearAttempts(identifier string)
}

// RequestMeta carries client details for audit logging
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuthService handles registration, login and current-user lookups
type AuthService struct {
	repo        UserRepository
	hasher      PasswordHasher
	tokens      TokenIssuer
	lockout     LockoutTracker
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService. timing may be nil.
func NewAuthService(
	repo UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	lockout LockoutTracker,
	timing *auth.TimingDelay,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		lockout:     lockout,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User  *UserResponse `json:"user"`
	Token string        `json:"token"`
}

func toUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns a session token for it
func (s *AuthService) Register(ctx context.Context, username, email, password string, meta RequestMeta) (*AuthResponse, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	if err := pkgauth.ValidatePassword(password); err != nil {
		s.logger.Info("registration rejected: weak password", slog.Any("error", err))
		return nil, models.ErrWeakPassword
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		s.logger.Info("registration rejected: email exists", slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil, models.ErrEmailTaken
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrEmailTaken
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction(ctx, "register", user.ID, meta.IPAddress, nil)

	return &AuthResponse{User: toUserResponse(user), Token: token}, nil
}

// Login verifies credentials under the lockout policy.
//
// A locked identifier is rejected before the user store is consulted. A wrong
// password counts towards the lock; an unknown email does not. Success clears
// the identifier's failures.
//
// The lock check and the password check are separate steps, so lockout is
// best-effort under bursts: requests already past the check still have their
// passwords compared, and a correct one among them clears a lock its siblings
// just engaged.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*AuthResponse, error) {
	start := time.Now()
	email = normalizeEmail(email)

	if lock := s.lockout.GetLockInfo(email); lock.Locked {
		s.logger.Info("login rejected: account locked")
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     "login_failed",
			Email:         email,
			IPAddress:     meta.IPAddress,
			UserAgent:     meta.UserAgent,
			FailureReason: "account_locked",
		})
		return nil, &models.LockedError{Until: lock.Until}
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
				EventType:     "login_failed",
				Email:         email,
				IPAddress:     meta.IPAddress,
				UserAgent:     meta.UserAgent,
				FailureReason: "invalid_credentials",
			})
			s.timing.WaitFrom(ctx, start)
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if !errors.Is(err, pkgauth.ErrPasswordMismatch) {
			s.logger.Error("failed to compare password", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		return nil, s.rejectPassword(ctx, email, user.ID, meta, start)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.lockout.ClearAttempts(email)

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Success:   true,
	})

	return &AuthResponse{User: toUserResponse(user), Token: token}, nil
}

// rejectPassword records a wrong password and reports whether it engaged the lock
func (s *AuthService) rejectPassword(ctx context.Context, email, userID string, meta RequestMeta, start time.Time) error {
	s.lockout.RecordFailedAttempt(email)
	defer s.timing.WaitFrom(ctx, start)

	if lock := s.lockout.GetLockInfo(email); lock.Locked {
		s.logger.Warn("account locked after repeated failures", slog.String("user_id", userID))
		s.auditLogger.LogLockout(ctx, email, meta.IPAddress, lock.Until)
		return &models.LockedError{Until: lock.Until, AfterFailure: true}
	}

	s.logger.Info("login failed: invalid credentials", slog.String("user_id", userID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		FailureReason: "invalid_credentials",
	})
	return models.ErrInvalidCredentials
}

// Me returns the account behind an authenticated user id
func (s *AuthService) Me(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user by id", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return toUserResponse(user), nil
}
