package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/BradenHooton/skilltrack/internal/auth"
	"github.com/BradenHooton/skilltrack/internal/models"
	pkgauth "github.com/BradenHooton/skilltrack/pkg/auth"
	pkglogger "github.com/BradenHooton/skilltrack/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	service *AuthService
	tracker *auth.LockoutTracker
	tokens  *auth.TokenManager
	clock   *fakeClock
	repo    *MockUserRepository
}

func newAuthFixture(t *testing.T, users ...*models.User) *authFixture {
	t.Helper()

	clock := newFakeClock()
	tracker := auth.NewLockoutTracker(auth.DefaultLockoutConfig())
	tracker.SetClock(clock.Now)
	tokens := auth.NewTokenManager("test-secret-32-characters-long!!", auth.DefaultTokenExpiry)
	tokens.SetClock(clock.Now)

	byEmail := make(map[string]*models.User)
	for _, u := range users {
		byEmail[u.Email] = u
	}
	repo := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			if u, ok := byEmail[email]; ok {
				return u, nil
			}
			return nil, models.ErrNotFound
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAuthService(repo, &MockPasswordHasher{}, tokens, tracker, nil, logger, pkglogger.NewAuditLogger(logger))

	return &authFixture{service: service, tracker: tracker, tokens: tokens, clock: clock, repo: repo}
}

func (f *authFixture) login(email, password string) (*AuthResponse, error) {
	return f.service.Login(context.Background(), email, password, RequestMeta{IPAddress: "203.0.113.1"})
}

// ============================================================================
// Login
// ============================================================================

func TestAuthService_Login_Success(t *testing.T) {
	user := NewTestUser(testUserID, "u1@example.com", "u1")
	f := newAuthFixture(t, user)

	resp, err := f.login("u1@example.com", "secret-pw")

	require.NoError(t, err)
	assert.Equal(t, testUserID, resp.User.ID)
	assert.Equal(t, "u1", resp.User.Username)

	userID, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
}

func TestAuthService_Login_UnknownEmail_NotRecorded(t *testing.T) {
	f := newAuthFixture(t)

	for i := 0; i < 10; i++ {
		_, err := f.login("ghost@example.com", "whatever")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	}

	assert.Equal(t, 0, f.tracker.FailedAttempts("ghost@example.com"))
	assert.False(t, f.tracker.GetLockInfo("ghost@example.com").Locked)
}

func TestAuthService_Login_WrongPassword_RecordsAttempt(t *testing.T) {
	f := newAuthFixture(t, NewTestUser(testUserID, "u1@example.com", "u1"))

	_, err := f.login("u1@example.com", "wrong")

	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.Equal(t, 1, f.tracker.FailedAttempts("u1@example.com"))
}

func TestAuthService_Login_FifthFailureLocks(t *testing.T) {
	f := newAuthFixture(t, NewTestUser(testUserID, "u1@example.com", "u1"))

	for i := 0; i < 4; i++ {
		_, err := f.login("u1@example.com", "wrong")
		require.ErrorIs(t, err, models.ErrInvalidCredentials)
	}

	_, err := f.login("u1@example.com", "wrong")

	var locked *models.LockedError
	require.True(t, errors.As(err, &locked))
	assert.True(t, locked.AfterFailure)
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), locked.Until)
}

func TestAuthService_Login_LockedRejectsCorrectPassword(t *testing.T) {
	f := newAuthFixture(t, NewTestUser(testUserID, "u1@example.com", "u1"))
	lookups := 0
	inner := f.repo.GetByEmailFunc
	f.repo.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		lookups++
		return inner(ctx, email)
	}

	for i := 0; i < 5; i++ {
		_, _ = f.login("u1@example.com", "wrong")
	}
	lookupsBefore := lookups

	_, err := f.login("u1@example.com", "secret-pw")

	var locked *models.LockedError
	require.True(t, errors.As(err, &locked))
	assert.False(t, locked.AfterFailure)
	assert.Equal(t, lookupsBefore, lookups, "locked identifiers must not reach the user store")
}

// u1 fails four times within a minute, is locked by the fifth failure at T5, is still
// rejected at T5+1m with the right password, and gets in at T5+16m.
func TestAuthService_Login_Scenario_LockAndRecover(t *testing.T) {
	f := newAuthFixture(t, NewTestUser(testUserID, "u1@example.com", "u1"))

	for i := 0; i < 4; i++ {
		_, err := f.login("u1@example.com", "wrong")
		require.ErrorIs(t, err, models.ErrInvalidCredentials)
		f.clock.Advance(15 * time.Second)
	}

	_, err := f.login("u1@example.com", "wrong")
	require.ErrorIs(t, err, models.ErrAccountLocked)

	f.clock.Advance(time.Minute)
	_, err = f.login("u1@example.com", "secret-pw")
	require.ErrorIs(t, err, models.ErrAccountLocked)

	f.clock.Advance(15 * time.Minute)
	resp, err := f.login("u1@example.com", "secret-pw")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, 0, f.tracker.Len())
}

func TestAuthService_Login_SuccessClearsFailures(t *testing.T) {
	f := newAuthFixture(t, NewTestUser(testUserID, "u1@example.com", "u1"))

	for i := 0; i < 4; i++ {
		_, _ = f.login("u1@example.com", "wrong")
	}
	_, err := f.login("u1@example.com", "secret-pw")
	require.NoError(t, err)

	// A fresh run of four failures still does not lock
	for i := 0; i < 4; i++ {
		_, err := f.login("u1@example.com", "wrong")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	}
	assert.Equal(t, 4, f.tracker.FailedAttempts("u1@example.com"))
}

func TestAuthService_Login_NormalizesEmail(t *testing.T) {
	f := newAuthFixture(t, NewTestUser(testUserID, "u1@example.com", "u1"))

	_, err := f.login("  U1@Example.COM ", "secret-pw")

	assert.NoError(t, err)
}

func TestAuthService_Login_RepositoryError(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return nil, errors.New("connection refused")
	}

	_, err := f.login("u1@example.com", "secret-pw")

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestAuthService_Login_IssueFailureDoesNotClear(t *testing.T) {
	user := NewTestUser(testUserID, "u1@example.com", "u1")
	f := newAuthFixture(t, user)
	for i := 0; i < 2; i++ {
		_, _ = f.login("u1@example.com", "wrong")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	failing := NewAuthService(f.repo, &MockPasswordHasher{},
		&MockTokenIssuer{IssueFunc: func(string) (string, error) { return "", models.ErrConfiguration }},
		f.tracker, nil, logger, pkglogger.NewAuditLogger(logger))

	_, err := failing.Login(context.Background(), "u1@example.com", "secret-pw", RequestMeta{})

	assert.ErrorIs(t, err, models.ErrInternalServer)
	assert.Equal(t, 2, f.tracker.FailedAttempts("u1@example.com"))
}

func TestAuthService_Login_ConcurrentFailures(t *testing.T) {
	const workers = 10
	f := newAuthFixture(t, NewTestUser(testUserID, "u1@example.com", "u1"))

	// Hold every request inside Compare until all of them have passed the lock check
	var arrived sync.WaitGroup
	arrived.Add(workers)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAuthService(f.repo, &MockPasswordHasher{
		CompareFunc: func(hashedPassword, password string) error {
			arrived.Done()
			arrived.Wait()
			return pkgauth.ErrPasswordMismatch
		},
	}, f.tokens, f.tracker, nil, logger, pkglogger.NewAuditLogger(logger))

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.Login(context.Background(), "u1@example.com", "wrong", RequestMeta{})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, workers, f.tracker.FailedAttempts("u1@example.com"))
	assert.True(t, f.tracker.GetLockInfo("u1@example.com").Locked)

	var locked int
	for _, err := range errs {
		var lockedErr *models.LockedError
		if errors.As(err, &lockedErr) {
			assert.True(t, lockedErr.AfterFailure)
			locked++
		} else {
			assert.ErrorIs(t, err, models.ErrInvalidCredentials)
		}
	}
	assert.GreaterOrEqual(t, locked, workers-4)
}

func TestAuthService_Login_SequentialFailuresStopAtLock(t *testing.T) {
	f := newAuthFixture(t, NewTestUser(testUserID, "u1@example.com", "u1"))

	for i := 0; i < 10; i++ {
		_, _ = f.login("u1@example.com", "wrong")
	}

	assert.Equal(t, 5, f.tracker.FailedAttempts("u1@example.com"))
	assert.True(t, f.tracker.GetLockInfo("u1@example.com").Locked)
}

func TestAuthService_Login_FailureDelay(t *testing.T) {
	f := newAuthFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	delayed := NewAuthService(f.repo, &MockPasswordHasher{}, f.tokens, f.tracker,
		auth.NewTimingDelay(auth.TimingConfig{BaseDelay: 30 * time.Millisecond}),
		logger, pkglogger.NewAuditLogger(logger))

	start := time.Now()
	_, err := delayed.Login(context.Background(), "ghost@example.com", "pw", RequestMeta{})

	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

// ============================================================================
// Register
// ============================================================================

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture(t)
	var stored *models.User
	f.repo.CreateFunc = func(ctx context.Context, user *models.User) (*models.User, error) {
		user.ID = testUserID
		stored = user
		return user, nil
	}

	resp, err := f.service.Register(context.Background(), " alice ", "Alice@Example.com", "hunter22", RequestMeta{})

	require.NoError(t, err)
	assert.Equal(t, testUserID, resp.User.ID)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, "hashed:hunter22", stored.PasswordHash)

	userID, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, NewTestUser(testUserID, "u1@example.com", "u1"))

	_, err := f.service.Register(context.Background(), "other", "U1@example.com", "hunter22", RequestMeta{})

	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestAuthService_Register_ConflictOnInsert(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.CreateFunc = func(ctx context.Context, user *models.User) (*models.User, error) {
		return nil, models.ErrConflict
	}

	_, err := f.service.Register(context.Background(), "bob", "bob@example.com", "hunter22", RequestMeta{})

	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.service.Register(context.Background(), "bob", "bob@example.com", "123456", RequestMeta{})

	assert.ErrorIs(t, err, models.ErrWeakPassword)
}

func TestAuthService_Register_HashFailure(t *testing.T) {
	f := newAuthFixture(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAuthService(f.repo,
		&MockPasswordHasher{HashFunc: func(string) (string, error) { return "", errors.New("boom") }},
		f.tokens, f.tracker, nil, logger, pkglogger.NewAuditLogger(logger))

	_, err := service.Register(context.Background(), "bob", "bob@example.com", "hunter22", RequestMeta{})

	assert.ErrorIs(t, err, models.ErrInternalServer)
}

// ============================================================================
// Me
// ============================================================================

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		if id == testUserID {
			return NewTestUser(testUserID, "u1@example.com", "u1"), nil
		}
		return nil, models.ErrNotFound
	}

	me, err := f.service.Me(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", me.Email)

	_, err = f.service.Me(context.Background(), "someone-else")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
