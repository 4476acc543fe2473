package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/skilltrack/internal/models"
	pkgauth "github.com/BradenHooton/skilltrack/pkg/auth"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc    func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	CreateFunc     func(ctx context.Context, user *models.User) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

// MockPasswordHasher compares by prefixing "hashed:" to the plain password
type MockPasswordHasher struct {
	HashFunc    func(password string) (string, error)
	CompareFunc func(hashedPassword, password string) error
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	if m.CompareFunc != nil {
		return m.CompareFunc(hashedPassword, password)
	}
	if hashedPassword != "hashed:"+password {
		return pkgauth.ErrPasswordMismatch
	}
	return nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssueFunc func(userID string) (string, error)
}

func (m *MockTokenIssuer) Issue(userID string) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(userID)
	}
	return "token-for-" + userID, nil
}

// MockSkillRepository implements SkillRepository for testing
type MockSkillRepository struct {
	CreateFunc     func(ctx context.Context, skill *models.Skill) (*models.Skill, error)
	GetByIDFunc    func(ctx context.Context, id, userID string) (*models.Skill, error)
	ListByUserFunc func(ctx context.Context, userID string) ([]*models.Skill, error)
	UpdateFunc     func(ctx context.Context, id, userID string, patch models.SkillPatch) (*models.Skill, error)
	DeleteFunc     func(ctx context.Context, id, userID string) error
	SummaryFunc    func(ctx context.Context, id, userID string) (*models.SkillSummary, error)
}

func (m *MockSkillRepository) Create(ctx context.Context, skill *models.Skill) (*models.Skill, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, skill)
	}
	skill.ID = testSkillID
	return skill, nil
}

func (m *MockSkillRepository) GetByID(ctx context.Context, id, userID string) (*models.Skill, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockSkillRepository) ListByUser(ctx context.Context, userID string) ([]*models.Skill, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return []*models.Skill{}, nil
}

func (m *MockSkillRepository) Update(ctx context.Context, id, userID string, patch models.SkillPatch) (*models.Skill, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, userID, patch)
	}
	return nil, models.ErrNotFound
}

func (m *MockSkillRepository) Delete(ctx context.Context, id, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id, userID)
	}
	return nil
}

func (m *MockSkillRepository) Summary(ctx context.Context, id, userID string) (*models.SkillSummary, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx, id, userID)
	}
	return &models.SkillSummary{}, nil
}

// MockSkillLogRepository implements SkillLogRepository for testing
type MockSkillLogRepository struct {
	CreateFunc      func(ctx context.Context, log *models.SkillLog) (*models.SkillLog, error)
	ListBySkillFunc func(ctx context.Context, skillID, userID string) ([]*models.SkillLog, error)
	DeleteFunc      func(ctx context.Context, logID, skillID, userID string) error
}

func (m *MockSkillLogRepository) Create(ctx context.Context, log *models.SkillLog) (*models.SkillLog, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	log.ID = testLogID
	return log, nil
}

func (m *MockSkillLogRepository) ListBySkill(ctx context.Context, skillID, userID string) ([]*models.SkillLog, error) {
	if m.ListBySkillFunc != nil {
		return m.ListBySkillFunc(ctx, skillID, userID)
	}
	return []*models.SkillLog{}, nil
}

func (m *MockSkillLogRepository) Delete(ctx context.Context, logID, skillID, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, logID, skillID, userID)
	}
	return nil
}

const (
	testUserID  = "6f1c2a9e-4b7d-4c61-9a51-0d7f3e2b8c10"
	testSkillID = "2b9e4f61-8c3a-4d1e-b7f2-5a6c9d0e1f23"
	testLogID   = "9d8c7b6a-5f4e-4d3c-8b2a-1f0e9d8c7b6a"
)

// NewTestUser creates a user whose MockPasswordHasher password is "secret-pw"
func NewTestUser(id, email, username string) *models.User {
	return &models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hashed:secret-pw",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// fakeClock is a manually advanced time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
