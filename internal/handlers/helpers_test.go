package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/skilltrack/internal/auth"
	"github.com/BradenHooton/skilltrack/internal/models"
	"github.com/BradenHooton/skilltrack/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SetClock replaces the handler's time source
func (h *AuthHandler) SetClock(now func() time.Time) {
	h.now = now
}

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext marks the request as authenticated for userID
func WithAuthContext(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

// WithURLParams attaches chi route parameters to the request
func WithURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestEnvelope mirrors pkghttp.Response with a raw data field
type TestEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// AssertEnvelope checks the status and decodes the envelope; data is decoded into target when non-nil
func AssertEnvelope(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) TestEnvelope {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var env TestEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Failed to decode response JSON")
	if target != nil {
		require.NoError(t, json.Unmarshal(env.Data, target), "Failed to decode response data")
	}
	return env
}

// AssertErrorEnvelope checks a failed envelope with the given message
func AssertErrorEnvelope(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	t.Helper()
	env := AssertEnvelope(t, w, expectedStatus, nil)
	assert.False(t, env.Success)
	assert.Equal(t, expectedMessage, env.Message)
}


// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc func(ctx context.Context, username, email, password string, meta services.RequestMeta) (*services.AuthResponse, error)
	LoginFunc    func(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResponse, error)
	MeFunc       func(ctx context.Context, userID string) (*services.UserResponse, error)
}

func (m *MockAuthService) Register(ctx context.Context, username, email, password string, meta services.RequestMeta) (*services.AuthResponse, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrEmailTaken
	}
	return m.RegisterFunc(ctx, username, email, password, meta)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, meta services.RequestMeta) (*services.AuthResponse, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, email, password, meta)
}

func (m *MockAuthService) Me(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.MeFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.MeFunc(ctx, userID)
}

// MockSkillService implements SkillServiceInterface for testing
type MockSkillService struct {
	CreateFunc         func(ctx context.Context, userID string, input services.CreateSkillInput) (*models.Skill, error)
	ListFunc           func(ctx context.Context, userID string) ([]*models.Skill, error)
	GetFunc            func(ctx context.Context, userID, id string) (*models.Skill, error)
	UpdateFunc         func(ctx context.Context, userID, id string, patch models.SkillPatch) (*models.Skill, error)
	PatchFunc          func(ctx context.Context, userID, id string, patch models.SkillPatch) (*models.Skill, error)
	UpdateProgressFunc func(ctx context.Context, userID, id string, current, goal *int) (*models.Skill, error)
	DeleteFunc         func(ctx context.Context, userID, id string) error
	SummaryFunc        func(ctx context.Context, userID, id string) (*models.Skill, *models.SkillSummary, error)
	CreateLogFunc      func(ctx context.Context, userID, skillID string, input services.CreateLogInput) (*models.SkillLog, error)
	ListLogsFunc       func(ctx context.Context, userID, skillID string) ([]*models.SkillLog, error)
	DeleteLogFunc      func(ctx context.Context, userID, skillID, logID string) error
}

func (m *MockSkillService) Create(ctx context.Context, userID string, input services.CreateSkillInput) (*models.Skill, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, userID, input)
}

func (m *MockSkillService) List(ctx context.Context, userID string) ([]*models.Skill, error) {
	if m.ListFunc == nil {
		return []*models.Skill{}, nil
	}
	return m.ListFunc(ctx, userID)
}

func (m *MockSkillService) Get(ctx context.Context, userID, id string) (*models.Skill, error) {
	if m.GetFunc == nil {
		return nil, models.ErrSkillNotFound
	}
	return m.GetFunc(ctx, userID, id)
}

func (m *MockSkillService) Update(ctx context.Context, userID, id string, patch models.SkillPatch) (*models.Skill, error) {
	if m.UpdateFunc == nil {
		return nil, models.ErrSkillNotFound
	}
	return m.UpdateFunc(ctx, userID, id, patch)
}

func (m *MockSkillService) Patch(ctx context.Context, userID, id string, patch models.SkillPatch) (*models.Skill, error) {
	if m.PatchFunc == nil {
		return nil, models.ErrSkillNotFound
	}
	return m.PatchFunc(ctx, userID, id, patch)
}

func (m *MockSkillService) UpdateProgress(ctx context.Context, userID, id string, current, goal *int) (*models.Skill, error) {
	if m.UpdateProgressFunc == nil {
		return nil, models.ErrSkillNotFound
	}
	return m.UpdateProgressFunc(ctx, userID, id, current, goal)
}

func (m *MockSkillService) Delete(ctx context.Context, userID, id string) error {
	if m.DeleteFunc == nil {
		return models.ErrSkillNotFound
	}
	return m.DeleteFunc(ctx, userID, id)
}

func (m *MockSkillService) Summary(ctx context.Context, userID, id string) (*models.Skill, *models.SkillSummary, error) {
	if m.SummaryFunc == nil {
		return nil, nil, models.ErrSkillNotFound
	}
	return m.SummaryFunc(ctx, userID, id)
}

func (m *MockSkillService) CreateLog(ctx context.Context, userID, skillID string, input services.CreateLogInput) (*models.SkillLog, error) {
	if m.CreateLogFunc == nil {
		return nil, models.ErrSkillNotFound
	}
	return m.CreateLogFunc(ctx, userID, skillID, input)
}

func (m *MockSkillService) ListLogs(ctx context.Context, userID, skillID string) ([]*models.SkillLog, error) {
	if m.ListLogsFunc == nil {
		return nil, models.ErrSkillNotFound
	}
	return m.ListLogsFunc(ctx, userID, skillID)
}

func (m *MockSkillService) DeleteLog(ctx context.Context, userID, skillID, logID string) error {
	if m.DeleteLogFunc == nil {
		return models.ErrSkillNotFound
	}
	return m.DeleteLogFunc(ctx, userID, skillID, logID)
}
