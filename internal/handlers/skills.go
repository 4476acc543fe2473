package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BradenHooton/skilltrack/internal/auth"
	"github.com/BradenHooton/skilltrack/internal/models"
	"github.com/BradenHooton/skilltrack/internal/services"
	pkghttp "github.com/BradenHooton/skilltrack/pkg/http"
	"github.com/go-chi/chi/v5"
)

// SkillServiceInterface defines the interface for skill business logic
type SkillServiceInterface interface {
	Create(ctx context.Context, userID string, input services.CreateSkillInput) (*models.Skill, error)
	List(ctx context.Context, userID string) ([]*models.Skill, error)
	Get(ctx context.Context, userID, id string) (*models.Skill, error)
	Update(ctx context.Context, userID, id string, patch models.SkillPatch) (*models.Skill, error)
	Patch(ctx context.Context, userID, id string, patch models.SkillPatch) (*models.Skill, error)
	UpdateProgress(ctx context.Context, userID, id string, current, goal *int) (*models.Skill, error)
	Delete(ctx context.Context, userID, id string) error
	Summary(ctx context.Context, userID, id string) (*models.Skill, *models.SkillSummary, error)
	CreateLog(ctx context.Context, userID, skillID string, input services.CreateLogInput) (*models.SkillLog, error)
	ListLogs(ctx context.Context, userID, skillID string) ([]*models.SkillLog, error)
	DeleteLog(ctx context.Context, userID, skillID, logID string) error
}

// SkillHandler handles skill and skill log requests. All routes require authentication.
type SkillHandler struct {
	service SkillServiceInterface
}

// NewSkillHandler creates a new SkillHandler
func NewSkillHandler(service SkillServiceInterface) *SkillHandler {
	return &SkillHandler{service: service}
}

// CreateSkillRequest represents the request body for creating a skill
type CreateSkillRequest struct {
	Title           string     `json:"title" validate:"required,max=200"`
	Category        string     `json:"category" validate:"required,max=100"`
	Level           string     `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	CurrentProgress *int       `json:"current_progress" validate:"omitempty,gte=0,lte=100"`
	GoalProgress    *int       `json:"goal_progress" validate:"omitempty,gte=0,lte=100"`
	Notes           *string    `json:"notes" validate:"omitempty,max=5000"`
	LastActivity    *time.Time `json:"last_activity"`
}

// UpdateSkillRequest represents the body of PUT and PATCH; absent fields are left unchanged
type UpdateSkillRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Category        *string    `json:"category" validate:"omitempty,min=1,max=100"`
	Level           *string    `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	CurrentProgress *int       `json:"current_progress" validate:"omitempty,gte=0,lte=100"`
	GoalProgress    *int       `json:"goal_progress" validate:"omitempty,gte=0,lte=100"`
	Notes           *string    `json:"notes" validate:"omitempty,max=5000"`
	LastActivity    *time.Time `json:"last_activity"`
}

func (req UpdateSkillRequest) toPatch() models.SkillPatch {
	return models.SkillPatch{
		Title:           req.Title,
		Category:        req.Category,
		Level:           req.Level,
		CurrentProgress: req.CurrentProgress,
		GoalProgress:    req.GoalProgress,
		Notes:           req.Notes,
		LastActivity:    req.LastActivity,
	}
}

// UpdateProgressRequest represents the body of PATCH /skills/{id}/progress
type UpdateProgressRequest struct {
	CurrentProgress *int `json:"current_progress" validate:"omitempty,gte=0,lte=100"`
	GoalProgress    *int `json:"goal_progress" validate:"omitempty,gte=0,lte=100"`
}

// SkillResponse is the JSON form of a skill
type SkillResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Level           string    `json:"level"`
	CurrentProgress int       `json:"current_progress"`
	GoalProgress    int       `json:"goal_progress"`
	Notes           *string   `json:"notes,omitempty"`
	LastActivity    time.Time `json:"last_activity"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SummaryResponse is the JSON form of a skill summary
type SummaryResponse struct {
	Skill   *SkillResponse `json:"skill"`
	Summary struct {
		TotalLogs    int        `json:"totalLogs"`
		TotalHours   float64    `json:"totalHours"`
		LastActivity *time.Time `json:"lastActivity"`
	} `json:"summary"`
}

func toSkillResponse(skill *models.Skill) *SkillResponse {
	return &SkillResponse{
		ID:              skill.ID,
		UserID:          skill.UserID,
		Title:           skill.Title,
		Category:        skill.Category,
		Level:           skill.Level,
		CurrentProgress: skill.CurrentProgress,
		GoalProgress:    skill.GoalProgress,
		Notes:           skill.Notes,
		LastActivity:    skill.LastActivity,
		CreatedAt:       skill.CreatedAt,
		UpdatedAt:       skill.UpdatedAt,
	}
}

// writeSkillError maps service errors onto the envelope
func writeSkillError(w http.ResponseWriter, err error, emptyMessage string) {
	switch {
	case errors.Is(err, models.ErrLogNotFound):
		pkghttp.WriteNotFound(w, "Log not found")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Skill not found")
	case errors.Is(err, models.ErrEmptyUpdate):
		pkghttp.WriteBadRequest(w, emptyMessage)
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid skill data")
	default:
		pkghttp.WriteInternalError(w)
	}
}

// userID returns the authenticated user id, writing 401 when it is missing
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := auth.GetUserIDFromContext(r)
	if id == "" {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return "", false
	}
	return id, true
}

// Create handles POST /skills
func (h *SkillHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req CreateSkillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	skill, err := h.service.Create(r.Context(), uid, services.CreateSkillInput{
		Title:           req.Title,
		Category:        req.Category,
		Level:           req.Level,
		CurrentProgress: req.CurrentProgress,
		GoalProgress:    req.GoalProgress,
		Notes:           req.Notes,
		LastActivity:    req.LastActivity,
	})
	if err != nil {
		writeSkillError(w, err, "")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, "Skill created", toSkillResponse(skill))
}

// List handles GET /skills
func (h *SkillHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	skills, err := h.service.List(r.Context(), uid)
	if err != nil {
		writeSkillError(w, err, "")
		return
	}

	resp := make([]*SkillResponse, 0, len(skills))
	for _, skill := range skills {
		resp = append(resp, toSkillResponse(skill))
	}
	pkghttp.WriteSuccess(w, http.StatusOK, "", resp)
}

// Get handles GET /skills/{id}
func (h *SkillHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	skill, err := h.service.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeSkillError(w, err, "")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "", toSkillResponse(skill))
}

// Update handles PUT /skills/{id}
func (h *SkillHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.applyUpdate(w, r, h.service.Update, "Skill updated")
}

// Patch handles PATCH /skills/{id}
func (h *SkillHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.applyUpdate(w, r, h.service.Patch, "Skill patched")
}

type updateFunc func(ctx context.Context, userID, id string, patch models.SkillPatch) (*models.Skill, error)

func (h *SkillHandler) applyUpdate(w http.ResponseWriter, r *http.Request, update updateFunc, message string) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req UpdateSkillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	skill, err := update(r.Context(), uid, chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		writeSkillError(w, err, "No fields provided to update")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, message, toSkillResponse(skill))
}

// UpdateProgress handles PATCH /skills/{id}/progress
func (h *SkillHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req UpdateProgressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	skill, err := h.service.UpdateProgress(r.Context(), uid, chi.URLParam(r, "id"), req.CurrentProgress, req.GoalProgress)
	if err != nil {
		writeSkillError(w, err, "No progress fields provided")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Progress updated", toSkillResponse(skill))
}

// Delete handles DELETE /skills/{id}
func (h *SkillHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeSkillError(w, err, "")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Skill deleted", nil)
}

// Summary handles GET /skills/{id}/summary
func (h *SkillHandler) Summary(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	skill, summary, err := h.service.Summary(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeSkillError(w, err, "")
		return
	}

	var resp SummaryResponse
	resp.Skill = toSkillResponse(skill)
	resp.Summary.TotalLogs = summary.TotalLogs
	resp.Summary.TotalHours = summary.TotalHours
	resp.Summary.LastActivity = summary.LastActivity

	pkghttp.WriteSuccess(w, http.StatusOK, "", resp)
}
