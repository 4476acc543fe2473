package handlers

import (
	"net/http"
	"time"

	"github.com/BradenHooton/skilltrack/internal/models"
	"github.com/BradenHooton/skilltrack/internal/services"
	pkghttp "github.com/BradenHooton/skilltrack/pkg/http"
	"github.com/go-chi/chi/v5"
)

// CreateLogRequest represents the request body for logging progress
type CreateLogRequest struct {
	Note        string   `json:"note" validate:"required,max=5000"`
	Hours       *float64 `json:"hours" validate:"omitempty,gte=0,lte=24"`
	EvidenceURL *string  `json:"evidenceUrl" validate:"omitempty,url"`
}

// SkillLogResponse is the JSON form of a skill log
type SkillLogResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user"`
	SkillID     string    `json:"skill"`
	Note        string    `json:"note"`
	Hours       *float64  `json:"hours,omitempty"`
	EvidenceURL *string   `json:"evidenceUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toSkillLogResponse(log *models.SkillLog) *SkillLogResponse {
	return &SkillLogResponse{
		ID:          log.ID,
		UserID:      log.UserID,
		SkillID:     log.SkillID,
		Note:        log.Note,
		Hours:       log.Hours,
		EvidenceURL: log.EvidenceURL,
		CreatedAt:   log.CreatedAt,
		UpdatedAt:   log.UpdatedAt,
	}
}

// CreateLog handles POST /skills/{id}/logs
func (h *SkillHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req CreateLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	log, err := h.service.CreateLog(r.Context(), uid, chi.URLParam(r, "id"), services.CreateLogInput{
		Note:        req.Note,
		Hours:       req.Hours,
		EvidenceURL: req.EvidenceURL,
	})
	if err != nil {
		writeSkillError(w, err, "")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusCreated, "Log created", toSkillLogResponse(log))
}

// ListLogs handles GET /skills/{id}/logs
func (h *SkillHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	logs, err := h.service.ListLogs(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeSkillError(w, err, "")
		return
	}

	resp := make([]*SkillLogResponse, 0, len(logs))
	for _, log := range logs {
		resp = append(resp, toSkillLogResponse(log))
	}
	pkghttp.WriteSuccess(w, http.StatusOK, "", resp)
}

// DeleteLog handles DELETE /skills/{id}/logs/{logId}
func (h *SkillHandler) DeleteLog(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	err := h.service.DeleteLog(r.Context(), uid, chi.URLParam(r, "id"), chi.URLParam(r, "logId"))
	if err != nil {
		writeSkillError(w, err, "")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, "Log deleted successfully", nil)
}
