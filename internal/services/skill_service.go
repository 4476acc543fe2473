package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/skilltrack/internal/models"
	"github.com/google/uuid"
)

// SkillRepository defines persistence for skills; every call is scoped to the owning user
type SkillRepository interface {
	Create(ctx context.Context, skill *models.Skill) (*models.Skill, error)
	GetByID(ctx context.Context, id, userID string) (*models.Skill, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Skill, error)
	Update(ctx context.Context, id, userID string, patch models.SkillPatch) (*models.Skill, error)
	Delete(ctx context.Context, id, userID string) error
	Summary(ctx context.Context, id, userID string) (*models.SkillSummary, error)
}

// SkillLogRepository defines persistence for skill logs
type SkillLogRepository interface {
	Create(ctx context.Context, log *models.SkillLog) (*models.SkillLog, error)
	ListBySkill(ctx context.Context, skillID, userID string) ([]*models.SkillLog, error)
	Delete(ctx context.Context, logID, skillID, userID string) error
}

// CreateSkillInput holds the fields accepted when creating a skill
type CreateSkillInput struct {
	Title           string
	Category        string
	Level           string
	CurrentProgress *int
	GoalProgress    *int
	Notes           *string
	LastActivity    *time.Time
}

// CreateLogInput holds the fields accepted when logging progress
type CreateLogInput struct {
	Note        string
	Hours       *float64
	EvidenceURL *string
}

// SkillService handles skill and skill log business logic
type SkillService struct {
	skills SkillRepository
	logs   SkillLogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewSkillService creates a new SkillService
func NewSkillService(skills SkillRepository, logs SkillLogRepository, logger *slog.Logger) *SkillService {
	return &SkillService{
		skills: skills,
		logs:   logs,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for last_activity. Intended for tests.
func (s *SkillService) SetClock(now func() time.Time) {
	s.now = now
}

func validLevel(level string) bool {
	switch level {
	case models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
		return true
	}
	return false
}

func validProgress(p *int) bool {
	return p == nil || (*p >= 0 && *p <= 100)
}

func validatePatch(patch models.SkillPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", models.ErrInvalidSkill)
	}
	if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
		return fmt.Errorf("%w: category must not be empty", models.ErrInvalidSkill)
	}
	if patch.Level != nil && !validLevel(*patch.Level) {
		return fmt.Errorf("%w: invalid level", models.ErrInvalidSkill)
	}
	if !validProgress(patch.CurrentProgress) || !validProgress(patch.GoalProgress) {
		return fmt.Errorf("%w: progress must be between 0 and 100", models.ErrInvalidSkill)
	}
	return nil
}

// checkID rejects ids that cannot exist so they never reach the database
func checkID(id string, notFound error) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound
	}
	return nil
}

// repoError keeps the not-found and validation sentinels and hides the rest
func (s *SkillService) repoError(op string, err error, notFound error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return notFound
	case errors.Is(err, models.ErrBadRequest):
		return models.ErrInvalidSkill
	}
	s.logger.Error("skill operation failed", slog.String("op", op), slog.Any("error", err))
	return models.ErrInternalServer
}

// Create stores a new skill for the user. Progress defaults to 0 of 100.
func (s *SkillService) Create(ctx context.Context, userID string, input CreateSkillInput) (*models.Skill, error) {
	skill := &models.Skill{
		UserID:          userID,
		Title:           strings.TrimSpace(input.Title),
		Category:        strings.TrimSpace(input.Category),
		Level:           input.Level,
		CurrentProgress: 0,
		GoalProgress:    100,
		Notes:           input.Notes,
	}
	if input.CurrentProgress != nil {
		skill.CurrentProgress = *input.CurrentProgress
	}
	if input.GoalProgress != nil {
		skill.GoalProgress = *input.GoalProgress
	}
	if input.LastActivity != nil {
		skill.LastActivity = *input.LastActivity
	} else {
		skill.LastActivity = s.now()
	}

	if skill.Title == "" || skill.Category == "" {
		return nil, fmt.Errorf("%w: title and category are required", models.ErrInvalidSkill)
	}
	if !validLevel(skill.Level) {
		return nil, fmt.Errorf("%w: invalid level", models.ErrInvalidSkill)
	}
	if !validProgress(&skill.CurrentProgress) || !validProgress(&skill.GoalProgress) {
		return nil, fmt.Errorf("%w: progress must be between 0 and 100", models.ErrInvalidSkill)
	}

	created, err := s.skills.Create(ctx, skill)
	if err != nil {
		return nil, s.repoError("create", err, models.ErrSkillNotFound)
	}

	s.logger.Info("skill created", slog.String("user_id", userID), slog.String("skill_id", created.ID))
	return created, nil
}

// List returns the user's skills, newest first
func (s *SkillService) List(ctx context.Context, userID string) ([]*models.Skill, error) {
	skills, err := s.skills.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.repoError("list", err, models.ErrSkillNotFound)
	}
	return skills, nil
}

// Get returns one of the user's skills
func (s *SkillService) Get(ctx context.Context, userID, id string) (*models.Skill, error) {
	if err := checkID(id, models.ErrSkillNotFound); err != nil {
		return nil, err
	}
	skill, err := s.skills.GetByID(ctx, id, userID)
	if err != nil {
		return nil, s.repoError("get", err, models.ErrSkillNotFound)
	}
	return skill, nil
}

// Update replaces the supplied fields without touching last_activity
func (s *SkillService) Update(ctx context.Context, userID, id string, patch models.SkillPatch) (*models.Skill, error) {
	if err := checkID(id, models.ErrSkillNotFound); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.Get(ctx, userID, id)
	}
	return s.update(ctx, userID, id, patch)
}

// Patch applies a partial update. Changing either progress value bumps last_activity.
func (s *SkillService) Patch(ctx context.Context, userID, id string, patch models.SkillPatch) (*models.Skill, error) {
	if err := checkID(id, models.ErrSkillNotFound); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, models.ErrEmptyUpdate
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.TouchesProgress() {
		now := s.now()
		patch.LastActivity = &now
	}
	return s.update(ctx, userID, id, patch)
}

// UpdateProgress sets current and/or goal progress and bumps last_activity
func (s *SkillService) UpdateProgress(ctx context.Context, userID, id string, current, goal *int) (*models.Skill, error) {
	if err := checkID(id, models.ErrSkillNotFound); err != nil {
		return nil, err
	}
	patch := models.SkillPatch{CurrentProgress: current, GoalProgress: goal}
	if !patch.TouchesProgress() {
		return nil, models.ErrEmptyUpdate
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	now := s.now()
	patch.LastActivity = &now
	return s.update(ctx, userID, id, patch)
}

func (s *SkillService) update(ctx context.Context, userID, id string, patch models.SkillPatch) (*models.Skill, error) {
	skill, err := s.skills.Update(ctx, id, userID, patch)
	if err != nil {
		return nil, s.repoError("update", err, models.ErrSkillNotFound)
	}
	return skill, nil
}

// Delete removes a skill and its logs
func (s *SkillService) Delete(ctx context.Context, userID, id string) error {
	if err := checkID(id, models.ErrSkillNotFound); err != nil {
		return err
	}
	if err := s.skills.Delete(ctx, id, userID); err != nil {
		return s.repoError("delete", err, models.ErrSkillNotFound)
	}
	s.logger.Info("skill deleted", slog.String("user_id", userID), slog.String("skill_id", id))
	return nil
}

// Summary returns a skill with totals over its logs
func (s *SkillService) Summary(ctx context.Context, userID, id string) (*models.Skill, *models.SkillSummary, error) {
	skill, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	summary, err := s.skills.Summary(ctx, id, userID)
	if err != nil {
		return nil, nil, s.repoError("summary", err, models.ErrSkillNotFound)
	}
	return skill, summary, nil
}

// CreateLog records progress against a skill and bumps its last_activity
func (s *SkillService) CreateLog(ctx context.Context, userID, skillID string, input CreateLogInput) (*models.SkillLog, error) {
	if err := checkID(skillID, models.ErrSkillNotFound); err != nil {
		return nil, err
	}
	note := strings.TrimSpace(input.Note)
	if note == "" {
		return nil, fmt.Errorf("%w: note required", models.ErrInvalidSkill)
	}
	if input.Hours != nil && *input.Hours < 0 {
		return nil, fmt.Errorf("%w: hours must not be negative", models.ErrInvalidSkill)
	}

	log, err := s.logs.Create(ctx, &models.SkillLog{
		UserID:      userID,
		SkillID:     skillID,
		Note:        note,
		Hours:       input.Hours,
		EvidenceURL: input.EvidenceURL,
	})
	if err != nil {
		return nil, s.repoError("create_log", err, models.ErrSkillNotFound)
	}
	return log, nil
}

// ListLogs returns a skill's logs, newest first
func (s *SkillService) ListLogs(ctx context.Context, userID, skillID string) ([]*models.SkillLog, error) {
	if _, err := s.Get(ctx, userID, skillID); err != nil {
		return nil, err
	}
	logs, err := s.logs.ListBySkill(ctx, skillID, userID)
	if err != nil {
		return nil, s.repoError("list_logs", err, models.ErrSkillNotFound)
	}
	return logs, nil
}

// DeleteLog removes one log; a foreign skill and a missing log are reported separately
func (s *SkillService) DeleteLog(ctx context.Context, userID, skillID, logID string) error {
	if _, err := s.Get(ctx, userID, skillID); err != nil {
		return err
	}
	if err := checkID(logID, models.ErrLogNotFound); err != nil {
		return err
	}
	if err := s.logs.Delete(ctx, logID, skillID, userID); err != nil {
		return s.repoError("delete_log", err, models.ErrLogNotFound)
	}
	return nil
}
