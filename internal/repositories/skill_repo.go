package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/skilltrack/internal/database"
	"github.com/BradenHooton/skilltrack/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SkillRepository struct {
	db *database.DB
}

func NewSkillRepository(db *database.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

const skillColumns = `id, user_id, title, category, level, current_progress, goal_progress, notes, last_activity, created_at, updated_at`

func scanSkillRow(scanner rowScanner) (*models.Skill, error) {
	var skill models.Skill
	err := scanner.Scan(
		&skill.ID, &skill.UserID, &skill.Title, &skill.Category, &skill.Level,
		&skill.CurrentProgress, &skill.GoalProgress, &skill.Notes,
		&skill.LastActivity, &skill.CreatedAt, &skill.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &skill, nil
}

func (r *SkillRepository) Create(ctx context.Context, skill *models.Skill) (*models.Skill, error) {
	skill.ID = uuid.New().String()

	now := time.Now()
	skill.CreatedAt = now
	skill.UpdatedAt = now
	if skill.LastActivity.IsZero() {
		skill.LastActivity = now
	}

	query := `
		INSERT INTO skills (id, user_id, title, category, level, current_progress, goal_progress, notes, last_activity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + skillColumns

	return scanSkillRow(r.db.Pool.QueryRow(ctx, query,
		skill.ID, skill.UserID, skill.Title, skill.Category, skill.Level,
		skill.CurrentProgress, skill.GoalProgress, skill.Notes,
		skill.LastActivity, skill.CreatedAt, skill.UpdatedAt,
	))
}

// GetByID returns the skill only if userID owns it
func (r *SkillRepository) GetByID(ctx context.Context, id, userID string) (*models.Skill, error) {
	query := `SELECT ` + skillColumns + ` FROM skills WHERE id = $1 AND user_id = $2`
	return scanSkillRow(r.db.Pool.QueryRow(ctx, query, id, userID))
}

// ListByUser returns the user's skills, newest first
func (r *SkillRepository) ListByUser(ctx context.Context, userID string) ([]*models.Skill, error) {
	query := `SELECT ` + skillColumns + ` FROM skills WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query skills: %w", err)
	}
	defer rows.Close()

	skills := make([]*models.Skill, 0)
	for rows.Next() {
		skill, err := scanSkillRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, skill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return skills, nil
}

// Update applies the non-nil fields of patch to an owned skill
func (r *SkillRepository) Update(ctx context.Context, id, userID string, patch models.SkillPatch) (*models.Skill, error) {
	query := `
		UPDATE skills SET
			title            = COALESCE($3, title),
			category         = COALESCE($4, category),
			level            = COALESCE($5, level),
			current_progress = COALESCE($6, current_progress),
			goal_progress    = COALESCE($7, goal_progress),
			notes            = COALESCE($8, notes),
			last_activity    = COALESCE($9, last_activity),
			updated_at       = $10
		WHERE id = $1 AND user_id = $2
		RETURNING ` + skillColumns

	return scanSkillRow(r.db.Pool.QueryRow(ctx, query,
		id, userID,
		patch.Title, patch.Category, patch.Level,
		patch.CurrentProgress, patch.GoalProgress, patch.Notes,
		patch.LastActivity, time.Now(),
	))
}

// Delete removes an owned skill together with its logs
func (r *SkillRepository) Delete(ctx context.Context, id, userID string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM skill_logs WHERE skill_id = $1 AND user_id = $2`, id, userID); err != nil {
			return fmt.Errorf("failed to delete skill logs: %w", database.MapPostgresError(err))
		}

		tag, err := tx.Exec(ctx, `DELETE FROM skills WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to delete skill: %w", database.MapPostgresError(err))
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// Summary aggregates the logs recorded against an owned skill
func (r *SkillRepository) Summary(ctx context.Context, id, userID string) (*models.SkillSummary, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(hours), 0), MAX(created_at)
		FROM skill_logs WHERE skill_id = $1 AND user_id = $2
	`

	var summary models.SkillSummary
	err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(
		&summary.TotalLogs, &summary.TotalHours, &summary.LastActivity,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &summary, nil
}
