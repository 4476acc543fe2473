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

type SkillLogRepository struct {
	db *database.DB
}

func NewSkillLogRepository(db *database.DB) *SkillLogRepository {
	return &SkillLogRepository{db: db}
}

const skillLogColumns = `id, user_id, skill_id, note, hours, evidence_url, created_at, updated_at`

func scanSkillLogRow(scanner rowScanner) (*models.SkillLog, error) {
	var log models.SkillLog
	err := scanner.Scan(
		&log.ID, &log.UserID, &log.SkillID, &log.Note, &log.Hours, &log.EvidenceURL,
		&log.CreatedAt, &log.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &log, nil
}

// Create inserts a log and bumps the owning skill's last_activity in one transaction.
// Returns models.ErrNotFound if the skill does not belong to the log's user.
func (r *SkillLogRepository) Create(ctx context.Context, log *models.SkillLog) (*models.SkillLog, error) {
	log.ID = uuid.New().String()

	now := time.Now()
	log.CreatedAt = now
	log.UpdatedAt = now

	var created *models.SkillLog
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE skills SET last_activity = $3, updated_at = $3 WHERE id = $1 AND user_id = $2`,
			log.SkillID, log.UserID, now,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		query := `
			INSERT INTO skill_logs (id, user_id, skill_id, note, hours, evidence_url, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING ` + skillLogColumns

		created, err = scanSkillLogRow(tx.QueryRow(ctx, query,
			log.ID, log.UserID, log.SkillID, log.Note, log.Hours, log.EvidenceURL,
			log.CreatedAt, log.UpdatedAt,
		))
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// ListBySkill returns the logs of an owned skill, newest first
func (r *SkillLogRepository) ListBySkill(ctx context.Context, skillID, userID string) ([]*models.SkillLog, error) {
	query := `SELECT ` + skillLogColumns + ` FROM skill_logs WHERE skill_id = $1 AND user_id = $2 ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, skillID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query skill logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.SkillLog, 0)
	for rows.Next() {
		log, err := scanSkillLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skill log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return logs, nil
}

// Delete removes one log of an owned skill
func (r *SkillLogRepository) Delete(ctx context.Context, logID, skillID, userID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM skill_logs WHERE id = $1 AND skill_id = $2 AND user_id = $3`,
		logID, skillID, userID,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
