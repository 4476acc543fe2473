package models

import "time"

// Skill levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Skill is a tracked skill owned by a single user
type Skill struct {
	ID              string
	UserID          string
	Title           string
	Category        string
	Level           string
	CurrentProgress int
	GoalProgress    int
	Notes           *string
	LastActivity    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SkillLog is a progress entry recorded against a skill
type SkillLog struct {
	ID          string
	UserID      string
	SkillID     string
	Note        string
	Hours       *float64
	EvidenceURL *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SkillSummary aggregates the logs of one skill
type SkillSummary struct {
	TotalLogs    int
	TotalHours   float64
	LastActivity *time.Time
}

// SkillPatch carries optional field updates; nil fields are left unchanged
type SkillPatch struct {
	Title           *string
	Category        *string
	Level           *string
	CurrentProgress *int
	GoalProgress    *int
	Notes           *string
	LastActivity    *time.Time
}

// IsEmpty reports whether the patch changes nothing
func (p SkillPatch) IsEmpty() bool {
	return p.Title == nil && p.Category == nil && p.Level == nil &&
		p.CurrentProgress == nil && p.GoalProgress == nil &&
		p.Notes == nil && p.LastActivity == nil
}

// TouchesProgress reports whether the patch changes either progress value
func (p SkillPatch) TouchesProgress() bool {
	return p.CurrentProgress != nil || p.GoalProgress != nil
}
