package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ModePractice = "PRACTICE"
	ModeReal     = "REAL"

	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusAbandoned  = "ABANDONED"
)

type Session struct {
	ID           string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CandidateID  string  `gorm:"column:candidate_id;type:uuid;index" json:"candidate_id"`
	JobPostingID *string `gorm:"column:job_posting_id;type:uuid" json:"job_posting_id,omitempty"`

	Mode   string `gorm:"column:mode;type:text" json:"mode"`           // PRACTICE | REAL
	Status string `gorm:"column:status;type:text;index" json:"status"` // IN_PROGRESS | COMPLETED | ABANDONED

	TimeLimitSeconds int64 `gorm:"column:time_limit_seconds" json:"time_limit_seconds"`
	VoiceMode        bool  `gorm:"column:voice_mode" json:"voice_mode"`
	QuestionCount    int   `gorm:"column:question_count" json:"question_count"`

	// Plan is the serialized QuestionPlan document. Every write goes through
	// a version-checked update; PlanVersion rejects stale writers.
	Plan        datatypes.JSON `gorm:"column:plan;type:jsonb" json:"plan"`
	PlanVersion int            `gorm:"column:plan_version" json:"plan_version"`

	StartedAt      time.Time  `gorm:"column:started_at;type:timestamptz" json:"started_at"`
	CompletedAt    *time.Time `gorm:"column:completed_at;type:timestamptz" json:"completed_at,omitempty"`
	ElapsedSeconds *int64     `gorm:"column:elapsed_seconds" json:"elapsed_seconds,omitempty"`
}

func (Session) TableName() string { return "interview_sessions" }
