package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// CandidateProfile is a read-only context provider for question generation
// and scoring. Profile CRUD lives in another service.
type CandidateProfile struct {
	UserID          string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	DesiredPosition string `gorm:"column:desired_position;type:text" json:"desired_position"`
	Bio             string `gorm:"column:bio;type:text" json:"bio"`

	Skills          pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`
	ExperienceYears int            `gorm:"column:experience_years" json:"experience_years"`

	Education datatypes.JSON `gorm:"column:education;type:jsonb" json:"education"`
	Projects  datatypes.JSON `gorm:"column:projects;type:jsonb" json:"projects"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (CandidateProfile) TableName() string { return "candidate_profiles" }

// JobPosting is the read-only job context attached to a session.
type JobPosting struct {
	ID           string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title        string         `gorm:"column:title;type:text" json:"title"`
	Position     string         `gorm:"column:position;type:text" json:"position"`
	Requirements pq.StringArray `gorm:"column:requirements;type:text[]" json:"requirements"`
	Status       string         `gorm:"column:status;type:text" json:"status"`
}

func (JobPosting) TableName() string { return "job_postings" }
