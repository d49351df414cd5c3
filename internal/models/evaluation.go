package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Evaluation is the scored result of a completed session. At most one row
// exists per session (unique index on session_id) and rows are immutable
// once created.
type Evaluation struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;type:uuid;uniqueIndex" json:"session_id"`

	// Communication
	DeliveryScore      float64 `gorm:"column:delivery_score" json:"delivery_score"`
	VocabularyScore    float64 `gorm:"column:vocabulary_score" json:"vocabulary_score"`
	ComprehensionScore float64 `gorm:"column:comprehension_score" json:"comprehension_score"`
	CommunicationAvg   float64 `gorm:"column:communication_avg" json:"communication_avg"`

	// Role-specific
	InformationAnalysis float64 `gorm:"column:information_analysis" json:"information_analysis"`
	ProblemSolving      float64 `gorm:"column:problem_solving" json:"problem_solving"`
	FlexibleThinking    float64 `gorm:"column:flexible_thinking" json:"flexible_thinking"`
	Negotiation         float64 `gorm:"column:negotiation" json:"negotiation"`
	ITSkills            float64 `gorm:"column:it_skills" json:"it_skills"`

	OverallScore float64 `gorm:"column:overall_score" json:"overall_score"`

	Strengths            datatypes.JSON `gorm:"column:strengths;type:jsonb" json:"strengths"`
	Weaknesses           datatypes.JSON `gorm:"column:weaknesses;type:jsonb" json:"weaknesses"`
	DetailedFeedback     string         `gorm:"column:detailed_feedback;type:text" json:"detailed_feedback"`
	RecommendedPositions pq.StringArray `gorm:"column:recommended_positions;type:text[]" json:"recommended_positions"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Evaluation) TableName() string { return "evaluations" }
