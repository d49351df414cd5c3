package models

import "time"

const (
	RoleAI        = "AI"
	RoleCandidate = "CANDIDATE"

	ContentText  = "TEXT"
	ContentAudio = "AUDIO"
)

// Message is one turn of the interview transcript. Rows are append-only;
// they are never updated or deleted.
type Message struct {
	ID        string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string `gorm:"column:session_id;type:uuid;index" json:"session_id"`

	Role        string  `gorm:"column:role;type:text" json:"role"`                 // AI | CANDIDATE
	Content     string  `gorm:"column:content;type:text" json:"content"`
	ContentType string  `gorm:"column:content_type;type:text" json:"content_type"` // TEXT | AUDIO
	AudioURL    *string `gorm:"column:audio_url;type:text" json:"audio_url,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (Message) TableName() string { return "interview_messages" }
