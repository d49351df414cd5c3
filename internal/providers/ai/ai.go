package ai

import "context"

// TranscriptEntry is one turn of the conversation handed to the AI service.
type TranscriptEntry struct {
	Role    string `json:"role"` // AI | CANDIDATE
	Content string `json:"content"`
}

// Question is a generated interview question before it becomes a plan slot.
type Question struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Type         string `json:"type"`
	Category     string `json:"category"`
	MaxFollowUps int    `json:"max_follow_ups"`
}

type Scores struct {
	Communication  float64 `json:"communication_score"`
	Technical      float64 `json:"technical_score"`
	ProblemSolving float64 `json:"problem_solving_score"`
	Overall        float64 `json:"overall_score"`
}

type Feedback struct {
	Strengths            []string `json:"strengths"`
	Weaknesses           []string `json:"weaknesses"`
	Summary              string   `json:"summary"`
	RecommendedPositions []string `json:"recommended_positions"`
}

// Scorecard is the scoring service's verdict on a full transcript.
type Scorecard struct {
	Scores   Scores   `json:"scores"`
	Feedback Feedback `json:"feedback"`
}

// CandidateContext is the read-only profile slice passed to generation and
// scoring calls.
type CandidateContext struct {
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	DesiredPosition string   `json:"desired_position"`
}

// JobContext is the read-only job-posting slice passed to generation calls.
type JobContext struct {
	Title        string   `json:"title"`
	Position     string   `json:"position"`
	Requirements []string `json:"requirements"`
}

// Gateway abstracts the question/follow-up generation and transcript scoring
// service. Implementations own the call timeouts: generation stays on the
// interactive path and must fail fast, scoring may run much longer. Errors
// carry utils codes (TIMEOUT, UNAVAILABLE) so callers can tell a failed call
// from an empty result.
type Gateway interface {
	GenerateQuestionSet(ctx context.Context, profile *CandidateContext, job *JobContext, mode string) ([]Question, error)
	GenerateFollowUp(ctx context.Context, tail []TranscriptEntry) (string, error)
	ScoreInterview(ctx context.Context, transcript []TranscriptEntry, profile *CandidateContext) (*Scorecard, error)
	Close() error
}
