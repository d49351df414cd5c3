package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/hireview/internal/models"
	pgrepo "github.com/yoockh/hireview/internal/repositories/postgres"
	"github.com/yoockh/hireview/internal/utils"
)

const defaultTimeLimitSeconds = 900

// FinalizeEnqueuer hands a completed session to the evaluation queue.
// Delivery is at-least-once; the pipeline's idempotency guard absorbs
// duplicates.
type FinalizeEnqueuer interface {
	Enqueue(ctx context.Context, sessionID string) error
}

type StartSessionInput struct {
	Mode            string             `json:"mode"`
	DurationMinutes int                `json:"duration"`
	VoiceMode       *bool              `json:"voice_mode"`
	JobPostingID    *string            `json:"job_posting_id"`
	Selected        []SelectedQuestion `json:"selected_questions"`
	Custom          []string           `json:"custom_questions"`
}

type SessionService interface {
	Start(ctx context.Context, candidateID string, in StartSessionInput) (*models.Session, *models.QuestionPlan, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Messages(ctx context.Context, sessionID string, limit int) ([]models.Message, error)

	// Complete transitions the session to COMPLETED and enqueues
	// finalization. It succeeds even when another trigger already won the
	// transition, so explicit end, time-limit expiry, and client retries can
	// all fire for the same session.
	Complete(ctx context.Context, sessionID string, elapsedSeconds *int64) error
}

type sessionService struct {
	sessions pgrepo.SessionRepo
	messages pgrepo.MessageRepo
	builder  PlanBuilder
	context  ContextProvider
	queue    FinalizeEnqueuer
	log      *logrus.Logger
}

func NewSessionService(sessions pgrepo.SessionRepo, messages pgrepo.MessageRepo, builder PlanBuilder, contexts ContextProvider, queue FinalizeEnqueuer, log *logrus.Logger) SessionService {
	return &sessionService{sessions: sessions, messages: messages, builder: builder, context: contexts, queue: queue, log: log}
}

func (s *sessionService) Start(ctx context.Context, candidateID string, in StartSessionInput) (*models.Session, *models.QuestionPlan, error) {
	const op = "SessionService.Start"

	if candidateID == "" {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "candidate_id is required", nil)
	}

	mode := in.Mode
	if mode == "" {
		mode = models.ModePractice
	}
	if mode != models.ModePractice && mode != models.ModeReal {
		return nil, nil, utils.E(utils.CodeInvalidArgument, op, "mode must be PRACTICE or REAL", nil)
	}

	profile, err := s.context.Candidate(ctx, candidateID)
	if err != nil && err != utils.ErrNotFound {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to load candidate profile", err)
	}

	job, err := s.context.Job(ctx, in.JobPostingID)
	if err != nil && err != utils.ErrNotFound {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to load job posting", err)
	}

	plan, err := s.builder.Build(ctx, BuildPlanInput{
		Selected: in.Selected,
		Custom:   in.Custom,
		Mode:     mode,
		Profile:  profile,
		Job:      job,
	})
	if err != nil {
		return nil, nil, err
	}

	raw, err := json.Marshal(plan)
	if err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to encode question plan", err)
	}

	timeLimit := int64(defaultTimeLimitSeconds)
	if in.DurationMinutes > 0 {
		timeLimit = int64(in.DurationMinutes) * 60
	}

	voiceMode := mode == models.ModeReal
	if in.VoiceMode != nil {
		voiceMode = *in.VoiceMode
	}

	sess := &models.Session{
		ID:               uuid.NewString(),
		CandidateID:      candidateID,
		JobPostingID:     in.JobPostingID,
		Mode:             mode,
		Status:           models.StatusInProgress,
		TimeLimitSeconds: timeLimit,
		VoiceMode:        voiceMode,
		QuestionCount:    len(plan.Questions),
		Plan:             raw,
		PlanVersion:      0,
		StartedAt:        time.Now().UTC(),
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}

	s.log.WithFields(logrus.Fields{
		"session_id":     sess.ID,
		"mode":           mode,
		"question_count": sess.QuestionCount,
	}).Info("interview session started")

	return sess, plan, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if err == utils.ErrNotFound {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return sess, nil
}

func (s *sessionService) Messages(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	const op = "SessionService.Messages"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	rows, err := s.messages.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list messages", err)
	}
	return rows, nil
}

func (s *sessionService) Complete(ctx context.Context, sessionID string, elapsedSeconds *int64) error {
	const op = "SessionService.Complete"

	if sessionID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	changed, err := s.sessions.Complete(ctx, sessionID, time.Now().UTC(), elapsedSeconds)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to complete session", err)
	}

	if !changed {
		s.log.WithField("session_id", sessionID).Debug("session already completed")
	}

	if err := s.queue.Enqueue(ctx, sessionID); err != nil {
		// the session is already COMPLETED; the caller can safely retry the
		// trigger thanks to the pipeline's idempotency guard
		s.log.WithError(err).WithField("session_id", sessionID).Error("failed to enqueue finalization")
		return utils.E(utils.CodeUnavailable, op, "failed to enqueue evaluation", err)
	}
	return nil
}
