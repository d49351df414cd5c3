package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/hireview/internal/locks"
	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/providers/ai"
	pgrepo "github.com/yoockh/hireview/internal/repositories/postgres"
	"github.com/yoockh/hireview/internal/utils"
)

// TerminalMessage closes the conversation once every slot is exhausted.
const TerminalMessage = "That completes all of our questions. Thank you for your time! You can end the interview now to receive your evaluation."

const (
	stepLockTTL       = 30 * time.Second
	transcriptTailLen = 10
)

// StepResult is the single outbound message produced by one engine step.
type StepResult struct {
	Message    *models.Message `json:"message"`
	IsFollowUp bool            `json:"is_follow_up"`

	// Finished is set when the outbound message is the terminal one; the
	// session is then eligible for finalization and accepts no further steps.
	Finished bool `json:"finished"`
}

// InterviewService is the session state machine: it advances the question
// plan and decides the next outbound message for each inbound candidate
// message. All work for one session runs under that session's lock, so steps
// are strictly serialized no matter how many connections are open.
type InterviewService interface {
	// Begin delivers the first question (slot 0). It is idempotent: a
	// reconnecting client gets the already-delivered first message back.
	Begin(ctx context.Context, sessionID string) (*models.Message, error)

	// Step runs exactly one state-machine step for an inbound candidate
	// message and returns exactly one outbound AI message.
	Step(ctx context.Context, sessionID, content, contentType string, audioURL *string) (*StepResult, error)
}

type interviewService struct {
	sessions pgrepo.SessionRepo
	messages pgrepo.MessageRepo
	gw       ai.Gateway
	locker   locks.Locker
	log      *logrus.Logger
}

func NewInterviewService(sessions pgrepo.SessionRepo, messages pgrepo.MessageRepo, gw ai.Gateway, locker locks.Locker, log *logrus.Logger) InterviewService {
	return &interviewService{sessions: sessions, messages: messages, gw: gw, locker: locker, log: log}
}

func sessionLockKey(sessionID string) string { return "lock:session:" + sessionID }

func decodePlan(s *models.Session) (*models.QuestionPlan, error) {
	var plan models.QuestionPlan
	if err := json.Unmarshal(s.Plan, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *interviewService) Begin(ctx context.Context, sessionID string) (*models.Message, error) {
	const op = "InterviewService.Begin"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	release, err := s.locker.Acquire(ctx, sessionLockKey(sessionID), stepLockTTL)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to acquire session lock", err)
	}
	defer release()

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
	}
	if sess.Status != models.StatusInProgress {
		return nil, utils.E(utils.CodeConflict, op, "session is not in progress", nil)
	}

	// reconnect: replay the first question instead of appending a duplicate
	if first, err := s.messages.First(ctx, sessionID); err == nil {
		return first, nil
	} else if err != utils.ErrNotFound {
		return nil, utils.E(utils.CodeInternal, op, "failed to load first message", err)
	}

	plan, err := decodePlan(sess)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "corrupt question plan", err)
	}
	slot := plan.Current()
	if slot == nil {
		return nil, utils.E(utils.CodeConflict, op, "question plan is empty", nil)
	}

	msg := &models.Message{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Role:        models.RoleAI,
		Content:     slot.Text,
		ContentType: models.ContentText,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save first message", err)
	}
	return msg, nil
}

func (s *interviewService) Step(ctx context.Context, sessionID, content, contentType string, audioURL *string) (*StepResult, error) {
	const op = "InterviewService.Step"

	if sessionID == "" || content == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id and content are required", nil)
	}
	if contentType != models.ContentAudio {
		contentType = models.ContentText
	}

	release, err := s.locker.Acquire(ctx, sessionLockKey(sessionID), stepLockTTL)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to acquire session lock", err)
	}
	defer release()

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
	}
	if sess.Status != models.StatusInProgress {
		return nil, utils.E(utils.CodeConflict, op, "session is not accepting messages", nil)
	}

	plan, err := decodePlan(sess)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "corrupt question plan", err)
	}
	if plan.Finished {
		return nil, utils.E(utils.CodeConflict, op, "all questions already completed", nil)
	}

	log := s.log.WithFields(logrus.Fields{"session_id": sessionID, "cursor": plan.CurrentIndex})

	outText := TerminalMessage
	isFollowUp := false

	if plan.Exhausted() {
		plan.Finished = true
	} else {
		slot := plan.Current()
		slot.Asked = true

		if slot.CanFollowUp() {
			followUp, genErr := s.generateFollowUp(ctx, sessionID, content)
			if genErr != nil {
				// transient generation failure: fall back to advancing the
				// plan, never surface a broken turn to the candidate
				log.WithError(genErr).Warn("follow-up generation failed, advancing plan")
				plan.Advance()
			} else {
				// in-flight generation may have raced an end trigger; a
				// result arriving after finalization is discarded
				cur, err := s.sessions.Get(ctx, sessionID)
				if err != nil {
					return nil, utils.E(utils.CodeInternal, op, "failed to reload session", err)
				}
				if cur.Status != models.StatusInProgress {
					return nil, utils.E(utils.CodeConflict, op, "session finalized during step", nil)
				}
				slot.FollowUpCount++
				isFollowUp = true
				outText = followUp
				log.WithField("follow_up", slot.FollowUpCount).Debug("follow-up generated")
			}
		} else {
			plan.Advance()
		}

		if !isFollowUp {
			if next := plan.Current(); next != nil {
				outText = next.Text
			} else {
				plan.Finished = true
			}
		}
	}

	now := time.Now().UTC()
	inbound := &models.Message{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Role:        models.RoleCandidate,
		Content:     content,
		ContentType: contentType,
		AudioURL:    audioURL,
		CreatedAt:   now,
	}
	outbound := &models.Message{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Role:        models.RoleAI,
		Content:     outText,
		ContentType: models.ContentText,
		CreatedAt:   now.Add(time.Millisecond),
	}

	// plan mutation and both messages commit together; the commit is refused
	// when the plan version moved (another writer got in despite the lock,
	// e.g. after a TTL expiry) or the session left IN_PROGRESS between the
	// status re-check and here
	if err := s.sessions.CommitStep(ctx, sessionID, plan, sess.PlanVersion, inbound, outbound); err != nil {
		if err == utils.ErrConflict {
			return nil, utils.E(utils.CodeConflict, op, "session finalized or plan updated concurrently", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to persist step", err)
	}

	return &StepResult{Message: outbound, IsFollowUp: isFollowUp, Finished: plan.Finished}, nil
}

// generateFollowUp asks the gateway for a follow-up based on the recent
// transcript tail plus the answer that just came in.
func (s *interviewService) generateFollowUp(ctx context.Context, sessionID, lastAnswer string) (string, error) {
	recent, err := s.messages.LatestN(ctx, sessionID, transcriptTailLen)
	if err != nil {
		return "", err
	}

	tail := make([]ai.TranscriptEntry, 0, len(recent)+1)
	for _, m := range recent {
		tail = append(tail, ai.TranscriptEntry{Role: m.Role, Content: m.Content})
	}
	tail = append(tail, ai.TranscriptEntry{Role: models.RoleCandidate, Content: lastAnswer})

	return s.gw.GenerateFollowUp(ctx, tail)
}
