package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/notify"
	"github.com/yoockh/hireview/internal/providers/ai"
	pgrepo "github.com/yoockh/hireview/internal/repositories/postgres"
	"github.com/yoockh/hireview/internal/utils"
)

// minTranscriptMessages is the smallest transcript worth scoring: at least
// one question and one answer.
const minTranscriptMessages = 2

type FinalizeOutcome string

const (
	OutcomeCreated          FinalizeOutcome = "CREATED"
	OutcomeAlreadyEvaluated FinalizeOutcome = "ALREADY_EVALUATED"
	OutcomeInsufficientData FinalizeOutcome = "INSUFFICIENT_DATA"
)

// EvaluationService turns a completed transcript into exactly one persisted
// evaluation. Finalize may be invoked any number of times — explicit end,
// time-limit expiry, queue redelivery, client retry — and at most one row is
// ever observable.
type EvaluationService interface {
	// finalAttempt marks the last delivery attempt for this trigger; it only
	// changes the failure messaging to the candidate, never the outcome.
	Finalize(ctx context.Context, sessionID string, finalAttempt bool) (FinalizeOutcome, *models.Evaluation, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Evaluation, error)
}

type evaluationService struct {
	sessions pgrepo.SessionRepo
	messages pgrepo.MessageRepo
	evals    pgrepo.EvaluationRepo
	context  ContextProvider
	gw       ai.Gateway
	notifier notify.Notifier
	log      *logrus.Logger
}

func NewEvaluationService(sessions pgrepo.SessionRepo, messages pgrepo.MessageRepo, evals pgrepo.EvaluationRepo, contexts ContextProvider, gw ai.Gateway, notifier notify.Notifier, log *logrus.Logger) EvaluationService {
	return &evaluationService{
		sessions: sessions,
		messages: messages,
		evals:    evals,
		context:  contexts,
		gw:       gw,
		notifier: notifier,
		log:      log,
	}
}

func (s *evaluationService) Finalize(ctx context.Context, sessionID string, finalAttempt bool) (FinalizeOutcome, *models.Evaluation, error) {
	const op = "EvaluationService.Finalize"

	if sessionID == "" {
		return "", nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	log := s.log.WithField("session_id", sessionID)

	// check-first: an existing evaluation makes every later trigger a no-op
	if existing, err := s.evals.GetBySessionID(ctx, sessionID); err == nil {
		log.Debug("evaluation already exists, skipping")
		return OutcomeAlreadyEvaluated, existing, nil
	} else if err != utils.ErrNotFound {
		return "", nil, utils.E(utils.CodeInternal, op, "failed to check existing evaluation", err)
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if err == utils.ErrNotFound {
			return "", nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return "", nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}

	msgs, err := s.messages.ListBySession(ctx, sessionID, 0)
	if err != nil {
		return "", nil, utils.E(utils.CodeInternal, op, "failed to load transcript", err)
	}
	if len(msgs) < minTranscriptMessages {
		// terminal for this invocation: log, tell the user once, write nothing
		log.WithField("messages", len(msgs)).Warn("transcript too short to evaluate")
		s.notifyQuietly(ctx, sess.CandidateID, notify.TypeSystem, "Evaluation not available",
			"The interview was too short to evaluate. Please complete a full interview and try again.", "/dashboard")
		return OutcomeInsufficientData, nil, nil
	}

	transcript := make([]ai.TranscriptEntry, 0, len(msgs))
	for _, m := range msgs {
		transcript = append(transcript, ai.TranscriptEntry{Role: m.Role, Content: m.Content})
	}

	profile, err := s.context.Candidate(ctx, sess.CandidateID)
	if err != nil && err != utils.ErrNotFound {
		log.WithError(err).Warn("candidate context unavailable, scoring without profile")
		profile = nil
	}

	card, err := s.gw.ScoreInterview(ctx, transcript, profile)
	if err != nil {
		// no partial write; the trigger may be retried later and the
		// check-first guard keeps retries duplicate-free. Only promise a
		// retry when one is actually coming.
		log.WithError(err).Error("interview scoring failed")
		if finalAttempt {
			s.notifyQuietly(ctx, sess.CandidateID, notify.TypeSystem, "Evaluation failed",
				"We could not score your interview. Please contact support if this keeps happening.", "/dashboard")
		} else {
			s.notifyQuietly(ctx, sess.CandidateID, notify.TypeSystem, "Evaluation delayed",
				"We hit a problem while scoring your interview. It will be retried shortly.", "/dashboard")
		}
		return "", nil, utils.E(utils.CodeUnavailable, op, "scoring failed", err)
	}

	eval, err := buildEvaluation(sessionID, card)
	if err != nil {
		return "", nil, utils.E(utils.CodeInternal, op, "failed to build evaluation", err)
	}

	if err := s.evals.Insert(ctx, eval); err != nil {
		if err == utils.ErrConflict {
			// lost the idempotency race: another trigger already persisted
			// the row, which is a success, not an error
			log.Debug("evaluation already written by a concurrent trigger")
			existing, getErr := s.evals.GetBySessionID(ctx, sessionID)
			if getErr != nil {
				return "", nil, utils.E(utils.CodeInternal, op, "failed to load winning evaluation", getErr)
			}
			return OutcomeAlreadyEvaluated, existing, nil
		}
		return "", nil, utils.E(utils.CodeInternal, op, "failed to persist evaluation", err)
	}

	log.WithField("overall_score", eval.OverallScore).Info("evaluation created")

	modeLabel := "practice"
	if sess.Mode == models.ModeReal {
		modeLabel = "real"
	}
	s.notifyQuietly(ctx, sess.CandidateID, notify.TypeEvaluationCompleted, "Interview evaluation ready",
		fmt.Sprintf("Your %s interview has been evaluated. Overall score: %.0f.", modeLabel, eval.OverallScore),
		"/evaluation/"+sessionID)

	return OutcomeCreated, eval, nil
}

func (s *evaluationService) GetBySessionID(ctx context.Context, sessionID string) (*models.Evaluation, error) {
	const op = "EvaluationService.GetBySessionID"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	eval, err := s.evals.GetBySessionID(ctx, sessionID)
	if err != nil {
		if err == utils.ErrNotFound {
			return nil, utils.E(utils.CodeNotFound, op, "evaluation not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get evaluation", err)
	}
	return eval, nil
}

// notifyQuietly is fire-and-forget: notification failures never affect
// already-persisted state.
func (s *evaluationService) notifyQuietly(ctx context.Context, userID, typ, title, message, link string) {
	if err := s.notifier.Notify(ctx, userID, typ, title, message, link); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("notification delivery failed")
	}
}

// buildEvaluation maps the gateway scorecard onto the evaluation columns.
// The three scored dimensions fan out to the nine columns the reporting side
// expects.
func buildEvaluation(sessionID string, card *ai.Scorecard) (*models.Evaluation, error) {
	strengths, err := json.Marshal(orEmpty(card.Feedback.Strengths))
	if err != nil {
		return nil, err
	}
	weaknesses, err := json.Marshal(orEmpty(card.Feedback.Weaknesses))
	if err != nil {
		return nil, err
	}

	sc := card.Scores
	return &models.Evaluation{
		ID:        uuid.NewString(),
		SessionID: sessionID,

		DeliveryScore:      sc.Communication,
		VocabularyScore:    sc.Communication,
		ComprehensionScore: sc.Communication,
		CommunicationAvg:   sc.Communication,

		InformationAnalysis: sc.Technical,
		ProblemSolving:      sc.ProblemSolving,
		FlexibleThinking:    sc.ProblemSolving,
		Negotiation:         sc.Communication,
		ITSkills:            sc.Technical,

		OverallScore: sc.Overall,

		Strengths:            strengths,
		Weaknesses:           weaknesses,
		DetailedFeedback:     card.Feedback.Summary,
		RecommendedPositions: pq.StringArray(orEmpty(card.Feedback.RecommendedPositions)),
	}, nil
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
