package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/providers/ai"
	"github.com/yoockh/hireview/internal/utils"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// --- session repo ---

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	msgs     []models.Message

	beforeCommit func() // runs at the start of CommitStep, before its guards
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) Get(_ context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) CommitStep(_ context.Context, sessionID string, plan *models.QuestionPlan, expectedVersion int, msgs ...*models.Message) error {
	if r.beforeCommit != nil {
		r.beforeCommit()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	if s.PlanVersion != expectedVersion || s.Status != models.StatusInProgress {
		return utils.ErrConflict
	}
	raw, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	s.Plan = raw
	s.PlanVersion++
	for _, m := range msgs {
		if m != nil {
			r.appendLocked(m)
		}
	}
	return nil
}

func (r *fakeSessionRepo) Complete(_ context.Context, sessionID string, completedAt time.Time, elapsedSeconds *int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if s.Status != models.StatusInProgress {
		return false, nil
	}
	s.Status = models.StatusCompleted
	t := completedAt.UTC()
	s.CompletedAt = &t
	if elapsedSeconds != nil {
		s.ElapsedSeconds = elapsedSeconds
	}
	return true, nil
}

func (r *fakeSessionRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Session
	for _, s := range r.sessions {
		if s.Status != models.StatusInProgress || s.TimeLimitSeconds <= 0 {
			continue
		}
		if s.StartedAt.Add(time.Duration(s.TimeLimitSeconds) * time.Second).Before(now) {
			out = append(out, *s)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// messages live on the session repo so CommitStep can append under one lock
type fakeMessageRepo struct {
	sr *fakeSessionRepo
}

func (r *fakeSessionRepo) appendLocked(m *models.Message) {
	cp := *m
	r.msgs = append(r.msgs, cp)
}

func (r *fakeMessageRepo) Append(_ context.Context, m *models.Message) error {
	r.sr.mu.Lock()
	defer r.sr.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.sr.appendLocked(m)
	return nil
}

func (r *fakeMessageRepo) ListBySession(_ context.Context, sessionID string, limit int) ([]models.Message, error) {
	r.sr.mu.Lock()
	defer r.sr.mu.Unlock()
	var out []models.Message
	for _, m := range r.sr.msgs {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) First(_ context.Context, sessionID string) (*models.Message, error) {
	r.sr.mu.Lock()
	defer r.sr.mu.Unlock()
	for _, m := range r.sr.msgs {
		if m.SessionID == sessionID {
			cp := m
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeMessageRepo) LatestN(_ context.Context, sessionID string, n int) ([]models.Message, error) {
	all, err := r.ListBySession(context.Background(), sessionID, 0)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (r *fakeMessageRepo) CountBySession(_ context.Context, sessionID string) (int64, error) {
	all, err := r.ListBySession(context.Background(), sessionID, 0)
	return int64(len(all)), err
}

// --- evaluation repo ---

type fakeEvaluationRepo struct {
	mu    sync.Mutex
	evals map[string]*models.Evaluation

	inserts      int
	beforeInsert func() // runs inside Insert, before the uniqueness check
}

func newFakeEvaluationRepo() *fakeEvaluationRepo {
	return &fakeEvaluationRepo{evals: make(map[string]*models.Evaluation)}
}

func (r *fakeEvaluationRepo) GetBySessionID(_ context.Context, sessionID string) (*models.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.evals[sessionID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEvaluationRepo) Insert(_ context.Context, e *models.Evaluation) error {
	if r.beforeInsert != nil {
		r.beforeInsert()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.evals[e.SessionID]; ok {
		return utils.ErrConflict
	}
	cp := *e
	r.evals[e.SessionID] = &cp
	r.inserts++
	return nil
}

func (r *fakeEvaluationRepo) put(e *models.Evaluation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.evals[e.SessionID] = &cp
}

// --- gateway ---

type fakeGateway struct {
	questionSet func(mode string) ([]ai.Question, error)
	followUp    func(tail []ai.TranscriptEntry) (string, error)
	score       func(transcript []ai.TranscriptEntry) (*ai.Scorecard, error)

	mu            sync.Mutex
	followUpCalls int
	scoreCalls    int
}

func (g *fakeGateway) GenerateQuestionSet(_ context.Context, _ *ai.CandidateContext, _ *ai.JobContext, mode string) ([]ai.Question, error) {
	if g.questionSet != nil {
		return g.questionSet(mode)
	}
	return nil, errors.New("no question set configured")
}

func (g *fakeGateway) GenerateFollowUp(_ context.Context, tail []ai.TranscriptEntry) (string, error) {
	g.mu.Lock()
	g.followUpCalls++
	g.mu.Unlock()
	if g.followUp != nil {
		return g.followUp(tail)
	}
	return "Could you tell me more about that?", nil
}

func (g *fakeGateway) ScoreInterview(_ context.Context, transcript []ai.TranscriptEntry, _ *ai.CandidateContext) (*ai.Scorecard, error) {
	g.mu.Lock()
	g.scoreCalls++
	g.mu.Unlock()
	if g.score != nil {
		return g.score(transcript)
	}
	return &ai.Scorecard{
		Scores: ai.Scores{Communication: 70, Technical: 80, ProblemSolving: 60, Overall: 72},
		Feedback: ai.Feedback{
			Strengths:  []string{"clear answers"},
			Weaknesses: []string{"short examples"},
			Summary:    "solid overall",
		},
	}, nil
}

func (g *fakeGateway) Close() error { return nil }

// --- context provider ---

type fakeContextProvider struct {
	profile *ai.CandidateContext
	job     *ai.JobContext
}

func (p *fakeContextProvider) Candidate(_ context.Context, _ string) (*ai.CandidateContext, error) {
	if p.profile == nil {
		return nil, utils.ErrNotFound
	}
	return p.profile, nil
}

func (p *fakeContextProvider) Job(_ context.Context, id *string) (*ai.JobContext, error) {
	if p.job == nil || id == nil {
		return nil, utils.ErrNotFound
	}
	return p.job, nil
}

// --- notifier ---

type notification struct {
	UserID, Type, Title, Message, Link string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, userID, typ, title, message, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification{UserID: userID, Type: typ, Title: title, Message: message, Link: link})
	return nil
}

func (n *fakeNotifier) byType(typ string) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification
	for _, s := range n.sent {
		if s.Type == typ {
			out = append(out, s)
		}
	}
	return out
}

// --- finalize queue ---

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []string
	err      error
}

func (q *fakeQueue) Enqueue(_ context.Context, sessionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, sessionID)
	return nil
}
