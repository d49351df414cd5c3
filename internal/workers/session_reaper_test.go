package workers

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/utils"
)

type reaperSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newReaperSessionRepo() *reaperSessionRepo {
	return &reaperSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *reaperSessionRepo) Create(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *reaperSessionRepo) Get(_ context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *reaperSessionRepo) CommitStep(context.Context, string, *models.QuestionPlan, int, ...*models.Message) error {
	return errors.New("not used")
}

func (r *reaperSessionRepo) Complete(_ context.Context, sessionID string, completedAt time.Time, elapsedSeconds *int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.Status != models.StatusInProgress {
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

func (r *reaperSessionRepo) ListExpired(_ context.Context, now time.Time, limit int) ([]models.Session, error) {
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

type recordingQueue struct {
	mu       sync.Mutex
	enqueued []string
}

func (q *recordingQueue) Enqueue(_ context.Context, sessionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, sessionID)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestReaperSweepFinalizesExpiredSessions(t *testing.T) {
	repo := newReaperSessionRepo()
	queue := &recordingQueue{}
	ctx := context.Background()

	expiredID := uuid.NewString()
	require.NoError(t, repo.Create(ctx, &models.Session{
		ID:               expiredID,
		Status:           models.StatusInProgress,
		TimeLimitSeconds: 600,
		StartedAt:        time.Now().UTC().Add(-time.Hour),
	}))
	liveID := uuid.NewString()
	require.NoError(t, repo.Create(ctx, &models.Session{
		ID:               liveID,
		Status:           models.StatusInProgress,
		TimeLimitSeconds: 600,
		StartedAt:        time.Now().UTC(),
	}))

	r := &SessionReaper{Sessions: repo, Queue: queue, Logger: quietLogger()}
	r.sweep(ctx)

	got, err := repo.Get(ctx, expiredID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.ElapsedSeconds)
	assert.EqualValues(t, 600, *got.ElapsedSeconds, "elapsed is capped at the time limit")
	assert.Equal(t, []string{expiredID}, queue.enqueued)

	live, err := repo.Get(ctx, liveID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, live.Status)

	// a second sweep finds nothing new and enqueues nothing
	r.sweep(ctx)
	assert.Equal(t, []string{expiredID}, queue.enqueued)
}

func TestReaperSweepSkipsWhenExplicitEndWon(t *testing.T) {
	repo := newReaperSessionRepo()
	queue := &recordingQueue{}
	ctx := context.Background()

	id := uuid.NewString()
	require.NoError(t, repo.Create(ctx, &models.Session{
		ID:               id,
		Status:           models.StatusInProgress,
		TimeLimitSeconds: 600,
		StartedAt:        time.Now().UTC().Add(-time.Hour),
	}))

	// explicit end already completed the session
	_, err := repo.Complete(ctx, id, time.Now().UTC(), nil)
	require.NoError(t, err)

	r := &SessionReaper{Sessions: repo, Queue: queue, Logger: quietLogger()}
	r.sweep(ctx)

	assert.Empty(t, queue.enqueued, "the reaper must not double-enqueue a session another trigger completed")
}
