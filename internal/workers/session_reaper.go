package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	pgrepo "github.com/yoockh/hireview/internal/repositories/postgres"
	"github.com/yoockh/hireview/internal/services"
)

// SessionReaper finalizes sessions whose time limit expired without an
// explicit end event. It is the second finalize trigger next to the client's
// end; both may fire for the same session and both succeed.
type SessionReaper struct {
	Sessions pgrepo.SessionRepo
	Queue    services.FinalizeEnqueuer

	Interval  time.Duration
	BatchSize int

	Logger *logrus.Logger
}

func (r *SessionReaper) Start(ctx context.Context) error {
	if r.Sessions == nil || r.Queue == nil {
		return errors.New("SessionReaper missing dependency: Sessions/Queue must be set")
	}
	if r.Interval <= 0 {
		r.Interval = 30 * time.Second
	}
	if r.BatchSize <= 0 {
		r.BatchSize = 100
	}
	if r.Logger == nil {
		r.Logger = logrus.New()
	}

	go r.run(ctx)
	return nil
}

func (r *SessionReaper) run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *SessionReaper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	expired, err := r.Sessions.ListExpired(ctx, now, r.BatchSize)
	if err != nil {
		r.Logger.WithError(err).Error("expired session scan failed")
		return
	}

	for _, sess := range expired {
		log := r.Logger.WithField("session_id", sess.ID)

		elapsed := sess.TimeLimitSeconds
		changed, err := r.Sessions.Complete(ctx, sess.ID, now, &elapsed)
		if err != nil {
			log.WithError(err).Error("failed to complete expired session")
			continue
		}
		if !changed {
			// an explicit end won the race; it also enqueued finalization
			continue
		}

		if err := r.Queue.Enqueue(ctx, sess.ID); err != nil {
			// still IN_PROGRESS->COMPLETED flipped; the next sweep will not
			// see it again, so log loudly
			log.WithError(err).Error("failed to enqueue finalization for expired session")
			continue
		}
		log.Info("expired session finalized")
	}
}
