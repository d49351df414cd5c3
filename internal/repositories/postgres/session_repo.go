package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/utils"
	"gorm.io/gorm"
)

type SessionRepo interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)

	// CommitStep persists one state-machine step atomically: the inbound and
	// outbound messages are appended and the plan document is rewritten in a
	// single transaction. The update is guarded by the optimistic
	// plan_version check and by status = IN_PROGRESS, so a stale writer or a
	// finalize trigger that won the race gets utils.ErrConflict and nothing
	// is written.
	CommitStep(ctx context.Context, sessionID string, plan *models.QuestionPlan, expectedVersion int, msgs ...*models.Message) error

	// Complete transitions IN_PROGRESS -> COMPLETED. It reports whether this
	// call made the transition; an already-completed session returns false
	// with no error so concurrent finalize triggers all succeed.
	Complete(ctx context.Context, sessionID string, completedAt time.Time, elapsedSeconds *int64) (bool, error)

	// ListExpired returns in-progress sessions whose time limit has passed.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Session, error)
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepo {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, s *models.Session) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) Get(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *sessionRepo) CommitStep(ctx context.Context, sessionID string, plan *models.QuestionPlan, expectedVersion int, msgs ...*models.Message) error {
	raw, err := json.Marshal(plan)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Session{}).
			Where("id = ? AND plan_version = ? AND status = ?", sessionID, expectedVersion, models.StatusInProgress).
			Updates(map[string]any{
				"plan":         raw,
				"plan_version": expectedVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrConflict
		}

		for _, m := range msgs {
			if m == nil {
				continue
			}
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *sessionRepo) Complete(ctx context.Context, sessionID string, completedAt time.Time, elapsedSeconds *int64) (bool, error) {
	updates := map[string]any{
		"status":       models.StatusCompleted,
		"completed_at": completedAt.UTC(),
	}
	if elapsedSeconds != nil {
		updates["elapsed_seconds"] = *elapsedSeconds
	}

	res := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND status = ?", sessionID, models.StatusInProgress).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.Session
	err := r.db.WithContext(ctx).
		Where("status = ? AND time_limit_seconds > 0 AND started_at + make_interval(secs => time_limit_seconds) < ?",
			models.StatusInProgress, now.UTC()).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
