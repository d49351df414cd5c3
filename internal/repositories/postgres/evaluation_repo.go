package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/utils"
	"gorm.io/gorm"
)

type EvaluationRepo interface {
	GetBySessionID(ctx context.Context, sessionID string) (*models.Evaluation, error)

	// Insert writes a new evaluation. A unique violation on session_id is
	// surfaced as utils.ErrConflict so callers can treat the lost idempotency
	// race as success.
	Insert(ctx context.Context, e *models.Evaluation) error
}

type evaluationRepo struct {
	db *gorm.DB
}

func NewEvaluationRepo(db *gorm.DB) EvaluationRepo {
	return &evaluationRepo{db: db}
}

func (r *evaluationRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Evaluation, error) {
	var e models.Evaluation
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &e, err
}

func (r *evaluationRepo) Insert(ctx context.Context, e *models.Evaluation) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Create(e).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrConflict
	}
	return err
}
