package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/utils"
	"gorm.io/gorm"
)

type MessageRepo interface {
	Append(ctx context.Context, m *models.Message) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	First(ctx context.Context, sessionID string) (*models.Message, error)
	LatestN(ctx context.Context, sessionID string, n int) ([]models.Message, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepo{db: db}
}

func (r *messageRepo) Append(ctx context.Context, m *models.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *messageRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	q := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.Message
	err := q.Find(&rows).Error
	return rows, err
}

func (r *messageRepo) First(ctx context.Context, sessionID string) (*models.Message, error) {
	var m models.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &m, err
}

// LatestN returns the most recent n messages in chronological order.
func (r *messageRepo) LatestN(ctx context.Context, sessionID string, n int) ([]models.Message, error) {
	if n <= 0 {
		n = 10
	}
	var rows []models.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (r *messageRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error
	return n, err
}
