package mongo

import (
	"context"
	"time"

	"github.com/yoockh/hireview/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepository interface {
	Append(ctx context.Context, ev *models.SessionEvent) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.SessionEvent, error)
}

type eventRepo struct {
	col *mongo.Collection
}

func NewEventRepo(db *mongo.Database) EventRepository {
	return &eventRepo{col: db.Collection("session_events")}
}

func (r *eventRepo) Append(ctx context.Context, ev *models.SessionEvent) error {
	now := time.Now().UTC()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = now
	}
	if ev.ExpiresAt.IsZero() {
		ev.ExpiresAt = now.Add(30 * 24 * time.Hour)
	}
	_, err := r.col.InsertOne(ctx, ev)
	return err
}

func (r *eventRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.SessionEvent, error) {
	if limit <= 0 {
		limit = 200
	}

	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.SessionEvent
	err = cur.All(ctx, &out)
	return out, err
}
