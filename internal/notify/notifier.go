package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	TypeEvaluationCompleted = "EVALUATION_COMPLETED"
	TypeSystem              = "SYSTEM"
)

// Notifier delivers user-facing notifications. Delivery is fire-and-forget:
// a failed notification must never roll back persisted state, so callers
// log and drop errors.
type Notifier interface {
	Notify(ctx context.Context, userID, typ, title, message, link string) error
}

// RedisNotifier publishes notification payloads to the user's pub/sub
// channel; the delivery service fans them out from there.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

type payload struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *RedisNotifier) Notify(ctx context.Context, userID, typ, title, message, link string) error {
	b, err := json.Marshal(payload{
		Type:      typ,
		Title:     title,
		Message:   message,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, "user:"+userID+":notifications", string(b)).Err()
}
