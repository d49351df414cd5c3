package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/hireview/internal/services"
	"github.com/yoockh/hireview/internal/utils"
)

// EvaluationQueue is the at-least-once hand-off between finalize triggers
// and the evaluation pipeline, backed by a Redis stream with a consumer
// group. Redelivery and retries are safe because the pipeline is idempotent.
type EvaluationQueue struct {
	Redis     *redis.Client
	Evaluator services.EvaluationService

	NumWorkers  int
	MaxAttempts int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

// Enqueue pushes a finalize trigger for the session.
func (q *EvaluationQueue) Enqueue(ctx context.Context, sessionID string) error {
	return q.enqueue(ctx, sessionID, 1)
}

func (q *EvaluationQueue) enqueue(ctx context.Context, sessionID string, attempt int) error {
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: q.Stream,
		Values: map[string]any{
			"session_id": sessionID,
			"attempt":    strconv.Itoa(attempt),
		},
	}).Err()
}

func (q *EvaluationQueue) Start(ctx context.Context) error {
	if q.Redis == nil || q.Evaluator == nil {
		return errors.New("EvaluationQueue missing dependency: Redis/Evaluator must be set")
	}
	if q.Stream == "" {
		q.Stream = "evaluation:finalize"
	}
	if q.Group == "" {
		q.Group = "evaluation-workers"
	}
	if q.ConsumerPrefix == "" {
		q.ConsumerPrefix = "e"
	}
	if q.NumWorkers <= 0 {
		q.NumWorkers = 3
	}
	if q.MaxAttempts <= 0 {
		q.MaxAttempts = 3
	}
	if q.Logger == nil {
		q.Logger = logrus.New()
	}

	_ = q.Redis.XGroupCreateMkStream(ctx, q.Stream, q.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < q.NumWorkers; i++ {
		consumer := q.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go q.runConsumer(ctx, consumer)
	}
	return nil
}

func (q *EvaluationQueue) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := q.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.Group,
			Consumer: consumer,
			Streams:  []string{q.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				q.handleMsg(ctx, msg)
				_ = q.Redis.XAck(ctx, q.Stream, q.Group, msg.ID).Err()
			}
		}
	}
}

func (q *EvaluationQueue) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	sessionID := getStr("session_id")
	if sessionID == "" {
		return
	}
	attempt, _ := strconv.Atoi(getStr("attempt"))
	if attempt <= 0 {
		attempt = 1
	}

	log := q.Logger.WithFields(logrus.Fields{
		"redis_id":   msg.ID,
		"session_id": sessionID,
		"attempt":    attempt,
	})

	outcome, _, err := q.Evaluator.Finalize(ctx, sessionID, attempt >= q.MaxAttempts)
	if err == nil {
		log.WithField("outcome", string(outcome)).Info("finalization handled")
		return
	}

	// only gateway-side failures are worth retrying; everything else
	// (bad session id, insufficient data) is terminal for the trigger
	if utils.IsCode(err, utils.CodeUnavailable) || utils.IsCode(err, utils.CodeTimeout) {
		if attempt < q.MaxAttempts {
			if reqErr := q.enqueue(ctx, sessionID, attempt+1); reqErr != nil {
				log.WithError(reqErr).Error("failed to re-enqueue finalization")
				return
			}
			log.WithError(err).Warn("finalization failed, re-enqueued")
			return
		}
		log.WithError(err).Error("finalization failed, retry budget exhausted")
		return
	}

	log.WithError(err).Error("finalization failed")
}
