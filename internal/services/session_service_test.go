package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/providers/ai"
	"github.com/yoockh/hireview/internal/utils"
)

func newSessionFixture() (*fakeSessionRepo, *fakeQueue, SessionService) {
	sessions := newFakeSessionRepo()
	messages := &fakeMessageRepo{sr: sessions}
	queue := &fakeQueue{}
	gw := &fakeGateway{
		questionSet: func(string) ([]ai.Question, error) {
			return []ai.Question{
				{ID: "q1", Text: "Introduce yourself.", Type: models.QuestionTypeIceBreaking},
				{ID: "q2", Text: "Why this role?", Type: models.QuestionTypeCommon, MaxFollowUps: 1},
			}, nil
		},
	}
	builder := NewPlanBuilder(gw, testLogger())
	svc := NewSessionService(sessions, messages, builder, &fakeContextProvider{}, queue, testLogger())
	return sessions, queue, svc
}

func TestStartDefaults(t *testing.T) {
	_, _, svc := newSessionFixture()

	sess, plan, err := svc.Start(context.Background(), uuid.NewString(), StartSessionInput{})
	require.NoError(t, err)

	assert.Equal(t, models.ModePractice, sess.Mode)
	assert.Equal(t, models.StatusInProgress, sess.Status)
	assert.EqualValues(t, 900, sess.TimeLimitSeconds)
	assert.False(t, sess.VoiceMode)
	assert.Equal(t, 0, sess.PlanVersion)
	assert.Equal(t, len(plan.Questions), sess.QuestionCount)

	var stored models.QuestionPlan
	require.NoError(t, json.Unmarshal(sess.Plan, &stored))
	assert.Equal(t, 0, stored.CurrentIndex)
	assert.False(t, stored.Finished)
}

func TestStartRealModeEnablesVoice(t *testing.T) {
	_, _, svc := newSessionFixture()

	sess, _, err := svc.Start(context.Background(), uuid.NewString(), StartSessionInput{
		Mode:            models.ModeReal,
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.True(t, sess.VoiceMode)
	assert.EqualValues(t, 1800, sess.TimeLimitSeconds)
}

func TestStartVoiceOverride(t *testing.T) {
	_, _, svc := newSessionFixture()

	off := false
	sess, _, err := svc.Start(context.Background(), uuid.NewString(), StartSessionInput{
		Mode:      models.ModeReal,
		VoiceMode: &off,
	})
	require.NoError(t, err)
	assert.False(t, sess.VoiceMode)
}

func TestStartRejectsUnknownMode(t *testing.T) {
	_, _, svc := newSessionFixture()

	_, _, err := svc.Start(context.Background(), uuid.NewString(), StartSessionInput{Mode: "PANEL"})
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestCompleteEnqueuesFinalization(t *testing.T) {
	sessions, queue, svc := newSessionFixture()
	ctx := context.Background()

	sess, _, err := svc.Start(ctx, uuid.NewString(), StartSessionInput{})
	require.NoError(t, err)

	require.NoError(t, svc.Complete(ctx, sess.ID, nil))

	got, err := sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, []string{sess.ID}, queue.enqueued)

	// a second end trigger still succeeds and re-enqueues; the pipeline's
	// idempotency guard absorbs it
	require.NoError(t, svc.Complete(ctx, sess.ID, nil))
	assert.Equal(t, []string{sess.ID, sess.ID}, queue.enqueued)
}

func TestCompleteEnqueueFailure(t *testing.T) {
	_, queue, svc := newSessionFixture()
	ctx := context.Background()

	sess, _, err := svc.Start(ctx, uuid.NewString(), StartSessionInput{})
	require.NoError(t, err)

	queue.err = errors.New("stream down")
	err = svc.Complete(ctx, sess.ID, nil)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}
