package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/providers/ai"
	"github.com/yoockh/hireview/internal/utils"
)

// MaxCustomQuestions bounds how many candidate-authored questions a plan
// accepts.
const MaxCustomQuestions = 5

// SelectedQuestion is a pre-picked question (manual or AI-suggested) with an
// optional per-slot follow-up budget.
type SelectedQuestion struct {
	ID           string `json:"id"`
	Text         string `json:"text" binding:"required"`
	Type         string `json:"type"`
	Category     string `json:"category"`
	MaxFollowUps int    `json:"max_follow_ups"`
}

type BuildPlanInput struct {
	Selected []SelectedQuestion
	Custom   []string
	Mode     string
	Profile  *ai.CandidateContext
	Job      *ai.JobContext
}

type PlanBuilder interface {
	Build(ctx context.Context, in BuildPlanInput) (*models.QuestionPlan, error)
}

type planBuilder struct {
	gw  ai.Gateway
	log *logrus.Logger
}

func NewPlanBuilder(gw ai.Gateway, log *logrus.Logger) PlanBuilder {
	return &planBuilder{gw: gw, log: log}
}

// Build assembles the question plan for a new session. Selected and custom
// questions win over generation; with neither present a set is generated,
// and a failed generation falls back to the static default set rather than
// failing the session.
func (b *planBuilder) Build(ctx context.Context, in BuildPlanInput) (*models.QuestionPlan, error) {
	const op = "PlanBuilder.Build"

	if len(in.Custom) > MaxCustomQuestions {
		return nil, utils.E(utils.CodeInvalidArgument, op,
			fmt.Sprintf("at most %d custom questions are allowed", MaxCustomQuestions), nil)
	}

	var slots []models.QuestionSlot

	if len(in.Selected) > 0 {
		for _, q := range in.Selected {
			text := strings.TrimSpace(q.Text)
			if text == "" {
				continue
			}
			typ := q.Type
			if typ == "" {
				typ = models.QuestionTypeCommon
			}
			maxFU := q.MaxFollowUps
			if maxFU < 0 {
				maxFU = 0
			}
			slots = append(slots, models.QuestionSlot{
				ID:           q.ID,
				Text:         text,
				Type:         typ,
				Category:     q.Category,
				MaxFollowUps: maxFU,
			})
		}
	} else if len(in.Custom) == 0 {
		questions, err := b.gw.GenerateQuestionSet(ctx, in.Profile, in.Job, in.Mode)
		if err != nil {
			b.log.WithError(err).Warn("question set generation failed, using default set")
			questions = ai.DefaultQuestionSet(in.Mode)
		}
		for _, q := range questions {
			slots = append(slots, models.QuestionSlot{
				ID:           q.ID,
				Text:         q.Text,
				Type:         q.Type,
				Category:     q.Category,
				MaxFollowUps: q.MaxFollowUps,
			})
		}
	}

	for i, text := range in.Custom {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		slots = append(slots, models.QuestionSlot{
			ID:       fmt.Sprintf("custom-%d", i+1),
			Text:     text,
			Type:     models.QuestionTypeCommon,
			Category: "Custom",
			IsCustom: true,
		})
	}

	if len(slots) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "question plan must contain at least one question", nil)
	}

	return &models.QuestionPlan{Questions: slots, CurrentIndex: 0}, nil
}
