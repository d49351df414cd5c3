package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/yoockh/hireview/internal/utils"
	"google.golang.org/api/option"
)

const (
	defaultGenTimeout   = 10 * time.Second
	defaultScoreTimeout = 60 * time.Second
)

type VertexGemini struct {
	client *vertexgenai.Client
	model  *vertexgenai.GenerativeModel

	GenTimeout   time.Duration
	ScoreTimeout time.Duration
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string, opts ...option.ClientOption) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	m := c.GenerativeModel(modelName)
	m.GenerationConfig.ResponseMIMEType = "application/json"

	return &VertexGemini{
		client:       c,
		model:        m,
		GenTimeout:   defaultGenTimeout,
		ScoreTimeout: defaultScoreTimeout,
	}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) GenerateQuestionSet(ctx context.Context, profile *CandidateContext, job *JobContext, mode string) ([]Question, error) {
	const op = "VertexGemini.GenerateQuestionSet"

	n := 5
	if mode == "REAL" {
		n = 10
	}

	raw, err := v.generate(ctx, v.GenTimeout*3, op, questionSetPrompt(profile, job, mode, n))
	if err != nil {
		return nil, err
	}

	var out struct {
		Questions []Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "malformed question set response", err)
	}
	if len(out.Questions) == 0 {
		return nil, utils.E(utils.CodeUnavailable, op, "empty question set", nil)
	}

	for i := range out.Questions {
		if out.Questions[i].ID == "" {
			out.Questions[i].ID = fmt.Sprintf("gen-%d", i+1)
		}
		if out.Questions[i].Type == "" {
			out.Questions[i].Type = "common"
		}
	}
	return out.Questions, nil
}

func (v *VertexGemini) GenerateFollowUp(ctx context.Context, tail []TranscriptEntry) (string, error) {
	const op = "VertexGemini.GenerateFollowUp"

	raw, err := v.generate(ctx, v.GenTimeout, op, followUpPrompt(tail))
	if err != nil {
		return "", err
	}

	var out struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "malformed follow-up response", err)
	}
	if strings.TrimSpace(out.Question) == "" {
		return "", utils.E(utils.CodeUnavailable, op, "empty follow-up", nil)
	}
	return strings.TrimSpace(out.Question), nil
}

func (v *VertexGemini) ScoreInterview(ctx context.Context, transcript []TranscriptEntry, profile *CandidateContext) (*Scorecard, error) {
	const op = "VertexGemini.ScoreInterview"

	raw, err := v.generate(ctx, v.ScoreTimeout, op, scoringPrompt(transcript, profile))
	if err != nil {
		return nil, err
	}

	var card Scorecard
	if err := json.Unmarshal([]byte(raw), &card); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "malformed scoring response", err)
	}
	return &card, nil
}

// generate runs one bounded model call and returns the raw text payload.
func (v *VertexGemini) generate(ctx context.Context, timeout time.Duration, op, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := v.model.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", utils.E(utils.CodeTimeout, op, "model call timed out", err)
		}
		return "", utils.E(utils.CodeUnavailable, op, "model call failed", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}

	text := stripFences(sb.String())
	if text == "" {
		return "", utils.E(utils.CodeUnavailable, op, "empty model response", nil)
	}
	return text, nil
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
