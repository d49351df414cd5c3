package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/hireview/internal/cache"
	"github.com/yoockh/hireview/internal/providers/ai"
	pgrepo "github.com/yoockh/hireview/internal/repositories/postgres"
	"github.com/yoockh/hireview/internal/utils"
)

const contextCacheTTL = 10 * time.Minute

// ContextProvider supplies the read-only candidate and job context slices
// consumed by question generation and scoring. Lookups are cached; profiles
// are owned by another service and change rarely.
type ContextProvider interface {
	// Candidate returns utils.ErrNotFound when the user has no profile yet;
	// callers treat that as "no context", not a failure.
	Candidate(ctx context.Context, userID string) (*ai.CandidateContext, error)

	// Job accepts a nil ID and returns (nil, utils.ErrNotFound) for it.
	Job(ctx context.Context, jobPostingID *string) (*ai.JobContext, error)
}

type contextProvider struct {
	profiles pgrepo.ProfileRepo
	jobs     pgrepo.JobPostingRepo
	cache    cache.Cache
	log      *logrus.Logger
}

func NewContextProvider(profiles pgrepo.ProfileRepo, jobs pgrepo.JobPostingRepo, c cache.Cache, log *logrus.Logger) ContextProvider {
	return &contextProvider{profiles: profiles, jobs: jobs, cache: c, log: log}
}

func (p *contextProvider) Candidate(ctx context.Context, userID string) (*ai.CandidateContext, error) {
	const op = "ContextProvider.Candidate"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	key := "ctx:candidate:" + userID
	var cached ai.CandidateContext
	if hit, err := p.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	profile, err := p.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &ai.CandidateContext{
		Skills:          []string(profile.Skills),
		ExperienceYears: profile.ExperienceYears,
		DesiredPosition: profile.DesiredPosition,
	}
	if err := p.cache.SetJSON(ctx, key, out, contextCacheTTL); err != nil {
		p.log.WithError(err).Debug("candidate context cache write failed")
	}
	return out, nil
}

func (p *contextProvider) Job(ctx context.Context, jobPostingID *string) (*ai.JobContext, error) {
	if jobPostingID == nil || *jobPostingID == "" {
		return nil, utils.ErrNotFound
	}

	key := "ctx:job:" + *jobPostingID
	var cached ai.JobContext
	if hit, err := p.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	jp, err := p.jobs.GetByID(ctx, *jobPostingID)
	if err != nil {
		return nil, err
	}

	out := &ai.JobContext{
		Title:        jp.Title,
		Position:     jp.Position,
		Requirements: []string(jp.Requirements),
	}
	if err := p.cache.SetJSON(ctx, key, out, contextCacheTTL); err != nil {
		p.log.WithError(err).Debug("job context cache write failed")
	}
	return out, nil
}
