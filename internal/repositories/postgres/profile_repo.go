package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/hireview/internal/models"
	"github.com/yoockh/hireview/internal/utils"
	"gorm.io/gorm"
)

type ProfileRepo interface {
	GetByUserID(ctx context.Context, userID string) (*models.CandidateProfile, error)
}

type JobPostingRepo interface {
	GetByID(ctx context.Context, id string) (*models.JobPosting, error)
}

type profileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) ProfileRepo {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*models.CandidateProfile, error) {
	var p models.CandidateProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &p, err
}

type jobPostingRepo struct {
	db *gorm.DB
}

func NewJobPostingRepo(db *gorm.DB) JobPostingRepo {
	return &jobPostingRepo{db: db}
}

func (r *jobPostingRepo) GetByID(ctx context.Context, id string) (*models.JobPosting, error) {
	var jp models.JobPosting
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&jp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &jp, err
}
