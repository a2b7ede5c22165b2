package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/hospital-scheduler/internal/dto"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

type FeedbackGormRepository struct {
	db *gorm.DB
}

func NewFeedbackGormRepository(db *gorm.DB) *FeedbackGormRepository {
	return &FeedbackGormRepository{db: db}
}

func (r *FeedbackGormRepository) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// ListRecentFeedback returns the newest entries first.
func (r *FeedbackGormRepository) ListRecentFeedback(ctx context.Context, limit int) ([]dto.FeedbackDTO, error) {
	var out []dto.FeedbackDTO
	err := r.db.WithContext(ctx).
		Model(&models.Feedback{}).
		Select("feedbacks.id, users.user_name, feedbacks.rating, feedbacks.comment, feedbacks.created_at").
		Joins("JOIN users ON users.id = feedbacks.user_id").
		Order("feedbacks.created_at DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
