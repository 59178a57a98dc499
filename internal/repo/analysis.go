package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/job_tracker/internal/models"
)

func (r *GormRepo) CreateAnalysis(ctx context.Context, a *models.ResumeAnalysis) error {
	return translate(r.DB.WithContext(ctx).Create(a).Error)
}

func (r *GormRepo) ListAnalyses(ctx context.Context, userID uuid.UUID, limit int) ([]models.ResumeAnalysis, error) {
	items := make([]models.ResumeAnalysis, 0)
	q := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
