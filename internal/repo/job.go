package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/job_tracker/internal/models"
)

func (r *GormRepo) ListJobs(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	items := make([]models.Job, 0)
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) RecentJobs(ctx context.Context, userID uuid.UUID, limit int) ([]models.Job, error) {
	items := make([]models.Job, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type StatusCount struct {
	Status models.Status
	Count  int64
}

func (r *GormRepo) CountJobsByStatus(ctx context.Context, userID uuid.UUID) ([]StatusCount, error) {
	var rows []StatusCount
	if err := r.DB.WithContext(ctx).
		Model(&models.Job{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepo) GetJob(ctx context.Context, userID, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&job).Error; err != nil {
		return nil, translate(err)
	}
	return &job, nil
}

func (r *GormRepo) CreateJob(ctx context.Context, job *models.Job) error {
	return translate(r.DB.WithContext(ctx).Create(job).Error)
}

func (r *GormRepo) SaveJob(ctx context.Context, job *models.Job) error {
	return translate(r.DB.WithContext(ctx).Save(job).Error)
}

func (r *GormRepo) DeleteJob(ctx context.Context, userID, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Job{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// SearchJobs is the SQL fallback used when no search index is configured.
func (r *GormRepo) SearchJobs(ctx context.Context, userID uuid.UUID, q string, offset, limit int) (int64, []models.Job, error) {
	like := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
	where := `user_id = ? AND (LOWER(company) LIKE ? ESCAPE '\' OR LOWER(role) LIKE ? ESCAPE '\' OR LOWER(notes) LIKE ? ESCAPE '\' OR LOWER(tags) LIKE ? ESCAPE '\')`

	var total int64
	if err := r.DB.WithContext(ctx).
		Model(&models.Job{}).
		Where(where, userID, like, like, like, like).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Job, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where(where, userID, like, like, like, like).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// JobsByIDs loads the owner's jobs for ids and keeps the order of ids.
func (r *GormRepo) JobsByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Job, error) {
	if len(ids) == 0 {
		return []models.Job{}, nil
	}
	var found []models.Job
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Job, len(found))
	for _, j := range found {
		byID[j.ID] = j
	}
	out := make([]models.Job, 0, len(found))
	for _, id := range ids {
		if j, ok := byID[id]; ok {
			out = append(out, j)
		}
	}
	return out, nil
}

// JobsWithInterviewBetween returns jobs across all users whose interview
// falls in [from, to].
func (r *GormRepo) JobsWithInterviewBetween(ctx context.Context, from, to time.Time) ([]models.Job, error) {
	var items []models.Job
	if err := r.DB.WithContext(ctx).
		Where("interview_at IS NOT NULL AND interview_at >= ? AND interview_at <= ?", from, to).
		Order("interview_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
