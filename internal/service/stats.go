package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/job_tracker/internal/models"
)

const recentJobs = 5

type JobStats struct {
	Total    int64                   `json:"total"`
	ByStatus map[models.Status]int64 `json:"byStatus"`
	Recent   []models.Job            `json:"recent"`
}

// Stats counts the owner's jobs per status, with a zero for every status
// that has none, and returns the most recent ones.
func (s *JobService) Stats(ctx context.Context, userID uuid.UUID) (*JobStats, error) {
	rows, err := s.Repo.CountJobsByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &JobStats{ByStatus: make(map[models.Status]int64, len(models.Statuses))}
	for _, st := range models.Statuses {
		stats.ByStatus[st] = 0
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] += r.Count
		stats.Total += r.Count
	}

	recent, err := s.Repo.RecentJobs(ctx, userID, recentJobs)
	if err != nil {
		return nil, err
	}
	stats.Recent = recent
	return stats, nil
}
