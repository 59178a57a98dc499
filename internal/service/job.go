package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/job_tracker/internal/events"
	"github.com/Skotchmaster/job_tracker/internal/models"
	"github.com/Skotchmaster/job_tracker/internal/repo"
	"github.com/Skotchmaster/job_tracker/internal/search"
	"github.com/Skotchmaster/job_tracker/internal/transport"
	"github.com/Skotchmaster/job_tracker/pkg/logging"
)

const (
	dateLayout        = "2006-01-02"
	defaultSearchSize = 20
	maxSearchSize     = 100
)

type JobService struct {
	Repo *repo.GormRepo
	// Index is optional; without it Search runs against the database.
	Index  search.Index
	Events events.Publisher
}

func (s *JobService) List(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	return s.Repo.ListJobs(ctx, userID)
}

func (s *JobService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Job, error) {
	job, err := s.Repo.GetJob(ctx, userID, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newErr(ErrNotFound, "job not found")
	}
	return job, err
}

func (s *JobService) Create(ctx context.Context, userID uuid.UUID, req transport.CreateJobRequest) (*models.Job, error) {
	l := logging.FromContext(ctx).With("svc", "job.create")

	job := &models.Job{
		UserID:  userID,
		Company: strings.TrimSpace(req.Company),
		Role:    strings.TrimSpace(req.Role),
		Link:    strings.TrimSpace(req.Link),
		Status:  models.StatusApplied,
		Tags:    normalizeTags(req.Tags),
		Notes:   req.Notes,
	}
	if job.Company == "" || job.Role == "" {
		return nil, newErr(ErrValidation, "company and role are required")
	}
	if req.Status != "" {
		st, err := parseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		job.Status = st
	}
	applied, err := parseAppliedAt(req.AppliedAt)
	if err != nil {
		return nil, err
	}
	job.AppliedAt = applied
	interview, err := parseInterviewAt(req.InterviewAt)
	if err != nil {
		return nil, err
	}
	job.InterviewAt = interview

	if err := s.Repo.CreateJob(ctx, job); err != nil {
		l.Error("job_create_error", "status", 500, "error", err)
		return nil, err
	}

	s.index(ctx, job)
	events.Emit(ctx, s.Events, l, events.TopicJobs, events.Event{
		Type: "job_created", UserID: userID.String(), EntityID: job.ID.String(),
		Payload: map[string]any{"company": job.Company, "role": job.Role, "status": job.Status},
	})
	return job, nil
}

// Update applies a partial patch. Last write wins.
func (s *JobService) Update(ctx context.Context, userID, id uuid.UUID, req transport.PatchJobRequest) (*models.Job, error) {
	l := logging.FromContext(ctx).With("svc", "job.update")

	job, err := s.Repo.GetJob(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newErr(ErrNotFound, "job not found")
		}
		return nil, err
	}
	before := job.Status

	if req.Company != nil {
		v := strings.TrimSpace(*req.Company)
		if v == "" {
			return nil, newErr(ErrValidation, "company cannot be empty")
		}
		job.Company = v
	}
	if req.Role != nil {
		v := strings.TrimSpace(*req.Role)
		if v == "" {
			return nil, newErr(ErrValidation, "role cannot be empty")
		}
		job.Role = v
	}
	if req.Link != nil {
		job.Link = strings.TrimSpace(*req.Link)
	}
	if req.Status != nil {
		st, err := parseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		job.Status = st
	}
	if req.AppliedAt != nil {
		v, err := parseAppliedAt(*req.AppliedAt)
		if err != nil {
			return nil, err
		}
		job.AppliedAt = v
	}
	if req.InterviewAt != nil {
		v, err := parseInterviewAt(*req.InterviewAt)
		if err != nil {
			return nil, err
		}
		job.InterviewAt = v
	}
	if req.Tags != nil {
		job.Tags = normalizeTags(*req.Tags)
	}
	if req.Notes != nil {
		job.Notes = *req.Notes
	}

	if err := s.Repo.SaveJob(ctx, job); err != nil {
		l.Error("job_update_error", "status", 500, "error", err)
		return nil, err
	}

	s.index(ctx, job)
	payload := map[string]any{"status": job.Status}
	if before != job.Status {
		payload["previous_status"] = before
	}
	events.Emit(ctx, s.Events, l, events.TopicJobs, events.Event{
		Type: "job_updated", UserID: userID.String(), EntityID: job.ID.String(), Payload: payload,
	})
	return job, nil
}

func (s *JobService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "job.delete")

	if err := s.Repo.DeleteJob(ctx, userID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return newErr(ErrNotFound, "job not found")
		}
		l.Error("job_delete_error", "status", 500, "error", err)
		return err
	}

	if s.Index != nil {
		if err := s.Index.Remove(ctx, id); err != nil {
			l.Warn("job_unindex_failed", "job_id", id, "error", err)
		}
	}
	events.Emit(ctx, s.Events, l, events.TopicJobs, events.Event{
		Type: "job_deleted", UserID: userID.String(), EntityID: id.String(),
	})
	return nil
}

func (s *JobService) Search(ctx context.Context, userID uuid.UUID, q string, offset, limit int) (int64, []models.Job, error) {
	l := logging.FromContext(ctx).With("svc", "job.search")

	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, newErr(ErrValidation, "query is required")
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultSearchSize
	}
	if limit > maxSearchSize {
		limit = maxSearchSize
	}

	if s.Index != nil {
		total, ids, err := s.Index.Query(ctx, userID, q, offset, limit)
		if err == nil {
			jobs, err := s.Repo.JobsByIDs(ctx, userID, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, jobs, nil
		}
		l.Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}

	return s.Repo.SearchJobs(ctx, userID, q, offset, limit)
}

func (s *JobService) index(ctx context.Context, job *models.Job) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Put(ctx, job); err != nil {
		logging.FromContext(ctx).Warn("job_index_failed", "job_id", job.ID, "error", err)
	}
}

func parseStatus(v string) (models.Status, error) {
	st := models.Status(strings.TrimSpace(v))
	if !st.Valid() {
		return "", newErr(ErrValidation, "status must be one of Applied, Interview, Offer, Rejected, Accepted")
	}
	return st, nil
}

// parseAppliedAt normalizes to YYYY-MM-DD. An RFC 3339 timestamp is
// reduced to its date.
func parseAppliedAt(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t.Format(dateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(dateLayout), nil
	}
	return "", newErr(ErrValidation, "appliedAt must be a date in YYYY-MM-DD format")
}

func parseInterviewAt(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, newErr(ErrValidation, "interviewAt must be an RFC 3339 timestamp")
	}
	t = t.UTC()
	return &t, nil
}

// normalizeTags trims, drops empties and removes case-insensitive
// duplicates, keeping the first spelling.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
