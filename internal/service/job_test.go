package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/job_tracker/internal/models"
	"github.com/Skotchmaster/job_tracker/internal/testdb"
	"github.com/Skotchmaster/job_tracker/internal/transport"
)

func ptr[T any](v T) *T { return &v }

type fakeIndex struct {
	put     []uuid.UUID
	removed []uuid.UUID
	hits    []uuid.UUID
	err     error
}

func (f *fakeIndex) Put(_ context.Context, job *models.Job) error {
	f.put = append(f.put, job.ID)
	return f.err
}

func (f *fakeIndex) Remove(_ context.Context, id uuid.UUID) error {
	f.removed = append(f.removed, id)
	return f.err
}

func (f *fakeIndex) Query(_ context.Context, _ uuid.UUID, _ string, _, _ int) (int64, []uuid.UUID, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.hits)), f.hits, nil
}

func newJobService(t *testing.T) (*JobService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return &JobService{Repo: testdb.New(t), Events: pub}, pub
}

func TestCreateJob(t *testing.T) {
	t.Parallel()
	s, pub := newJobService(t)
	ctx := context.Background()
	owner := seedUser(t, s.Repo, "a@x.com")

	job, err := s.Create(ctx, owner.ID, transport.CreateJobRequest{
		Company:     " Acme ",
		Role:        "Engineer",
		AppliedAt:   "2026-02-01T10:00:00Z",
		InterviewAt: "2026-02-10T14:30:00+02:00",
		Tags:        []string{"go", " Go ", "", "remote"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, models.StatusApplied, job.Status)
	assert.Equal(t, "2026-02-01", job.AppliedAt)
	require.NotNil(t, job.InterviewAt)
	assert.True(t, time.Date(2026, 2, 10, 12, 30, 0, 0, time.UTC).Equal(*job.InterviewAt))
	assert.Equal(t, []string{"go", "remote"}, job.Tags)
	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.False(t, job.CreatedAt.IsZero())
	assert.Contains(t, pub.topics(), "job_events:job_created")
}

func TestCreateJob_Validation(t *testing.T) {
	t.Parallel()
	s, _ := newJobService(t)
	owner := seedUser(t, s.Repo, "a@x.com")

	tests := []struct {
		name string
		req  transport.CreateJobRequest
	}{
		{"missing company", transport.CreateJobRequest{Role: "Engineer"}},
		{"blank role", transport.CreateJobRequest{Company: "Acme", Role: "   "}},
		{"bad status", transport.CreateJobRequest{Company: "Acme", Role: "Eng", Status: "Ghosted"}},
		{"lowercase status", transport.CreateJobRequest{Company: "Acme", Role: "Eng", Status: "applied"}},
		{"bad applied date", transport.CreateJobRequest{Company: "Acme", Role: "Eng", AppliedAt: "01/02/2026"}},
		{"impossible date", transport.CreateJobRequest{Company: "Acme", Role: "Eng", AppliedAt: "2026-02-30"}},
		{"bad interview", transport.CreateJobRequest{Company: "Acme", Role: "Eng", InterviewAt: "tomorrow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), owner.ID, tt.req)
			assertKind(t, err, ErrValidation)
		})
	}
}

func TestListJobs_Isolation(t *testing.T) {
	t.Parallel()
	s, _ := newJobService(t)
	ctx := context.Background()
	a := seedUser(t, s.Repo, "a@x.com")
	b := seedUser(t, s.Repo, "b@x.com")

	for _, c := range []string{"A1", "A2"} {
		_, err := s.Create(ctx, a.ID, transport.CreateJobRequest{Company: c, Role: "R"})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := s.Create(ctx, b.ID, transport.CreateJobRequest{Company: "B1", Role: "R"})
	require.NoError(t, err)

	listA, err := s.List(ctx, a.ID)
	require.NoError(t, err)
	listB, err := s.List(ctx, b.ID)
	require.NoError(t, err)

	require.Len(t, listA, 2)
	assert.Equal(t, "A2", listA[0].Company)
	require.Len(t, listB, 1)
	for _, j := range listA {
		assert.Equal(t, a.ID, j.UserID)
		assert.NotEqual(t, listB[0].ID, j.ID)
	}
}

func TestUpdateJob_Partial(t *testing.T) {
	t.Parallel()
	s, _ := newJobService(t)
	ctx := context.Background()
	owner := seedUser(t, s.Repo, "a@x.com")

	job, err := s.Create(ctx, owner.ID, transport.CreateJobRequest{
		Company: "Acme", Role: "Engineer", Notes: "referral", Tags: []string{"go"},
	})
	require.NoError(t, err)

	updated, err := s.Update(ctx, owner.ID, job.ID, transport.PatchJobRequest{Status: ptr("Interview")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInterview, updated.Status)
	assert.Equal(t, "Acme", updated.Company)
	assert.Equal(t, "Engineer", updated.Role)
	assert.Equal(t, "referral", updated.Notes)
	assert.Equal(t, []string{"go"}, updated.Tags)

	reloaded, err := s.Get(ctx, owner.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInterview, reloaded.Status)
	assert.Equal(t, "Acme", reloaded.Company)

	cleared, err := s.Update(ctx, owner.ID, job.ID, transport.PatchJobRequest{Tags: ptr([]string{}), InterviewAt: ptr("")})
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)
	assert.Nil(t, cleared.InterviewAt)

	_, err = s.Update(ctx, owner.ID, job.ID, transport.PatchJobRequest{Company: ptr(" ")})
	assertKind(t, err, ErrValidation)
	_, err = s.Update(ctx, owner.ID, job.ID, transport.PatchJobRequest{Status: ptr("Hired")})
	assertKind(t, err, ErrValidation)
}

func TestUpdateDelete_OtherOwnerIsNotFound(t *testing.T) {
	t.Parallel()
	s, _ := newJobService(t)
	ctx := context.Background()
	a := seedUser(t, s.Repo, "a@x.com")
	b := seedUser(t, s.Repo, "b@x.com")

	job, err := s.Create(ctx, a.ID, transport.CreateJobRequest{Company: "Acme", Role: "Eng"})
	require.NoError(t, err)

	_, err = s.Update(ctx, b.ID, job.ID, transport.PatchJobRequest{Status: ptr("Offer")})
	assertKind(t, err, ErrNotFound)
	assertKind(t, s.Delete(ctx, b.ID, job.ID), ErrNotFound)
	_, err = s.Get(ctx, b.ID, job.ID)
	assertKind(t, err, ErrNotFound)

	_, err = s.Update(ctx, a.ID, uuid.New(), transport.PatchJobRequest{})
	assertKind(t, err, ErrNotFound)

	unchanged, err := s.Get(ctx, a.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, unchanged.Status)

	require.NoError(t, s.Delete(ctx, a.ID, job.ID))
	assertKind(t, s.Delete(ctx, a.ID, job.ID), ErrNotFound)
}

func TestSearch_UsesIndexAndFallsBack(t *testing.T) {
	t.Parallel()
	s, _ := newJobService(t)
	ctx := context.Background()
	owner := seedUser(t, s.Repo, "a@x.com")
	other := seedUser(t, s.Repo, "b@x.com")

	idx := &fakeIndex{}
	s.Index = idx

	acme, err := s.Create(ctx, owner.ID, transport.CreateJobRequest{Company: "Acme", Role: "Eng"})
	require.NoError(t, err)
	foreign, err := s.Create(ctx, other.ID, transport.CreateJobRequest{Company: "Acme", Role: "Eng"})
	require.NoError(t, err)
	assert.Len(t, idx.put, 2)

	idx.hits = []uuid.UUID{acme.ID, foreign.ID}
	_, jobs, err := s.Search(ctx, owner.ID, "acme", 0, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1, "rows are reloaded owner-scoped")
	assert.Equal(t, acme.ID, jobs[0].ID)

	idx.err = errors.New("es down")
	total, jobs, err := s.Search(ctx, owner.ID, "acme", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, jobs, 1)

	_, _, err = s.Search(ctx, owner.ID, "  ", 0, 10)
	assertKind(t, err, ErrValidation)

	require.NoError(t, s.Delete(ctx, owner.ID, acme.ID))
	assert.Equal(t, []uuid.UUID{acme.ID}, idx.removed)
}

func TestStats(t *testing.T) {
	t.Parallel()
	s, _ := newJobService(t)
	ctx := context.Background()
	owner := seedUser(t, s.Repo, "a@x.com")

	for i, st := range []string{"Applied", "Applied", "Interview", "Offer", "Applied", "Rejected"} {
		_, err := s.Create(ctx, owner.ID, transport.CreateJobRequest{Company: "C", Role: "R", Status: st, Notes: string(rune('a' + i))})
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(3), stats.ByStatus[models.StatusApplied])
	assert.Equal(t, int64(1), stats.ByStatus[models.StatusInterview])
	assert.Equal(t, int64(0), stats.ByStatus[models.StatusAccepted])
	assert.Len(t, stats.ByStatus, len(models.Statuses))
	assert.Len(t, stats.Recent, 5)

	empty, err := s.Stats(ctx, seedUser(t, s.Repo, "b@x.com").ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Total)
	assert.Empty(t, empty.Recent)
}

func TestNormalizeTags(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"Go", "k8s"}, normalizeTags([]string{" Go", "go", "", "k8s", "K8S "}))
	assert.Equal(t, []string{}, normalizeTags(nil))
}
