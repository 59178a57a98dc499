package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Skotchmaster/job_tracker/internal/mail"
	"github.com/Skotchmaster/job_tracker/internal/models"
	"github.com/Skotchmaster/job_tracker/internal/repo"
	"github.com/Skotchmaster/job_tracker/internal/testdb"
	"github.com/Skotchmaster/job_tracker/pkg/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

type outbox struct {
	mu     sync.Mutex
	sent   []mail.Message
	failTo string
}

func (o *outbox) Send(_ context.Context, m mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if m.To == o.failTo {
		return errors.New("smtp: 550 mailbox unavailable")
	}
	o.sent = append(o.sent, m)
	return nil
}

func seedUser(t *testing.T, r *repo.GormRepo, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, PasswordHash: "x"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedJob(t *testing.T, r *repo.GormRepo, owner *models.User, company string, at *time.Time) {
	t.Helper()
	j := &models.Job{UserID: owner.ID, Company: company, Role: "Engineer", Status: models.StatusInterview, InterviewAt: at}
	require.NoError(t, r.CreateJob(context.Background(), j))
}

func at(t time.Time) *time.Time { return &t }

func TestRunOnce(t *testing.T) {
	r := testdb.New(t)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	ada := seedUser(t, r, "Ada", "ada@example.com")
	bob := seedUser(t, r, "Bob", "bob@example.com")
	broken := seedUser(t, r, "Broken", "not-an-email")

	seedJob(t, r, ada, "Acme", at(now.Add(2*time.Hour)))
	seedJob(t, r, ada, "Globex", at(now.Add(47*time.Hour)))
	seedJob(t, r, ada, "Later", at(now.Add(72*time.Hour)))
	seedJob(t, r, ada, "Past", at(now.Add(-time.Hour)))
	seedJob(t, r, ada, "NoDate", nil)
	seedJob(t, r, bob, "Initech", at(now.Add(time.Hour)))
	seedJob(t, r, broken, "Hooli", at(now.Add(time.Hour)))

	box := &outbox{failTo: "bob@example.com"}
	s, err := NewReminder(r, box, logging.Discard(), Config{})
	require.NoError(t, err)

	sent, err := s.RunOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	subjects := make([]string, 0, len(box.sent))
	for _, m := range box.sent {
		assert.Equal(t, "ada@example.com", m.To)
		subjects = append(subjects, m.Subject)
	}
	assert.ElementsMatch(t, []string{
		"Upcoming interview: Engineer at Acme",
		"Upcoming interview: Engineer at Globex",
	}, subjects)
}

func TestRunOnce_NothingDue(t *testing.T) {
	r := testdb.New(t)
	box := &outbox{}
	s, err := NewReminder(r, box, logging.Discard(), Config{Window: time.Hour})
	require.NoError(t, err)

	sent, err := s.RunOnce(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, box.sent)
}

func TestNewReminder_BadSpec(t *testing.T) {
	_, err := NewReminder(nil, &outbox{}, logging.Discard(), Config{Spec: "every day"})
	require.Error(t, err)
}

func TestStartStopIdempotent(t *testing.T) {
	r := testdb.New(t)
	s, err := NewReminder(r, &outbox{}, logging.Discard(), Config{Spec: "0 9 * * *", Location: time.UTC})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx))

	s.Stop()
	s.Stop()

	require.NoError(t, s.Start(ctx))
	s.Stop()
}
