package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/job_tracker/internal/events"
	"github.com/Skotchmaster/job_tracker/internal/mail"
	"github.com/Skotchmaster/job_tracker/internal/models"
	"github.com/Skotchmaster/job_tracker/internal/repo"
	"github.com/Skotchmaster/job_tracker/internal/testdb"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev, _ := event.(events.Event)
	p.events = append(p.events, topic+":"+ev.Type)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func newAuthService(t *testing.T) (*AuthService, *recordingMailer) {
	t.Helper()
	m := &recordingMailer{}
	return &AuthService{
		Repo: testdb.New(t),
		Cfg: AuthConfig{
			AccessSecret:  []byte("access-secret"),
			RefreshSecret: []byte("refresh-secret"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    24 * time.Hour,
			ResetTTL:      15 * time.Minute,
			ClientURL:     "http://app.test/",
		},
		Mail:   m,
		Events: &recordingPublisher{},
	}, m
}

func seedUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Seed", Email: email, PasswordHash: "x"}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func assertKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "want %v, got %v", kind, err)
}
