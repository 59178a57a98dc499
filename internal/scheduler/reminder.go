// Package scheduler sends interview reminder emails on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/Skotchmaster/job_tracker/internal/mail"
	"github.com/Skotchmaster/job_tracker/internal/repo"
)

const (
	DefaultSpec   = "0 9 * * *"
	DefaultWindow = 48 * time.Hour
)

type Config struct {
	// Spec is a standard five-field cron expression.
	Spec     string
	Window   time.Duration
	Location *time.Location
}

// Reminder mails the owner of every job whose interview falls within the
// next Window. Runs that were missed while the process was down are not
// replayed.
type Reminder struct {
	repo *repo.GormRepo
	mail mail.Sender
	log  *slog.Logger
	cfg  Config
	now  func() time.Time
	v    *validator.Validate

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

func NewReminder(r *repo.GormRepo, sender mail.Sender, log *slog.Logger, cfg Config) (*Reminder, error) {
	if cfg.Spec == "" {
		cfg.Spec = DefaultSpec
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if _, err := cron.ParseStandard(cfg.Spec); err != nil {
		return nil, fmt.Errorf("reminder schedule %q: %w", cfg.Spec, err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reminder{
		repo: r,
		mail: sender,
		log:  log.With("component", "reminder_scheduler"),
		cfg:  cfg,
		now:  time.Now,
		v:    validator.New(),
	}, nil
}

// Start schedules the job. Calling it twice is a no-op.
func (s *Reminder) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	cl := cronLogger{s.log}
	c := cron.New(
		cron.WithLocation(s.cfg.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(s.cfg.Spec, func() { s.tick(runCtx) }); err != nil {
		cancel()
		return err
	}
	c.Start()

	s.cron, s.cancel, s.running = c, cancel, true
	s.log.Info("scheduler_started", "spec", s.cfg.Spec, "window", s.cfg.Window.String())
	return nil
}

// Stop cancels an in-flight run and waits for it. Safe to call repeatedly.
func (s *Reminder) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel, s.running = nil, nil, false
	s.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	s.log.Info("scheduler_stopped")
}

func (s *Reminder) tick(ctx context.Context) {
	now := s.now()
	if _, err := s.RunOnce(ctx, now); err != nil {
		s.log.Error("reminder_run_failed", "error", err)
	}
	n, err := s.repo.DeleteExpiredRefresh(ctx, now.UTC())
	if err != nil {
		s.log.Error("refresh_prune_failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("refresh_tokens_pruned", "count", n)
	}
}

// RunOnce sends reminders for interviews in [now, now+Window] and reports how
// many were delivered. A failed send is logged and skipped.
func (s *Reminder) RunOnce(ctx context.Context, now time.Time) (int, error) {
	from := now.UTC()
	to := from.Add(s.cfg.Window)

	jobs, err := s.repo.JobsWithInterviewBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("load interviews: %w", err)
	}
	if len(jobs) == 0 {
		s.log.Info("reminder_run_done", "due", 0, "sent", 0)
		return 0, nil
	}

	ownerIDs := make([]uuid.UUID, 0, len(jobs))
	seen := make(map[uuid.UUID]struct{}, len(jobs))
	for _, j := range jobs {
		if _, ok := seen[j.UserID]; !ok {
			seen[j.UserID] = struct{}{}
			ownerIDs = append(ownerIDs, j.UserID)
		}
	}
	owners, err := s.repo.UsersByIDs(ctx, ownerIDs)
	if err != nil {
		return 0, fmt.Errorf("load owners: %w", err)
	}

	sent := 0
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		owner, ok := owners[j.UserID]
		if !ok || s.v.Var(owner.Email, "required,email") != nil {
			s.log.Warn("reminder_skipped", "job_id", j.ID, "reason", "owner has no usable email")
			continue
		}
		msg := mail.InterviewReminder(owner.Email, owner.Name, mail.Interview{
			Company: j.Company,
			Role:    j.Role,
			At:      *j.InterviewAt,
		})
		if err := s.mail.Send(ctx, msg); err != nil {
			s.log.Error("reminder_send_failed", "job_id", j.ID, "user_id", owner.ID, "error", err)
			continue
		}
		sent++
	}

	s.log.Info("reminder_run_done", "due", len(jobs), "sent", sent)
	return sent, nil
}

// cronLogger routes robfig/cron's logging into slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug("cron_"+msg, kv...)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error("cron_"+msg, append(kv, "error", err)...)
}
