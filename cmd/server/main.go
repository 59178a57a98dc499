package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/job_tracker/internal/httpserver"
	"github.com/Skotchmaster/job_tracker/internal/repo"
	"github.com/Skotchmaster/job_tracker/internal/scheduler"
	"github.com/Skotchmaster/job_tracker/internal/service"
	"github.com/Skotchmaster/job_tracker/pkg/config"
	"github.com/Skotchmaster/job_tracker/pkg/db"
	jwthelp "github.com/Skotchmaster/job_tracker/pkg/jwt"
	"github.com/Skotchmaster/job_tracker/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Error("db_close_failed", "error", err)
			}
		}
	}()

	r := repo.New(gdb)
	if err := r.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	publisher := newPublisher(cfg, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("kafka_close_failed", "error", err)
		}
	}()

	sender := newMailer(cfg, log)
	index := newSearchIndex(ctx, cfg, log)

	completer, err := newCompleter(ctx, cfg, log)
	if err != nil {
		return err
	}

	authSvc := &service.AuthService{
		Repo: r,
		Cfg: service.AuthConfig{
			AccessSecret:  cfg.AccessSecret(),
			RefreshSecret: cfg.RefreshSecret(),
			AccessTTL:     cfg.AccessTTL,
			RefreshTTL:    cfg.RefreshTTL,
			ResetTTL:      cfg.ResetTokenTTL,
			ClientURL:     cfg.ClientURL,
		},
		Mail:   sender,
		Events: publisher,
	}
	jobSvc := &service.JobService{Repo: r, Index: index, Events: publisher}
	resumeSvc := &service.ResumeService{Repo: r, AI: completer, Events: publisher}

	e := httpserver.New(&httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{
			Svc:    authSvc,
			Cookie: jwthelp.CookieConfig{Path: "/api/auth", Secure: cfg.CookieSecure, SameSite: http.SameSiteLaxMode},
		},
		JobHandler:     &httpserver.JobHTTP{Svc: jobSvc},
		ResumeHandler:  &httpserver.ResumeHTTP{Svc: resumeSvc},
		AccessSecret:   cfg.AccessSecret(),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log,
		DB:             gdb,
	})

	reminder, err := scheduler.NewReminder(r, sender, log, scheduler.Config{
		Spec:   cfg.ReminderSpec,
		Window: cfg.ReminderWindow,
	})
	if err != nil {
		return err
	}
	if err := reminder.Start(ctx); err != nil {
		return err
	}
	defer reminder.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		// résumé analysis waits on the completion provider
		WriteTimeout: cfg.AI.Timeout*time.Duration(cfg.AI.Retries+1)*2 + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting_down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_failed", "error", err)
	}

	log.Info("shutdown_complete")
	return nil
}
