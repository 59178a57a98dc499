package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Skotchmaster/job_tracker/internal/ai"
	"github.com/Skotchmaster/job_tracker/internal/events"
	"github.com/Skotchmaster/job_tracker/internal/mail"
	"github.com/Skotchmaster/job_tracker/internal/search"
	"github.com/Skotchmaster/job_tracker/pkg/config"
)

const defaultOllamaModel = "llama3.1"

func newPublisher(cfg config.Config, log *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("events_disabled", "reason", "KAFKA_BROKERS is empty")
		return events.Noop{Log: log}
	}
	log.Info("events_enabled", "brokers", cfg.KafkaBrokers)
	return events.NewKafkaProducer(cfg.KafkaBrokers, log)
}

func newMailer(cfg config.Config, log *slog.Logger) mail.Sender {
	switch strings.ToLower(cfg.Mail.Provider) {
	case "smtp":
		return mail.NewSMTP(mail.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUser,
			Password: cfg.Mail.SMTPPass,
			From:     cfg.Mail.From,
		})
	case "postmark":
		return mail.NewPostmark(cfg.Mail.PostmarkToken, cfg.Mail.From)
	default:
		log.Warn("mail_disabled", "provider", cfg.Mail.Provider)
		return mail.Noop{Log: log}
	}
}

// newSearchIndex returns nil when ES_URL is unset or the cluster is not
// reachable; the job service then searches with SQL.
func newSearchIndex(ctx context.Context, cfg config.Config, log *slog.Logger) search.Index {
	if cfg.ESURL == "" {
		return nil
	}
	initCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := search.NewClient(initCtx, search.Config{
		URL:      cfg.ESURL,
		User:     cfg.ESUser,
		Password: cfg.ESPassword,
	})
	if err != nil {
		log.Warn("search_index_unavailable", "reason", "falling back to database", "error", err)
		return nil
	}
	idx := search.NewElastic(client)
	if err := idx.EnsureIndex(initCtx); err != nil {
		log.Warn("search_index_unavailable", "reason", "falling back to database", "error", err)
		return nil
	}
	return idx
}

func newCompleter(ctx context.Context, cfg config.Config, log *slog.Logger) (ai.Completer, error) {
	var next ai.Completer
	switch strings.ToLower(cfg.AI.Provider) {
	case "ollama":
		model := cfg.AI.Model
		if model == "" || strings.HasPrefix(model, "gemini") {
			model = defaultOllamaModel
		}
		o, err := ai.NewOllama(cfg.AI.OllamaURL, model, nil)
		if err != nil {
			return nil, err
		}
		next = o
	case "gemini", "":
		if cfg.AI.APIKey == "" {
			log.Warn("completion_disabled", "reason", "GOOGLE_API_KEY is empty")
			next = ai.CompleterFunc(func(context.Context, string) (string, error) {
				return "", errors.New("completion provider is not configured")
			})
			break
		}
		g, err := ai.NewGemini(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, err
		}
		next = g
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AI.Provider)
	}

	return &ai.Retrying{
		Next:    next,
		Timeout: cfg.AI.Timeout,
		Retries: cfg.AI.Retries,
		Backoff: cfg.AI.Backoff,
		Log:     log.With("component", "completer"),
	}, nil
}
