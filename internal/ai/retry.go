package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Retrying bounds each attempt with Timeout and retries transient failures
// up to Retries times with linear backoff.
type Retrying struct {
	Next    Completer
	Timeout time.Duration
	Retries int
	Backoff time.Duration
	Log     *slog.Logger
}

func (r *Retrying) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.Retries; attempt++ {
		out, err := r.attempt(ctx, prompt)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		if !transient(err) {
			return "", err
		}
		if r.Log != nil {
			r.Log.Warn("completion_retry", "attempt", attempt+1, "error", err)
		}
		if attempt == r.Retries {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.Backoff * time.Duration(attempt+1)):
		}
	}
	return "", lastErr
}

func (r *Retrying) attempt(ctx context.Context, prompt string) (string, error) {
	actx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	out, err := r.Next.Complete(actx, prompt)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s", ErrTimeout, r.Timeout)
	}
	return out, err
}

func transient(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return false
}
