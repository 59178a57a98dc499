// Package ai adapts external text-completion providers to a single
// Completer and decodes their JSON replies.
package ai

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTimeout       = errors.New("completion timed out")
	ErrEmptyResponse = errors.New("completion returned no text")
	ErrFormat        = errors.New("completion reply is not the expected JSON")
)

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusError carries the HTTP status a provider answered with.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string { return fmt.Sprintf("provider status %d: %v", e.Code, e.Err) }
func (e *StatusError) Unwrap() error { return e.Err }

// CompleterFunc lets a plain function act as a Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
