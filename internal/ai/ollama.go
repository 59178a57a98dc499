package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type Ollama struct {
	api   *api.Client
	model string
}

func NewOllama(baseURL, model string, httpClient *http.Client) (*Ollama, error) {
	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Ollama{api: api.NewClient(u, httpClient), model: model}, nil
}

func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Format: json.RawMessage(`"json"`),
		Stream: &stream,
	}

	var sb strings.Builder
	err := o.api.Generate(ctx, req, func(r api.GenerateResponse) error {
		sb.WriteString(r.Response)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var se api.StatusError
		if errors.As(err, &se) {
			return "", &StatusError{Code: se.StatusCode, Err: err}
		}
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
