package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

type Gemini struct {
	llm llms.Model
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is empty")
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{llm: llm}, nil
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithJSONMode(),
		llms.WithTemperature(0.2),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		err = fmt.Errorf("gemini generate: %w", err)
		if code, ok := googleStatus(err); ok {
			return "", &StatusError{Code: code, Err: err}
		}
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

// googleStatus finds the HTTP status behind a Google API error. gRPC codes
// are translated to their HTTP equivalents.
func googleStatus(err error) (int, bool) {
	var ae *apierror.APIError
	if errors.As(err, &ae) {
		if code := ae.HTTPCode(); code > 0 {
			return code, true
		}
		if st := ae.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.ResourceExhausted:
				return http.StatusTooManyRequests, true
			case codes.Unavailable:
				return http.StatusServiceUnavailable, true
			case codes.DeadlineExceeded:
				return http.StatusGatewayTimeout, true
			case codes.Internal, codes.Unknown:
				return http.StatusInternalServerError, true
			case codes.InvalidArgument, codes.FailedPrecondition:
				return http.StatusBadRequest, true
			case codes.Unauthenticated:
				return http.StatusUnauthorized, true
			case codes.PermissionDenied:
				return http.StatusForbidden, true
			case codes.NotFound:
				return http.StatusNotFound, true
			}
		}
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) && ge.Code > 0 {
		return ge.Code, true
	}
	return 0, false
}
