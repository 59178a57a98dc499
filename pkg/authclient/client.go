package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrNetwork means the API could not be reached. Retrying later may work.
	ErrNetwork = errors.New("cannot reach the server")
	// ErrUnauthorized means the credentials or session are no longer valid.
	ErrUnauthorized = errors.New("not authenticated")
)

// APIError is a non-2xx answer that is not an auth failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session holds the access token in memory and relies on the HTTP client's
// cookie jar for the refresh cookie. Safe for concurrent use.
type Session struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
	user  *User

	refresh singleflight.Group
}

// NewHTTPClient returns a client with a cookie jar, suitable for NewSession.
func NewHTTPClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewSession builds a session for the API at baseURL. The client must have a
// cookie jar or refresh will never succeed.
func NewSession(baseURL string, httpClient *http.Client) (*Session, error) {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	if httpClient.Jar == nil {
		return nil, errors.New("authclient: http client has no cookie jar")
	}
	return &Session{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) set(token string, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if user != nil {
		s.user = user
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
}

type authResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Hydrate restores a session from a stored access token. An expired token is
// refreshed once. On ErrUnauthorized the session is cleared. On ErrNetwork the
// token is kept so the caller can retry.
func (s *Session) Hydrate(ctx context.Context, token string) (*User, error) {
	s.set(token, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		User User `json:"user"`
	}
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	s.set(s.Token(), &body.User)
	return s.User(), nil
}

func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	return s.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (s *Session) Register(ctx context.Context, name, email, password string) (*User, error) {
	return s.authenticate(ctx, "/api/auth/register", map[string]string{"name": name, "email": email, "password": password})
}

func (s *Session) authenticate(ctx context.Context, path string, payload any) (*User, error) {
	resp, err := s.post(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body authResponse
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	s.set(body.Token, &body.User)
	return s.User(), nil
}

// Logout clears local state even when the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	defer s.clear()

	resp, err := s.post(ctx, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decode(resp, nil)
}

// Refresh obtains a new access token from the refresh cookie. Concurrent
// callers share one request.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	v, err, _ := s.refresh.Do("refresh", func() (interface{}, error) {
		resp, err := s.post(ctx, "/api/auth/refresh", nil)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		var body struct {
			Token string `json:"token"`
		}
		if err := decode(resp, &body); err != nil {
			if errors.Is(err, ErrUnauthorized) {
				s.clear()
			}
			return "", err
		}
		s.set(body.Token, nil)
		return body.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Do sends req with the bearer token. On a 401 it refreshes once and retries.
// Requests with a body must set GetBody, as http.NewRequest does for common
// readers.
func (s *Session) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	used := s.Token()
	resp, err := s.send(ctx, req, used)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	drain(resp)

	// another caller may already have refreshed while this request was in flight
	token := s.Token()
	if token == "" || token == used {
		if token, err = s.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	retry, err := rewind(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err = s.send(ctx, retry, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		s.clear()
		return nil, ErrUnauthorized
	}
	return resp, nil
}

func (s *Session) send(ctx context.Context, req *http.Request, token string) (*http.Response, error) {
	req = req.WithContext(ctx)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return resp, nil
}

func (s *Session) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.send(ctx, req, "")
}

func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("authclient: request body cannot be replayed")
	}
	b, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = b
	return clone, nil
}

// decode maps the status to an error and, for 2xx, fills dst.
func decode(resp *http.Response, dst any) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 300:
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &APIError{Status: resp.StatusCode, Message: body.Message}
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
