package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI accepts exactly one access token at a time; refresh swaps it.
type fakeAPI struct {
	mu        sync.Mutex
	valid     string
	next      string
	refreshes atomic.Int32
	delay     time.Duration
	noRefresh bool
}

func (f *fakeAPI) current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, code int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(v)
	}
	authed := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+f.current()
	}
	user := map[string]string{"id": "u1", "name": "Ada", "email": "ada@example.com"}

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "r1", Path: "/api/auth", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]any{"user": user, "token": f.current()})
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user})
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshes.Add(1)
		time.Sleep(f.delay)
		ck, err := r.Cookie("refreshToken")
		if f.noRefresh || err != nil || ck.Value != "r1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid refresh token"})
			return
		}
		f.mu.Lock()
		f.valid = f.next
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"token": f.current()})
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "", Path: "/api/auth", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
			return
		}
		b, _ := io.ReadAll(r.Body)
		writeJSON(w, http.StatusOK, map[string]string{"echo": string(b)})
	})
	return mux
}

func newFixture(t *testing.T, api *fakeAPI) (*Session, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	s, err := NewSession(srv.URL+"/", nil)
	require.NoError(t, err)
	return s, srv
}

func TestNewSession_RequiresJar(t *testing.T) {
	t.Parallel()
	_, err := NewSession("http://x", &http.Client{})
	require.Error(t, err)
}

func TestLoginAndLogout(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{valid: "a1", next: "a2"}
	s, _ := newFixture(t, api)
	ctx := context.Background()

	_, err := s.Login(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, s.Token())

	u, err := s.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "a1", s.Token())

	require.NoError(t, s.Logout(ctx))
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
}

func TestHydrate(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{valid: "a1", next: "a2"}
	s, _ := newFixture(t, api)
	ctx := context.Background()

	u, err := s.Hydrate(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)

	// stale token and no refresh cookie: the session is torn down
	_, err = s.Hydrate(ctx, "stale")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
}

func TestDo_SingleFlightRefresh(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{valid: "a1", next: "a2", delay: 100 * time.Millisecond}
	s, srv := newFixture(t, api)
	ctx := context.Background()

	_, err := s.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	// the server rotates to a2 on refresh; a1 is now stale
	api.mu.Lock()
	api.valid = "expired"
	api.mu.Unlock()

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/jobs", strings.NewReader(`{"company":"Acme"}`))
			if err != nil {
				errs <- err
				return
			}
			resp, err := s.Do(ctx, req)
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				errs <- err
				return
			}
			if resp.StatusCode != http.StatusOK || body["echo"] != `{"company":"Acme"}` {
				errs <- errors.New("unexpected response " + resp.Status)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.EqualValues(t, 1, api.refreshes.Load())
	assert.Equal(t, "a2", s.Token())
}

func TestDo_RefreshRejected(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{valid: "a1", next: "a2", noRefresh: true}
	s, srv := newFixture(t, api)
	ctx := context.Background()

	_, err := s.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	api.mu.Lock()
	api.valid = "expired"
	api.mu.Unlock()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/jobs", nil)
	require.NoError(t, err)
	_, err = s.Do(ctx, req)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, s.Token())
}

func TestDo_NetworkError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s, err := NewSession(url, nil)
	require.NoError(t, err)

	_, err = s.Login(context.Background(), "ada@example.com", "secret1")
	require.ErrorIs(t, err, ErrNetwork)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestAPIError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"email already registered"}`))
	}))
	t.Cleanup(srv.Close)

	s, err := NewSession(srv.URL, nil)
	require.NoError(t, err)
	_, err = s.Register(context.Background(), "Ada", "ada@example.com", "secret1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "email already registered", apiErr.Message)
}
