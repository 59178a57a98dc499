package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/job_tracker/internal/models"
)

type recorded struct {
	method string
	path   string
	body   string
}

func fakeES(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*Elastic, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	calls := []recorded{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{r.Method, r.URL.Path, string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"9.0.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
			return
		}
		handle(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)
	return NewElastic(client), &calls
}

func TestElastic_Put(t *testing.T) {
	t.Parallel()

	idx, calls := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	job := &models.Job{ID: uuid.New(), UserID: uuid.New(), Company: "Acme", Role: "Dev", Tags: []string{"go"}}
	require.NoError(t, idx.Put(context.Background(), job))

	last := (*calls)[len(*calls)-1]
	assert.Equal(t, http.MethodPut, last.method)
	assert.Equal(t, "/jobs/_doc/"+job.ID.String(), last.path)

	var doc document
	require.NoError(t, json.Unmarshal([]byte(last.body), &doc))
	assert.Equal(t, job.UserID.String(), doc.UserID)
	assert.Equal(t, []string{"go"}, doc.Tags)
}

func TestElastic_RemoveMissingIsFine(t *testing.T) {
	t.Parallel()

	idx, _ := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	assert.NoError(t, idx.Remove(context.Background(), uuid.New()))
}

func TestElastic_Query(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	hit := uuid.New()
	idx, calls := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":1},"hits":[{"_source":{"id":"` + hit.String() + `","user_id":"` + owner.String() + `"}}]}}`))
	})

	total, ids, err := idx.Query(context.Background(), owner, " acme ", 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []uuid.UUID{hit}, ids)

	last := (*calls)[len(*calls)-1]
	assert.True(t, strings.HasSuffix(last.path, "/_search"))
	assert.Contains(t, last.body, `"term":{"user_id":"`+owner.String()+`"}`)
	assert.Contains(t, last.body, `"query":"acme"`)
}

func TestElastic_QueryError(t *testing.T) {
	t.Parallel()

	idx, _ := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	})

	_, _, err := idx.Query(context.Background(), uuid.New(), "x", 0, 10)
	assert.Error(t, err)
}

func TestElastic_EnsureIndexCreatesMapping(t *testing.T) {
	t.Parallel()

	idx, calls := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			_, _ = w.Write([]byte(`{"acknowledged":true,"index":"jobs"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	require.NoError(t, idx.EnsureIndex(context.Background()))

	last := (*calls)[len(*calls)-1]
	assert.Equal(t, http.MethodPut, last.method)
	assert.Equal(t, "/jobs", last.path)

	var body struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(last.body), &body))
	props := body.Mappings.Properties
	assert.Equal(t, "keyword", props["user_id"].Type)
	assert.Equal(t, "keyword", props["id"].Type)
	for _, f := range []string{"company", "role", "notes", "tags"} {
		assert.Equal(t, "text", props[f].Type, f)
	}
}

func TestElastic_EnsureIndexExisting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mapping string
		wantErr bool
	}{
		{"keyword owner", `{"jobs":{"mappings":{"properties":{"user_id":{"type":"keyword"}}}}}`, false},
		{"dynamic text owner", `{"jobs":{"mappings":{"properties":{"user_id":{"type":"text","fields":{"keyword":{"type":"keyword"}}}}}}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			idx, calls := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodHead {
					return
				}
				_, _ = w.Write([]byte(tt.mapping))
			})

			err := idx.EnsureIndex(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			for _, c := range *calls {
				assert.NotEqual(t, http.MethodPut, c.method, "existing index must not be recreated")
			}
		})
	}
}

func TestElastic_EnsureIndexLostRace(t *testing.T) {
	t.Parallel()

	idx, _ := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"},"status":400}`))
		default:
			_, _ = w.Write([]byte(`{"jobs":{"mappings":{"properties":{"user_id":{"type":"keyword"}}}}}`))
		}
	})

	assert.NoError(t, idx.EnsureIndex(context.Background()))
}
