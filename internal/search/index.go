package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/job_tracker/internal/models"
)

const IndexName = "jobs"

// Index keeps a searchable copy of jobs. Query returns matching job ids for
// one owner; the caller loads the rows from the database.
type Index interface {
	Put(ctx context.Context, job *models.Job) error
	Remove(ctx context.Context, id uuid.UUID) error
	Query(ctx context.Context, userID uuid.UUID, q string, from, size int) (int64, []uuid.UUID, error)
}

type document struct {
	ID      string   `json:"id"`
	UserID  string   `json:"user_id"`
	Company string   `json:"company"`
	Role    string   `json:"role"`
	Status  string   `json:"status"`
	Notes   string   `json:"notes"`
	Tags    []string `json:"tags"`
}

type Elastic struct {
	es    *elasticsearch.Client
	index string
}

type Config struct {
	URL      string
	User     string
	Password string
	// Transport is used by tests.
	Transport http.RoundTripper
}

func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error response: %s: %s", res.Status(), body)
	}
	return client, nil
}

func NewElastic(es *elasticsearch.Client) *Elastic {
	return &Elastic{es: es, index: IndexName}
}

// Ids and owners are exact-match keys. Left to dynamic mapping they become
// analyzed text and a term filter on a whole uuid never matches.
const indexMapping = `{
  "mappings": {
    "properties": {
      "id":      {"type": "keyword"},
      "user_id": {"type": "keyword"},
      "status":  {"type": "keyword"},
      "company": {"type": "text"},
      "role":    {"type": "text"},
      "notes":   {"type": "text"},
      "tags":    {"type": "text"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when missing. An existing
// index whose user_id is not a keyword is an error, because owner filtering
// would silently return nothing.
func (e *Elastic) EnsureIndex(ctx context.Context) error {
	res, err := e.es.Indices.Exists([]string{e.index}, e.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return e.checkMapping(ctx)
	case http.StatusNotFound:
	default:
		return fmt.Errorf("index exists: %s", res.Status())
	}

	res, err = e.es.Indices.Create(e.index,
		e.es.Indices.Create.WithContext(ctx),
		e.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		// another instance won the race
		if bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return e.checkMapping(ctx)
		}
		return fmt.Errorf("create index: %s: %s", res.Status(), body)
	}
	return nil
}

func (e *Elastic) checkMapping(ctx context.Context) error {
	res, err := e.es.Indices.GetMapping(
		e.es.Indices.GetMapping.WithContext(ctx),
		e.es.Indices.GetMapping.WithIndex(e.index),
	)
	if err != nil {
		return fmt.Errorf("get mapping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("get mapping: %s", res.Status())
	}

	var m map[string]struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&m); err != nil {
		return fmt.Errorf("get mapping: %w", err)
	}
	for _, idx := range m {
		if t := idx.Mappings.Properties["user_id"].Type; t != "keyword" {
			return fmt.Errorf("index %q maps user_id as %q, want keyword", e.index, t)
		}
	}
	return nil
}

func (e *Elastic) Put(ctx context.Context, job *models.Job) error {
	doc := document{
		ID:      job.ID.String(),
		UserID:  job.UserID.String(),
		Company: job.Company,
		Role:    job.Role,
		Status:  string(job.Status),
		Notes:   job.Notes,
		Tags:    job.Tags,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}

	res, err := e.es.Index(
		e.index,
		&buf,
		e.es.Index.WithContext(ctx),
		e.es.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		return fmt.Errorf("index job: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index job: %s", res.Status())
	}
	return nil
}

func (e *Elastic) Remove(ctx context.Context, id uuid.UUID) error {
	res, err := e.es.Delete(e.index, id.String(), e.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("remove job: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove job: %s", res.Status())
	}
	return nil
}

func (e *Elastic) Query(ctx context.Context, userID uuid.UUID, q string, from, size int) (int64, []uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     strings.TrimSpace(q),
						"fields":    []string{"company^2", "role^2", "notes", "tags"},
						"fuzziness": "AUTO",
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"user_id": userID.String()},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search jobs: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search jobs: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := uuid.Parse(hit.Source.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return r.Hits.Total.Value, ids, nil
}
