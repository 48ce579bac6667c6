package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/mamadaliyev66/CAM-APP/internal/app_errors"
	"github.com/mamadaliyev66/CAM-APP/internal/models"
)

type LessonSearchRepo struct {
	client *elasticsearch.Client
	index  string
}

func NewLessonSearchRepository(client *elasticsearch.Client, index string) *LessonSearchRepo {
	if index == "" {
		index = LessonIndex
	}
	return &LessonSearchRepo{client: client, index: index}
}

func (r *LessonSearchRepo) CreateIndexIfNotExist(ctx context.Context) error {
	existsReq := esapi.IndicesExistsRequest{Index: []string{r.index}}
	existsRes, err := existsReq.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("error checking index existence: %w", err)
	}
	defer existsRes.Body.Close()

	if existsRes.StatusCode == http.StatusNotFound {
		body, err := json.Marshal(indexMapping())
		if err != nil {
			return fmt.Errorf("marshal mapping: %w", err)
		}
		req := esapi.IndicesCreateRequest{Index: r.index, Body: bytes.NewReader(body)}
		res, err := req.Do(ctx, r.client)
		if err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("mapping creation failed: %s", res.String())
		}
		return nil
	}

	if existsRes.StatusCode >= 300 {
		return fmt.Errorf("index existence check failed with status code %d", existsRes.StatusCode)
	}
	return nil
}

func indexMapping() map[string]any {
	text := map[string]any{
		"type":            "text",
		"analyzer":        "edge_ngram_analyzer",
		"search_analyzer": "standard",
	}
	return map[string]any{
		"settings": map[string]any{
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"edge_ngram_analyzer": map[string]any{
						"tokenizer": "edge_ngram_tokenizer",
						"filter":    []string{"lowercase"},
					},
				},
				"tokenizer": map[string]any{
					"edge_ngram_tokenizer": map[string]any{
						"type":        "edge_ngram",
						"min_gram":    2,
						"max_gram":    20,
						"token_chars": []string{"letter", "digit"},
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"title":      text,
				"comment":    text,
				"collection": map[string]any{"type": "keyword"},
				"createdAt":  map[string]any{"type": "date"},
			},
		},
	}
}

func (r *LessonSearchRepo) IndexLesson(ctx context.Context, lesson models.Lesson) error {
	data, err := json.Marshal(lesson)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}
	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: lesson.ID,
		Refresh:    "true",
		Body:       bytes.NewReader(data),
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("index request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index error: %s", res.String())
	}
	return nil
}

func (r *LessonSearchRepo) DeleteLesson(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{
		Index:      r.index,
		DocumentID: id,
		Refresh:    "true",
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete error: %s", res.String())
	}
	return nil
}

// Search matches query against lesson titles and comments. A non-empty
// collection restricts hits to that lesson collection.
func (r *LessonSearchRepo) Search(ctx context.Context, query, collection string, size int) ([]models.Lesson, error) {
	lessons, err := r.search(ctx, query, collection, size)
	if err != nil {
		return nil, app_errors.Transport("search lessons", err)
	}
	return lessons, nil
}

func (r *LessonSearchRepo) search(ctx context.Context, query, collection string, size int) ([]models.Lesson, error) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(searchBody(query, collection, size)); err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}
	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search error: %s", string(bodyBytes))
	}
	return decodeHits(res.Body)
}

func searchBody(query, collection string, size int) map[string]any {
	if size <= 0 {
		size = 10
	}
	must := map[string]any{
		"multi_match": map[string]any{
			"query":                query,
			"fields":               []string{"title^3", "comment"},
			"type":                 "best_fields",
			"fuzziness":            "AUTO",
			"operator":             "or",
			"minimum_should_match": "2<75%",
		},
	}
	boolQuery := map[string]any{"must": must}
	if collection = strings.TrimSpace(collection); collection != "" {
		boolQuery["filter"] = map[string]any{"term": map[string]any{"collection": collection}}
	}
	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"size":  size,
	}
}

func decodeHits(r io.Reader) ([]models.Lesson, error) {
	var esRes struct {
		Hits struct {
			Hits []struct {
				ID     string        `json:"_id"`
				Source models.Lesson `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&esRes); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	lessons := make([]models.Lesson, 0, len(esRes.Hits.Hits))
	for _, h := range esRes.Hits.Hits {
		l := h.Source
		if l.ID == "" {
			l.ID = h.ID
		}
		lessons = append(lessons, l)
	}
	return lessons, nil
}
