package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/Skotchmaster/sweet_shop/internal/models"
)

const maxResults = 100

// Searcher keeps a full text index of the catalog.
type Searcher interface {
	Index(ctx context.Context, item models.SweetItem) error
	Remove(ctx context.Context, id uint) error
	Search(ctx context.Context, q string) ([]models.SweetItem, error)
}

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("info", res)
	}
	return client, nil
}

type ESIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewESIndex(es *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{es: es, index: index}
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "name":        {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "description": {"type": "text"},
      "price":       {"type": "double"}
    }
  }
}`

func (x *ESIndex) EnsureIndex(ctx context.Context) error {
	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = x.es.Indices.Create(
		x.index,
		x.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		x.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

func (x *ESIndex) Index(ctx context.Context, item models.SweetItem) error {
	body, err := json.Marshal(item)
	if err != nil {
		return err
	}
	res, err := x.es.Index(
		x.index,
		bytes.NewReader(body),
		x.es.Index.WithDocumentID(docID(item.ID)),
		x.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index sweet %d: %w", item.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index", res)
	}
	return nil
}

func (x *ESIndex) Remove(ctx context.Context, id uint) error {
	res, err := x.es.Delete(x.index, docID(id), x.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete sweet %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete", res)
	}
	return nil
}

// Reindex pushes every item, used once at startup so the index matches the database.
func (x *ESIndex) Reindex(ctx context.Context, items []models.SweetItem) error {
	for _, it := range items {
		if err := x.Index(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

func (x *ESIndex) Search(ctx context.Context, q string) ([]models.SweetItem, error) {
	query := map[string]any{
		"size": maxResults,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     strings.TrimSpace(q),
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search", res)
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Source models.SweetItem `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]models.SweetItem, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		items = append(items, h.Source)
	}
	return items, nil
}

func docID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("elasticsearch %s: %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}
