package savedobjects

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"stratum/internal/elasticsearch"
)

// Client is a saved-objects client scoped to one originating request. Every
// backend call resolves the current admin client from the source and
// forwards the request's identity headers.
type Client struct {
	source    *elasticsearch.ClientSource
	index     string
	batchSize int
	headers   map[string]string
}

// CreateOptions controls Create behavior.
type CreateOptions struct {
	// Overwrite replaces an existing object instead of failing with
	// ErrConflict.
	Overwrite bool
}

// FindOptions selects objects for Find.
type FindOptions struct {
	Type    string
	Search  string
	Page    int
	PerPage int
}

// FindResult is one page of matching objects.
type FindResult struct {
	Total   int
	Page    int
	PerPage int
	Objects []SavedObject
}

// Get retrieves one object by type and id.
func (c *Client) Get(ctx context.Context, objectType, id string) (*SavedObject, error) {
	if err := validateTypeAndID(objectType, id); err != nil {
		return nil, err
	}
	es, err := c.source.Next(ctx)
	if err != nil {
		return nil, err
	}

	res, err := es.Get(c.index, rawID(objectType, id),
		es.Get.WithContext(ctx),
		es.Get.WithHeader(c.headers),
	)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", objectType, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("get %s/%s: %w", objectType, id, ErrNotFound)
	}
	if res.IsError() {
		return nil, fmt.Errorf("get %s/%s: %s", objectType, id, res.Status())
	}

	var body struct {
		Found  bool        `json:"found"`
		Source rawDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("get %s/%s: decode response: %w", objectType, id, err)
	}
	if !body.Found {
		return nil, fmt.Errorf("get %s/%s: %w", objectType, id, ErrNotFound)
	}

	return &SavedObject{
		ID:         id,
		Type:       body.Source.Type,
		Attributes: body.Source.Attributes,
		UpdatedAt:  body.Source.UpdatedAt,
	}, nil
}

// Create persists a new object. A missing ID is generated. Without
// Overwrite, an existing object with the same type and id yields
// ErrConflict.
func (c *Client) Create(ctx context.Context, object *SavedObject, opts CreateOptions) (*SavedObject, error) {
	if object.ID == "" {
		object.ID = uuid.NewString()
	}
	if err := validateTypeAndID(object.Type, object.ID); err != nil {
		return nil, err
	}
	es, err := c.source.Next(ctx)
	if err != nil {
		return nil, err
	}

	doc := rawDocument{
		Type:       object.Type,
		Attributes: object.Attributes,
		UpdatedAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("create %s/%s: encode document: %w", object.Type, object.ID, err)
	}

	opType := "create"
	if opts.Overwrite {
		opType = "index"
	}

	res, err := es.Index(c.index, bytes.NewReader(payload),
		es.Index.WithDocumentID(rawID(object.Type, object.ID)),
		es.Index.WithOpType(opType),
		es.Index.WithContext(ctx),
		es.Index.WithHeader(c.headers),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s/%s: %w", object.Type, object.ID, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusConflict {
		return nil, fmt.Errorf("create %s/%s: %w", object.Type, object.ID, ErrConflict)
	}
	if res.IsError() {
		return nil, fmt.Errorf("create %s/%s: %s", object.Type, object.ID, res.Status())
	}

	created := *object
	created.UpdatedAt = doc.UpdatedAt
	return &created, nil
}

// Update merges attributes into an existing object. A missing object yields
// ErrNotFound.
func (c *Client) Update(ctx context.Context, objectType, id string, attributes map[string]interface{}) (*SavedObject, error) {
	existing, err := c.Get(ctx, objectType, id)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]interface{}, len(existing.Attributes)+len(attributes))
	for k, v := range existing.Attributes {
		merged[k] = v
	}
	for k, v := range attributes {
		merged[k] = v
	}

	return c.Create(ctx, &SavedObject{
		ID:         id,
		Type:       objectType,
		Attributes: merged,
	}, CreateOptions{Overwrite: true})
}

// Delete removes one object. A missing object yields ErrNotFound.
func (c *Client) Delete(ctx context.Context, objectType, id string) error {
	if err := validateTypeAndID(objectType, id); err != nil {
		return err
	}
	es, err := c.source.Next(ctx)
	if err != nil {
		return err
	}

	res, err := es.Delete(c.index, rawID(objectType, id),
		es.Delete.WithContext(ctx),
		es.Delete.WithHeader(c.headers),
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", objectType, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("delete %s/%s: %w", objectType, id, ErrNotFound)
	}
	if res.IsError() {
		return fmt.Errorf("delete %s/%s: %s", objectType, id, res.Status())
	}
	return nil
}

// Find returns one page of objects of a type, optionally filtered by a
// simple query string over attributes.
func (c *Client) Find(ctx context.Context, opts FindOptions) (*FindResult, error) {
	if opts.Type == "" {
		return nil, fmt.Errorf("find: type must not be empty")
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PerPage < 1 || opts.PerPage > c.batchSize {
		opts.PerPage = c.batchSize
	}

	es, err := c.source.Next(ctx)
	if err != nil {
		return nil, err
	}

	query := buildFindQuery(opts)
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("find %s: encode query: %w", opts.Type, err)
	}

	res, err := es.Search(
		es.Search.WithIndex(c.index),
		es.Search.WithBody(bytes.NewReader(payload)),
		es.Search.WithFrom((opts.Page-1)*opts.PerPage),
		es.Search.WithSize(opts.PerPage),
		es.Search.WithContext(ctx),
		es.Search.WithHeader(c.headers),
	)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", opts.Type, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("find %s: %s", opts.Type, res.Status())
	}

	var body struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string      `json:"_id"`
				Source rawDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("find %s: decode response: %w", opts.Type, err)
	}

	result := &FindResult{
		Total:   body.Hits.Total.Value,
		Page:    opts.Page,
		PerPage: opts.PerPage,
	}
	for _, hit := range body.Hits.Hits {
		_, id, err := splitRawID(hit.ID)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", opts.Type, err)
		}
		result.Objects = append(result.Objects, SavedObject{
			ID:         id,
			Type:       hit.Source.Type,
			Attributes: hit.Source.Attributes,
			UpdatedAt:  hit.Source.UpdatedAt,
		})
	}
	return result, nil
}

func buildFindQuery(opts FindOptions) map[string]interface{} {
	must := []map[string]interface{}{
		{"term": map[string]interface{}{"type": opts.Type}},
	}
	if opts.Search != "" {
		must = append(must, map[string]interface{}{
			"simple_query_string": map[string]interface{}{
				"query":  opts.Search,
				"fields": []string{"attributes.*"},
			},
		})
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
	}
}
