package savedobjects

import (
	"context"
	"fmt"
	"net/http"

	"stratum/internal/elasticsearch"
	"stratum/pkg/logging"
)

// Service is the saved-objects core service.
type Service struct {
	source    *elasticsearch.ClientSource
	index     string
	batchSize int
}

// SetupDeps carries what the saved-objects service needs from the
// orchestrator.
type SetupDeps struct {
	// AdminSource provides credentialed backend clients.
	AdminSource *elasticsearch.ClientSource
	// Index is the backend index holding saved objects.
	Index string
	// BatchSize caps find page sizes.
	BatchSize int
}

// SetupContract exposes the scoped client factory to dependents.
type SetupContract struct {
	service *Service
}

// StartDeps is empty; start only prepares the backend index.
type StartDeps struct{}

// StartContract mirrors the setup contract once the index is ready.
type StartContract struct {
	service *Service
}

// NewService creates the saved-objects service.
func NewService() *Service {
	return &Service{}
}

// Setup captures dependencies and publishes the scoped client factory. No
// backend call happens yet; the index is prepared during start.
func (s *Service) Setup(deps SetupDeps) (*SetupContract, error) {
	if deps.AdminSource == nil {
		return nil, fmt.Errorf("saved objects setup: admin client source is required")
	}
	if deps.Index == "" {
		return nil, fmt.Errorf("saved objects setup: index must not be empty")
	}

	s.source = deps.AdminSource
	s.index = deps.Index
	s.batchSize = deps.BatchSize
	if s.batchSize < 1 {
		s.batchSize = 100
	}
	return &SetupContract{service: s}, nil
}

// Start ensures the backend index exists. It runs before network traffic is
// accepted so no request observes a missing index.
func (s *Service) Start(ctx context.Context, deps StartDeps) (*StartContract, error) {
	es, err := s.source.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("saved objects start: %w", err)
	}

	res, err := es.Indices.Exists([]string{s.index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("saved objects start: check index '%s': %w", s.index, err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		created, err := es.Indices.Create(s.index, es.Indices.Create.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("saved objects start: create index '%s': %w", s.index, err)
		}
		created.Body.Close()
		// A concurrent creator winning the race is fine; anything else is not.
		if created.IsError() && created.StatusCode != http.StatusBadRequest {
			return nil, fmt.Errorf("saved objects start: create index '%s': %s", s.index, created.Status())
		}
		logging.Info("SavedObjectsService", "Created backend index '%s'", s.index)
	}

	return &StartContract{service: s}, nil
}

// Stop releases nothing; the service holds no connections of its own.
func (s *Service) Stop(ctx context.Context) error {
	logging.Debug("SavedObjectsService", "Stopped")
	return nil
}

// ScopedClient builds a client bound to one originating request. req may be
// nil for internal callers.
func (c *SetupContract) ScopedClient(req *http.Request) *Client {
	return c.service.scopedClient(req)
}

// ScopedClient builds a client bound to one originating request.
func (c *StartContract) ScopedClient(req *http.Request) *Client {
	return c.service.scopedClient(req)
}

func (s *Service) scopedClient(req *http.Request) *Client {
	headers := make(map[string]string)
	if req != nil {
		for _, name := range []string{"Authorization", "X-Request-Id", "X-Opaque-Id"} {
			if value := req.Header.Get(name); value != "" {
				headers[name] = value
			}
		}
	}
	return &Client{
		source:    s.source,
		index:     s.index,
		batchSize: s.batchSize,
		headers:   headers,
	}
}
