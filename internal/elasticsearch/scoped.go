package elasticsearch

import (
	"context"
	"fmt"
	"net/http"

	es "github.com/elastic/go-elasticsearch/v8"
)

// forwardedHeaders are the request headers a scoped client carries to the
// backend, preserving the caller's identity and tracing context.
var forwardedHeaders = []string{
	"Authorization",
	"X-Request-Id",
	"X-Opaque-Id",
}

// ScopedClient binds a backend client to one originating request. The
// underlying client is shared; only the header set is per-request.
type ScopedClient struct {
	client  *es.Client
	headers map[string]string
}

// NewScopedClient builds a scoped client forwarding the identity headers of
// req. req may be nil for internal (non-request) callers.
func NewScopedClient(client *es.Client, req *http.Request) *ScopedClient {
	headers := make(map[string]string)
	if req != nil {
		for _, name := range forwardedHeaders {
			if value := req.Header.Get(name); value != "" {
				headers[name] = value
			}
		}
	}
	return &ScopedClient{client: client, headers: headers}
}

// Client returns the shared underlying client.
func (s *ScopedClient) Client() *es.Client {
	return s.client
}

// Headers returns the per-request headers to attach to backend calls.
func (s *ScopedClient) Headers() map[string]string {
	return s.headers
}

// Ping checks backend reachability with the scoped identity attached.
func (s *ScopedClient) Ping(ctx context.Context) error {
	res, err := s.client.Ping(
		s.client.Ping.WithContext(ctx),
		s.client.Ping.WithHeader(s.headers),
	)
	if err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping backend: %s", res.Status())
	}
	return nil
}
