package elasticsearch

import (
	"context"
	"sync"

	es "github.com/elastic/go-elasticsearch/v8"
)

// ClientSource is a continuously-updated holder of the current backend
// client. Publish replaces the current client; Next returns the latest
// published client, blocking until the first one arrives.
type ClientSource struct {
	mu     sync.RWMutex
	client *es.Client

	readyOnce sync.Once
	ready     chan struct{}
}

// NewClientSource creates an empty source.
func NewClientSource() *ClientSource {
	return &ClientSource{ready: make(chan struct{})}
}

// Publish replaces the current client. Consumers that already resolved a
// client are unaffected; only subsequent Next calls observe the new one.
func (s *ClientSource) Publish(client *es.Client) {
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

// Next returns the latest available client, waiting for the first Publish
// if none arrived yet. The wait is bounded by ctx.
func (s *ClientSource) Next(ctx context.Context) (*es.Client, error) {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()
	if client != nil {
		return client, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ready:
	}

	s.mu.RLock()
	client = s.client
	s.mu.RUnlock()
	return client, nil
}
