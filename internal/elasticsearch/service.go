package elasticsearch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"stratum/internal/config"
	"stratum/pkg/logging"
)

// Service builds and maintains the admin and data client pools.
type Service struct {
	adminSource *ClientSource
	dataSource  *ClientSource

	cancelWatch context.CancelFunc
}

// SetupDeps carries what the elasticsearch service needs from the
// orchestrator.
type SetupDeps struct {
	// Config provides the validated elasticsearch section and reload
	// notifications.
	Config *config.Service
}

// SetupContract exposes the client sources to dependents.
type SetupContract struct {
	adminSource *ClientSource
	dataSource  *ClientSource
}

// AdminSource returns the source of credentialed admin clients.
func (c *SetupContract) AdminSource() *ClientSource {
	return c.adminSource
}

// DataSource returns the source of per-request-identity data clients.
func (c *SetupContract) DataSource() *ClientSource {
	return c.dataSource
}

// NewService creates the elasticsearch service.
func NewService() *Service {
	return &Service{
		adminSource: NewClientSource(),
		dataSource:  NewClientSource(),
	}
}

// Setup builds the initial client pools from configuration, publishes them,
// and begins tracking configuration reloads.
func (s *Service) Setup(ctx context.Context, deps SetupDeps) (*SetupContract, error) {
	section, err := deps.Config.Section(config.NamespaceElasticsearch)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch setup: %w", err)
	}
	esCfg := section.(*config.ElasticsearchConfig)

	if err := s.publishClients(esCfg); err != nil {
		return nil, fmt.Errorf("elasticsearch setup: %w", err)
	}
	logging.Info("ElasticsearchService", "Client pools ready (%d hosts)", len(esCfg.Hosts))

	watchCtx, cancel := context.WithCancel(context.Background())
	s.cancelWatch = cancel
	go s.watchConfig(watchCtx, deps.Config)

	return &SetupContract{
		adminSource: s.adminSource,
		dataSource:  s.dataSource,
	}, nil
}

// Stop halts configuration tracking. Published clients have no connections
// of their own to close; in-flight consumers finish against the clients
// they already resolved.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancelWatch != nil {
		s.cancelWatch()
		s.cancelWatch = nil
	}
	logging.Debug("ElasticsearchService", "Stopped")
	return nil
}

// watchConfig republishes client pools whenever the elasticsearch section
// changes. A rebuild failure keeps the previous clients active.
func (s *Service) watchConfig(ctx context.Context, cfg *config.Service) {
	changes := cfg.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if !containsNamespace(change.Namespaces, config.NamespaceElasticsearch) {
				continue
			}
			section, err := cfg.Section(config.NamespaceElasticsearch)
			if err != nil {
				logging.Error("ElasticsearchService", err, "Cannot read reloaded elasticsearch section")
				continue
			}
			if err := s.publishClients(section.(*config.ElasticsearchConfig)); err != nil {
				logging.Error("ElasticsearchService", err, "Keeping previous client pools after failed rebuild")
				continue
			}
			logging.Info("ElasticsearchService", "Client pools rebuilt after configuration change")
		}
	}
}

func containsNamespace(namespaces []string, namespace string) bool {
	for _, n := range namespaces {
		if n == namespace {
			return true
		}
	}
	return false
}

// publishClients builds both pools from one configuration snapshot and
// publishes them atomically with respect to each source.
func (s *Service) publishClients(esCfg *config.ElasticsearchConfig) error {
	admin, err := newClient(esCfg, true)
	if err != nil {
		return fmt.Errorf("build admin client: %w", err)
	}
	data, err := newClient(esCfg, false)
	if err != nil {
		return fmt.Errorf("build data client: %w", err)
	}

	s.adminSource.Publish(admin)
	s.dataSource.Publish(data)
	return nil
}

// newClient builds one backend client. withCredentials selects whether the
// configured process credentials are attached; the data pool relies on
// per-request headers instead.
func newClient(esCfg *config.ElasticsearchConfig, withCredentials bool) (*es.Client, error) {
	cfg := es.Config{
		Addresses: esCfg.Hosts,
		Transport: &http.Transport{
			ResponseHeaderTimeout: time.Duration(esCfg.RequestTimeoutMillis) * time.Millisecond,
		},
	}
	if withCredentials {
		cfg.Username = esCfg.Username
		cfg.Password = esCfg.Password
	}
	return es.NewClient(cfg)
}
