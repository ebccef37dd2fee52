package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stratum/internal/api"
	"stratum/internal/contexts"
	"stratum/internal/elasticsearch"
	"stratum/internal/httpserver"
	"stratum/internal/savedobjects"
)

// registerCoreRoutes attaches the routes the platform itself serves.
func (s *Server) registerCoreRoutes(httpContract *httpserver.SetupContract) error {
	err := httpContract.RegisterRoute("", http.MethodGet, "/core/", func(hctx *contexts.HandlerContext, w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"version": Version})
	})
	if err != nil {
		return err
	}

	err = httpContract.RegisterRoute("", http.MethodGet, "/core/status", func(hctx *contexts.HandlerContext, w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		phase := s.phase
		startedAt := s.startedAt
		s.mu.Unlock()

		status := map[string]interface{}{
			"version": Version,
			"phase":   phase.String(),
		}
		if !startedAt.IsZero() {
			status["uptimeMillis"] = time.Since(startedAt).Milliseconds()
		}
		writeJSON(w, status)
	})
	if err != nil {
		return err
	}

	metricsHandler := httpContract.MetricsHandler()
	return httpContract.RegisterRoute("", http.MethodGet, "/core/metrics", func(hctx *contexts.HandlerContext, w http.ResponseWriter, r *http.Request) {
		metricsHandler.ServeHTTP(w, r)
	})
}

// registerCoreContext publishes the "core" request context. The provider
// resolves per request: it awaits the current admin and data clients and
// builds fresh scoped clients, so two concurrent requests never share an
// instance.
func (s *Server) registerCoreContext(
	contextContract *contexts.SetupContract,
	esContract *elasticsearch.SetupContract,
	savedObjectsContract *savedobjects.SetupContract,
) error {
	owner := contexts.NewOwnerToken("core")
	return contextContract.RegisterContext(owner, "", api.CoreContextName, func(ctx context.Context, req *http.Request) (interface{}, error) {
		s.mu.Lock()
		start := s.coreStart
		s.mu.Unlock()
		if start == nil {
			return nil, fmt.Errorf("core context is unavailable before the server has started")
		}

		admin, err := esContract.AdminSource().Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve admin client: %w", err)
		}
		data, err := esContract.DataSource().Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve data client: %w", err)
		}

		return &api.CoreRequestContext{
			SavedObjects: api.SavedObjectsAccess{
				Client: savedObjectsContract.ScopedClient(req),
			},
			Elasticsearch: api.ElasticsearchAccess{
				AdminClient: elasticsearch.NewScopedClient(admin, req),
				DataClient:  elasticsearch.NewScopedClient(data, req),
			},
			UiSettings: api.UiSettingsAccess{
				Client: start.UiSettings.ClientFor(req),
			},
		}, nil
	})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "encoding failure", http.StatusInternalServerError)
	}
}
