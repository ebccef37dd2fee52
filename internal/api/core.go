package api

import (
	"fmt"

	"stratum/internal/capabilities"
	"stratum/internal/contexts"
	"stratum/internal/elasticsearch"
	"stratum/internal/httpserver"
	"stratum/internal/savedobjects"
	"stratum/internal/uisettings"
)

// CoreContextName is the registry name of the core request context.
const CoreContextName = "core"

// CoreSetup bundles the setup-phase contracts of every core service.
type CoreSetup struct {
	Contexts      *contexts.SetupContract
	HTTP          *httpserver.SetupContract
	Capabilities  *capabilities.SetupContract
	Elasticsearch *elasticsearch.SetupContract
	UiSettings    *uisettings.SetupContract
	SavedObjects  *savedobjects.SetupContract
}

// CoreStart bundles the start-phase contracts of every core service.
type CoreStart struct {
	Capabilities *capabilities.StartContract
	SavedObjects *savedobjects.StartContract
	UiSettings   *uisettings.StartContract
	HTTP         *httpserver.StartContract
}

// SavedObjectsAccess is the saved-objects group of the core request context.
type SavedObjectsAccess struct {
	Client *savedobjects.Client
}

// ElasticsearchAccess is the backend-client group of the core request
// context.
type ElasticsearchAccess struct {
	AdminClient *elasticsearch.ScopedClient
	DataClient  *elasticsearch.ScopedClient
}

// UiSettingsAccess is the settings group of the core request context.
type UiSettingsAccess struct {
	Client *uisettings.Client
}

// CoreRequestContext exposes exactly the four core capability groups, each
// scoped to the originating request.
type CoreRequestContext struct {
	SavedObjects  SavedObjectsAccess
	Elasticsearch ElasticsearchAccess
	UiSettings    UiSettingsAccess
}

// CoreFrom resolves the core request context from a handler context.
func CoreFrom(hctx *contexts.HandlerContext) (*CoreRequestContext, error) {
	value, err := hctx.Get(CoreContextName)
	if err != nil {
		return nil, err
	}
	core, ok := value.(*CoreRequestContext)
	if !ok {
		return nil, fmt.Errorf("context '%s' holds %T, not a core request context", CoreContextName, value)
	}
	return core, nil
}
