package config

import (
	"net/url"
	"strings"
)

// Namespace paths under which core section schemas are registered.
const (
	NamespaceElasticsearch = "elasticsearch"
	NamespaceLogging       = "logging"
	NamespaceHTTP          = "http"
	NamespacePlugins       = "plugins"
	NamespaceDev           = "dev"
	NamespaceStratum       = "stratum"
	NamespaceSavedObjects  = "savedObjects"
	NamespaceUISettings    = "uiSettings"
)

// Schema is implemented by every typed configuration section. The service
// creates a fresh instance per load, applies defaults, decodes the raw YAML
// subtree over it, then validates.
type Schema interface {
	// ApplyDefaults fills fields the document may leave unset.
	ApplyDefaults()
	// Validate returns all invalid fields of the decoded section.
	Validate() ValidationErrors
}

// SchemaFactory produces a fresh section instance for a load pass.
type SchemaFactory func() Schema

// ElasticsearchConfig configures the backend data store client pools.
type ElasticsearchConfig struct {
	Hosts []string `yaml:"hosts"`
	// Username and Password are used for the admin client pool. The data
	// client pool passes through per-request credentials instead.
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	// RequestTimeoutMillis bounds individual backend calls.
	RequestTimeoutMillis int `yaml:"requestTimeoutMillis,omitempty"`
}

func (c *ElasticsearchConfig) ApplyDefaults() {
	if len(c.Hosts) == 0 {
		c.Hosts = []string{"http://localhost:9200"}
	}
	if c.RequestTimeoutMillis == 0 {
		c.RequestTimeoutMillis = 30000
	}
}

func (c *ElasticsearchConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	for _, host := range c.Hosts {
		u, err := url.Parse(host)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add("", "hosts", "must be an absolute URL", host)
		}
	}
	if c.RequestTimeoutMillis < 0 {
		errs.Add("", "requestTimeoutMillis", "must not be negative", c.RequestTimeoutMillis)
	}
	return errs
}

// LoggingConfig configures the process-wide logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	// Dest selects the output destination: "stdout" or "stderr".
	Dest string `yaml:"dest,omitempty"`
}

func (c *LoggingConfig) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Dest == "" {
		c.Dest = "stdout"
	}
}

func (c *LoggingConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	switch c.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs.Add("", "level", "must be one of debug, info, warn, error", c.Level)
	}
	switch c.Format {
	case "text", "json":
	default:
		errs.Add("", "format", "must be 'text' or 'json'", c.Format)
	}
	switch c.Dest {
	case "stdout", "stderr":
	default:
		errs.Add("", "dest", "must be 'stdout' or 'stderr'", c.Dest)
	}
	return errs
}

// HTTPConfig configures the network listener and router.
type HTTPConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	BasePath string `yaml:"basePath,omitempty"`
	// ShutdownTimeoutMillis bounds the graceful drain on stop.
	ShutdownTimeoutMillis int `yaml:"shutdownTimeoutMillis,omitempty"`
}

func (c *HTTPConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5601
	}
	if c.ShutdownTimeoutMillis == 0 {
		c.ShutdownTimeoutMillis = 30000
	}
}

func (c *HTTPConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	if c.Port < 1 || c.Port > 65535 {
		errs.Add("", "port", "must be between 1 and 65535", c.Port)
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		errs.Add("", "basePath", "must start with '/'", c.BasePath)
	}
	if strings.HasSuffix(c.BasePath, "/") {
		errs.Add("", "basePath", "must not end with '/'", c.BasePath)
	}
	if c.ShutdownTimeoutMillis < 0 {
		errs.Add("", "shutdownTimeoutMillis", "must not be negative", c.ShutdownTimeoutMillis)
	}
	return errs
}

// PluginsConfig configures plugin discovery and initialization.
type PluginsConfig struct {
	// Dir is the primary directory scanned for plugin manifests.
	Dir string `yaml:"dir,omitempty"`
	// AdditionalDirs are extra scan roots, e.g. for development plugins.
	AdditionalDirs []string `yaml:"additionalDirs,omitempty"`
	// Initialize controls whether discovered plugins are set up and
	// started. Discovery always runs so the dependency graph is known.
	Initialize *bool `yaml:"initialize,omitempty"`
}

func (c *PluginsConfig) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = "plugins"
	}
	if c.Initialize == nil {
		t := true
		c.Initialize = &t
	}
}

func (c *PluginsConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	if c.Dir == "" {
		errs.Add("", "dir", "must not be empty")
	}
	return errs
}

// ShouldInitialize reports whether plugins are set up and started.
func (c *PluginsConfig) ShouldInitialize() bool {
	return c.Initialize == nil || *c.Initialize
}

// DevConfig holds development-mode switches.
type DevConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

func (c *DevConfig) ApplyDefaults() {}

func (c *DevConfig) Validate() ValidationErrors { return nil }

// StratumConfig holds top-level server identity settings.
type StratumConfig struct {
	// Name identifies this server instance in logs and status output.
	Name string `yaml:"name,omitempty"`
	// Index is the backend index that holds saved objects.
	Index string `yaml:"index,omitempty"`
}

func (c *StratumConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "stratum"
	}
	if c.Index == "" {
		c.Index = ".stratum"
	}
}

func (c *StratumConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	if strings.ContainsAny(c.Index, " \t") {
		errs.Add("", "index", "must not contain whitespace", c.Index)
	}
	return errs
}

// SavedObjectsConfig configures the persistence abstraction.
type SavedObjectsConfig struct {
	// BatchSize caps page sizes for find operations.
	BatchSize int `yaml:"batchSize,omitempty"`
}

func (c *SavedObjectsConfig) ApplyDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
}

func (c *SavedObjectsConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	if c.BatchSize < 1 {
		errs.Add("", "batchSize", "must be at least 1", c.BatchSize)
	}
	return errs
}

// UISettingsConfig configures user-settings behavior.
type UISettingsConfig struct {
	// Overrides pins settings to fixed values; user writes to an
	// overridden key are rejected.
	Overrides map[string]interface{} `yaml:"overrides,omitempty"`
}

func (c *UISettingsConfig) ApplyDefaults() {}

func (c *UISettingsConfig) Validate() ValidationErrors { return nil }
