package app

// Config holds the process-level settings that arrive from the command line
// rather than the configuration file.
type Config struct {
	// Debug forces debug-level logging regardless of the logging section.
	Debug bool

	// Silent suppresses all log output. Used by commands that render their
	// own output.
	Silent bool

	// ConfigPath is the configuration file location.
	ConfigPath string

	// Watch enables hot configuration reload.
	Watch bool
}

// NewConfig creates the application configuration.
func NewConfig(debug, silent bool, configPath string, watch bool) *Config {
	return &Config{
		Debug:      debug,
		Silent:     silent,
		ConfigPath: configPath,
		Watch:      watch,
	}
}
