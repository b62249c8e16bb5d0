// Package config defines process configuration and its loading chain.
package config

// Config contains process configuration for one laddergen run.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DBPath is the SQLite match database produced by the collaborators.
	DBPath string `koanf:"db_path"`

	// OutputDir receives the ladder and history artifacts.
	OutputDir string `koanf:"output_dir"`

	// Categories selects which ladders to generate.
	Categories []string `koanf:"categories"`

	// Roles selects role-filtered ladder views for pickup/ranked.
	Roles []string `koanf:"roles"`

	// KFactor is the Elo sensitivity constant.
	KFactor float64 `koanf:"k_factor"`

	// InitialRating is assigned to entities on first appearance.
	InitialRating float64 `koanf:"initial_rating"`

	// TopN bounds the console summary table.
	TopN int `koanf:"top_n"`

	// Parallel runs category replays concurrently.
	Parallel bool `koanf:"parallel"`

	// MetricsAddr, when set, serves Prometheus metrics during the run,
	// e.g. ":9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		DBPath:        "squadrons_stats.db",
		OutputDir:     "stats_reports",
		Categories:    []string{"team", "pickup", "ranked"},
		Roles:         nil,
		KFactor:       32,
		InitialRating: 1000,
		TopN:          10,
		Parallel:      true,
		MetricsAddr:   "",
	}
}
