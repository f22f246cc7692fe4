// Package config provides configuration management for the lookgen CLI.
//
// Configuration is layered: built-in defaults, then lookgen.yaml, then
// LOOKGEN_ environment variables, then command-line flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	TargetDir string `koanf:"target_dir"`
	OutputDir string `koanf:"output_dir"`

	Tag           string   `koanf:"tag"`
	Select        []string `koanf:"select"`
	IncludeModels []string `koanf:"include_models"`
	ExcludeModels []string `koanf:"exclude_models"`
	ExposuresOnly bool     `koanf:"exposures_only"`
	ExposuresTag  string   `koanf:"exposures_tag"`

	UseTableName       bool   `koanf:"use_table_name"`
	SkipExploreJoins   bool   `koanf:"skip_explore_joins"`
	GenerateLocale     bool   `koanf:"generate_locale"`
	ISOFields          bool   `koanf:"iso_fields"`
	RemoveSchemaString string `koanf:"remove_schema_string"`

	// DateTimeframes / TimeTimeframes override the built-in timeframe
	// lists applied to dimension groups.
	DateTimeframes []string `koanf:"date_timeframes"`
	TimeTimeframes []string `koanf:"time_timeframes"`

	Strict  bool `koanf:"strict"`
	Jobs    int  `koanf:"jobs"`
	Verbose bool `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultTargetDir = "target"
	DefaultOutputDir = "lookml"
)
