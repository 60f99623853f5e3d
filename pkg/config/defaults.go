package config

// Application identity
const (
	// AppName names the config directory and env prefix.
	AppName = "compass"

	// EnvPrefix is prepended to every environment override (COMPASS_VERBOSE, ...).
	EnvPrefix = "COMPASS"

	// ConfigFileName is the config file base name, without extension.
	ConfigFileName = "compass"

	// ConfigFileType is the config file format understood by viper.
	ConfigFileType = "toml"
)

// Defaults
const (
	// DefaultConcurrency bounds simultaneous directory listings and extractions.
	DefaultConcurrency = 16

	// DefaultLogLevel keeps the CLI quiet unless something degrades.
	DefaultLogLevel = "warn"

	// DefaultOutput is the CLI rendering mode.
	DefaultOutput = OutputPretty
)

// Output modes
const (
	OutputPretty = "pretty"
	OutputJSON   = "json"
)

// Config keys
const (
	KeyVerbose                = "verbose"
	KeyDedupeUtilityLibraries = "dedupe_utility_libraries"
	KeyConcurrency            = "concurrency"
	KeyLogLevel               = "log_level"
	KeyOutput                 = "output"
)
