package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Options holds the settings that shape one analysis run and its rendering.
type Options struct {
	Verbose                bool   `mapstructure:"verbose" json:"verbose"`
	DedupeUtilityLibraries bool   `mapstructure:"dedupe_utility_libraries" json:"dedupe_utility_libraries"`
	Concurrency            int    `mapstructure:"concurrency" json:"concurrency"`
	LogLevel               string `mapstructure:"log_level" json:"log_level"`
	Output                 string `mapstructure:"output" json:"output"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit config file. When set it must exist.
	ConfigFile string
	// ProjectDir is searched for compass.toml before the user config dir.
	ProjectDir string
	// EnvFiles are dotenv files loaded before env overrides are applied.
	// Missing files are ignored. Nil means ".env" in the working directory.
	EnvFiles []string
}

// DefaultOptions returns the built-in settings.
func DefaultOptions() Options {
	return Options{
		Concurrency: DefaultConcurrency,
		LogLevel:    DefaultLogLevel,
		Output:      DefaultOutput,
	}
}

// GetConfigDir returns the user-level config directory.
func GetConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", AppName)
	}
	return filepath.Join(homeDir, ".config", AppName)
}

// LoadConfig resolves Options from defaults, an optional config file and
// COMPASS_* environment variables, in increasing precedence. It returns the
// config file that was used, or "" when none was found.
func LoadConfig(opts LoadOptions) (*Options, string, error) {
	loadEnvFiles(opts.EnvFiles)

	v := viper.New()
	defaults := DefaultOptions()
	v.SetDefault(KeyVerbose, defaults.Verbose)
	v.SetDefault(KeyDedupeUtilityLibraries, defaults.DedupeUtilityLibraries)
	v.SetDefault(KeyConcurrency, defaults.Concurrency)
	v.SetDefault(KeyLogLevel, defaults.LogLevel)
	v.SetDefault(KeyOutput, defaults.Output)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, "", fmt.Errorf("config file not found: %w", err)
		}
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileType)
		if opts.ProjectDir != "" {
			v.AddConfigPath(opts.ProjectDir)
		}
		v.AddConfigPath(GetConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var out Options
	if err := v.Unmarshal(&out); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := out.normalize(); err != nil {
		return nil, "", err
	}
	return &out, v.ConfigFileUsed(), nil
}

func (o *Options) normalize() error {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.LogLevel == "" {
		o.LogLevel = DefaultLogLevel
	}
	switch o.Output {
	case "":
		o.Output = DefaultOutput
	case OutputPretty, OutputJSON:
	default:
		return fmt.Errorf("invalid output %q: expected %q or %q", o.Output, OutputPretty, OutputJSON)
	}
	return nil
}

func loadEnvFiles(files []string) {
	if files == nil {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// Existing environment variables win over dotenv values.
		_ = godotenv.Load(f)
	}
}
