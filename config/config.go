package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

func (l LogLevel) ToSlog() slog.Level {
	switch LogLevel(strings.ToUpper(string(l))) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type LogFormat string

const (
	LogFormatPlaintext LogFormat = "plaintext"
	LogFormatJSON      LogFormat = "json"
)

type AppEnv string

const (
	AppEnvDev        AppEnv = "dev"
	AppEnvProduction AppEnv = "production"
)

type Config struct {
	App       AppConfig
	Sentry    SentryConfig
	Database  DatabaseConfig
	Log       LogConfig
	Reconcile ReconcileConfig
}

type AppConfig struct {
	Debug           bool
	Host            string
	Port            uint32
	Name            string
	ShutdownTimeout int32 // in seconds
	Env             AppEnv
	Version         string
	RequestTimeout  uint32 // in seconds
}

type SentryConfig struct {
	Enabled    bool
	DSN        string
	SampleRate float64
	TracesRate float64
}

type DatabaseConfig struct {
	URL    string
	Schema string
}

type LogConfig struct {
	Format  LogFormat
	Level   LogLevel
	Verbose bool
}

type ReconcileConfig struct {
	// Amount of customers that are processed concurrently
	Workers int
	// Amount of times saving a single decision is retried
	Retries uint64
	// Base delay of the exponential backoff between retries, in milliseconds
	RetryDelay int64
	// Compute decisions without persisting them
	DryRun bool
}

func (c ReconcileConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryDelay) * time.Millisecond
}

func (c Config) Address() string {
	return fmt.Sprintf("%v:%v", c.App.Host, c.App.Port)
}

func (c *Config) IsTest() bool {
	return flag.Lookup("test.v") != nil || strings.HasSuffix(os.Args[0], ".test") ||
		strings.Contains(os.Args[0], "/_test/")
}

// Every key needs a default, otherwise viper does not pick up its environment override.
func setDefaults(reader *viper.Viper) {
	reader.SetDefault("app_debug", false)
	reader.SetDefault("app_version", "")
	reader.SetDefault("app_name", "vatengine")
	reader.SetDefault("app_host", "localhost")
	reader.SetDefault("app_port", 3000)
	reader.SetDefault("app_env", AppEnvProduction)
	reader.SetDefault("app_shutdowntimeout", 2)
	reader.SetDefault("app_requesttimeout", 30)
	reader.SetDefault("sentry_enabled", false)
	reader.SetDefault("sentry_dsn", "")
	reader.SetDefault("sentry_samplerate", 1.0)
	reader.SetDefault("sentry_tracesrate", 0.0)
	reader.SetDefault("database_url", "")
	reader.SetDefault("database_schema", "public")
	reader.SetDefault("log_format", LogFormatJSON)
	reader.SetDefault("log_level", LogLevelInfo)
	reader.SetDefault("log_verbose", false)
	reader.SetDefault("reconcile_workers", 4)
	reader.SetDefault("reconcile_retries", 3)
	reader.SetDefault("reconcile_retrydelay", 100)
	reader.SetDefault("reconcile_dryrun", false)
}

// Load the configuration file from the specified filesystem.
// You can specify additional .env files to load, by default this only checks for ".env" in the
// current working directory.
func Load(configFS fs.FS, dotenvFiles ...string) (*Config, error) {
	file, err := configFS.Open("config.toml")
	if err != nil {
		return nil, fmt.Errorf("could not find config.toml in the configFS: %w", err)
	}
	defer file.Close()

	reader := viper.NewWithOptions(viper.KeyDelimiter("_"))
	reader.SetConfigType("toml")
	setDefaults(reader)

	if err = reader.ReadConfig(file); err != nil {
		return nil, fmt.Errorf("could not load the app configuration: %w", err)
	}

	// Environment override
	err = godotenv.Load(dotenvFiles...)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("No .env file found, continuing...")
	} else if err != nil {
		return nil, fmt.Errorf(".env file found, but could not load it: %w", err)
	}
	reader.AutomaticEnv()

	var config Config
	if err := reader.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("invalid config format: %w", err)
	}

	if config.Reconcile.Workers < 1 {
		return nil, fmt.Errorf("invalid config: RECONCILE_WORKERS should be at least 1, got %d", config.Reconcile.Workers)
	}

	if config.App.Debug && !config.IsTest() {
		slog.Warn("APP_DEBUG is turned on, do not run this mode in production!")
	}

	return &config, nil
}
