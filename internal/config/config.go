// Package config provides configuration management for the batch generator.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go-batch-generator/internal/model"
	"go-batch-generator/internal/observability"
	"go-batch-generator/internal/pipeline"
	"go-batch-generator/pkg/utils"
)

// EnvPrefix prefixes every environment override, e.g. BATCHGEN_GENERATION_WORKERS.
const EnvPrefix = "BATCHGEN"

// Launch modes for workers.
const (
	ModeInProcess = "inprocess"
	ModeProcess   = "process"
)

// Config holds all configuration for the batch generator.
type Config struct {
	// Generation contains the run request defaults and engine tuning.
	Generation GenerationConfig `mapstructure:"generation"`
	// Pool sizes the shared reference pool.
	Pool pipeline.PoolSpec `mapstructure:"pool"`
	// State contains persistence settings.
	State StateConfig `mapstructure:"state"`
	// Logging contains structured logging settings.
	Logging observability.LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Server contains the HTTP API settings.
	Server ServerConfig `mapstructure:"server"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// GenerationConfig holds the settings of a generation run.
type GenerationConfig struct {
	Positive int `mapstructure:"positive" validate:"gte=0"`
	Negative int `mapstructure:"negative" validate:"gte=0"`
	Workers  int `mapstructure:"workers" validate:"gte=1"`
	// Seed is only set when configured; runs without one draw and record a seed.
	Seed    *int64   `mapstructure:"-"`
	Corpus  string   `mapstructure:"corpus" validate:"oneof=phi cui"`
	Formats []string `mapstructure:"formats" validate:"dive,oneof=pdf docx xlsx eml pptx txt csv json md html"`
	// OutputRoot is where documents and the state file are written.
	OutputRoot string `mapstructure:"output_root" validate:"required"`
	// RunFolder nests each run under production_run_YYYYMMDD_HHMMSS.
	RunFolder bool `mapstructure:"run_folder"`
	// Manifest writes metadata/manifest.json and manifest.csv after the run.
	Manifest bool `mapstructure:"manifest"`
	// Mode selects goroutine or subprocess workers.
	Mode              string            `mapstructure:"mode" validate:"oneof=inprocess process"`
	ChannelBuffer     int               `mapstructure:"channel_buffer" validate:"gte=0"`
	HeartbeatInterval time.Duration     `mapstructure:"heartbeat_interval" validate:"gt=0"`
	RateLimit         float64           `mapstructure:"rate_limit" validate:"gte=0"`
	Retry             model.RetryConfig `mapstructure:"retry"`
}

// StateConfig holds persistence settings.
type StateConfig struct {
	// FileName is the state document under the output root.
	FileName string `mapstructure:"file_name" validate:"required"`
	// HistoryDB is the SQLite run history path.
	HistoryDB      string `mapstructure:"history_db" validate:"required_if=HistoryEnabled true"`
	HistoryEnabled bool   `mapstructure:"history_enabled"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace" validate:"required_if=Enabled true"`
	Path      string `mapstructure:"path"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Address returns host:port for the HTTP listener.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"positive":       "generation.positive",
	"negative":       "generation.negative",
	"workers":        "generation.workers",
	"seed":           "generation.seed",
	"corpus":         "generation.corpus",
	"formats":        "generation.formats",
	"output":         "generation.output_root",
	"run-folder":     "generation.run_folder",
	"manifest":       "generation.manifest",
	"mode":           "generation.mode",
	"channel-buffer": "generation.channel_buffer",
	"heartbeat":      "generation.heartbeat_interval",
	"rate-limit":     "generation.rate_limit",
	"max-attempts":   "generation.retry.max_attempts",
	"seed-file":      "pool.seed_files",
	"history-db":     "state.history_db",
	"history":        "state.history_enabled",
	"log-level":      "logging.level",
	"log-format":     "logging.format",
	"port":           "server.port",
}

// Load reads defaults, an optional config file, BATCHGEN_* environment
// variables and the given flags, in increasing order of precedence.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/batchgen")
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if v.IsSet("generation.seed") {
		seed := v.GetInt64("generation.seed")
		cfg.Generation.Seed = &seed
	}
	cfg.Generation.Formats = utils.SplitList(cfg.Generation.Formats...)
	cfg.Generation.Corpus = strings.ToLower(cfg.Generation.Corpus)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Generation defaults
	v.SetDefault("generation.positive", 0)
	v.SetDefault("generation.negative", 0)
	v.SetDefault("generation.workers", 4)
	v.SetDefault("generation.corpus", model.CorpusPHI)
	v.SetDefault("generation.formats", []string{})
	v.SetDefault("generation.output_root", "output")
	v.SetDefault("generation.run_folder", false)
	v.SetDefault("generation.manifest", true)
	v.SetDefault("generation.mode", ModeInProcess)
	v.SetDefault("generation.channel_buffer", pipeline.DefaultChannelBuffer)
	v.SetDefault("generation.heartbeat_interval", pipeline.DefaultHeartbeat.String())
	v.SetDefault("generation.rate_limit", 0)
	v.SetDefault("generation.retry.max_attempts", model.NoRetry.MaxAttempts)
	v.SetDefault("generation.retry.initial_delay", "100ms")
	v.SetDefault("generation.retry.max_delay", "2s")
	v.SetDefault("generation.retry.backoff_multiplier", 2.0)

	// Pool defaults
	pool := pipeline.DefaultPoolSpec()
	v.SetDefault("pool.patients", pool.Patients)
	v.SetDefault("pool.providers", pool.Providers)
	v.SetDefault("pool.facilities", pool.Facilities)
	v.SetDefault("pool.seed_files", []string{})

	// State defaults
	v.SetDefault("state.file_name", ".generation_state.json")
	v.SetDefault("state.history_db", "batchgen.db")
	v.SetDefault("state.history_enabled", false)

	// Logging defaults
	logging := observability.DefaultLoggingConfig()
	v.SetDefault("logging.level", logging.Level)
	v.SetDefault("logging.format", logging.Format)
	v.SetDefault("logging.output", logging.Output)
	v.SetDefault("logging.add_source", logging.AddSource)
	v.SetDefault("logging.time_format", logging.TimeFormat)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "batchgen")
	v.SetDefault("metrics.path", "/metrics")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: %q fails %s", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return err
	}
	if c.Generation.Retry.MaxDelay > 0 && c.Generation.Retry.MaxDelay < c.Generation.Retry.InitialDelay {
		return fmt.Errorf("max_delay (%s) must be >= initial_delay (%s)", c.Generation.Retry.MaxDelay, c.Generation.Retry.InitialDelay)
	}
	return nil
}

// RunRequest builds the coordinator request from the generation settings.
func (c *Config) RunRequest() model.RunRequest {
	g := c.Generation
	return model.RunRequest{
		Positive:   g.Positive,
		Negative:   g.Negative,
		Workers:    g.Workers,
		Seed:       g.Seed,
		Corpus:     g.Corpus,
		Formats:    g.Formats,
		OutputRoot: g.OutputRoot,
	}
}
