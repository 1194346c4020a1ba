package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ModeHTTP = "http"
	ModeMCP  = "mcp"

	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8090
	DefaultMaxRuns        = 64
	DefaultMaxUploadBytes = 10 << 20
	DefaultRunTimeout     = 60 * time.Second
	DefaultResultTTL      = time.Hour
	DefaultRateBurst      = 20
	DefaultMaxConnections = 256
	DefaultLogLevel       = "info"

	envPrefix = "DOCVERIFY"
)

// ErrHelp is returned by Load when usage was requested.
var ErrHelp = pflag.ErrHelp

type Config struct {
	Mode string
	Host string
	Port int

	// Optional bearer token; empty disables auth.
	APIKey string

	// Worker pool. Workers 0 selects the pool default.
	Workers int
	// Verifications in flight; further requests get 503.
	MaxRuns int

	MaxUploadBytes int64
	RunTimeout     time.Duration
	ResultTTL      time.Duration

	// Requests per second across the API, 0 disables limiting.
	RateLimit      float64
	RateBurst      int
	MaxConnections int

	LogLevel      string
	TemplatesFile string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Mode:           ModeHTTP,
		Host:           DefaultHost,
		Port:           DefaultPort,
		MaxRuns:        DefaultMaxRuns,
		MaxUploadBytes: DefaultMaxUploadBytes,
		RunTimeout:     DefaultRunTimeout,
		ResultTTL:      DefaultResultTTL,
		RateBurst:      DefaultRateBurst,
		MaxConnections: DefaultMaxConnections,
		LogLevel:       DefaultLogLevel,
	}
}

// Load resolves configuration from defaults, DOCVERIFY_* environment
// variables and command line flags, in increasing precedence.
func Load(args []string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("doc-verifier", pflag.ContinueOnError)
	defineFlags(fs, cfg)
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	populate(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("mode", cfg.Mode, "Run mode: 'http' for the REST API, 'mcp' for MCP over stdio")
	fs.String("host", cfg.Host, "HTTP listen host")
	fs.Int("port", cfg.Port, "HTTP listen port")
	fs.String("api-key", cfg.APIKey, "Bearer token required on /api routes (empty disables auth)")
	fs.Int("workers", cfg.Workers, "Worker pool size (0 = max(4, 2*CPU))")
	fs.Int("max-runs", cfg.MaxRuns, "Concurrent verifications before requests are refused")
	fs.Int64("max-upload-bytes", cfg.MaxUploadBytes, "Maximum upload size in bytes")
	fs.Duration("run-timeout", cfg.RunTimeout, "Deadline for one verification run")
	fs.Duration("result-ttl", cfg.ResultTTL, "How long verification results are retained")
	fs.Float64("rate-limit", cfg.RateLimit, "API requests per second (0 disables)")
	fs.Int("rate-burst", cfg.RateBurst, "API rate limiter burst")
	fs.Int("max-connections", cfg.MaxConnections, "Maximum concurrent HTTP connections")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("templates-file", cfg.TemplatesFile, "YAML file replacing the built-in templates")
}

func populate(v *viper.Viper, cfg *Config) {
	cfg.Mode = strings.ToLower(v.GetString("mode"))
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.APIKey = v.GetString("api-key")
	cfg.Workers = v.GetInt("workers")
	cfg.MaxRuns = v.GetInt("max-runs")
	cfg.MaxUploadBytes = v.GetInt64("max-upload-bytes")
	cfg.RunTimeout = v.GetDuration("run-timeout")
	cfg.ResultTTL = v.GetDuration("result-ttl")
	cfg.RateLimit = v.GetFloat64("rate-limit")
	cfg.RateBurst = v.GetInt("rate-burst")
	cfg.MaxConnections = v.GetInt("max-connections")
	cfg.LogLevel = strings.ToLower(v.GetString("log-level"))
	cfg.TemplatesFile = v.GetString("templates-file")
}

func usage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage of doc-verifier:\n\n")
	fmt.Fprintf(os.Stderr, "Validates BRD, UAT and PVT PDF documents against layout templates.\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nEvery option can also be set as %s_<NAME>, e.g. %s_RUN_TIMEOUT=90s\n", envPrefix, envPrefix)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Mode != ModeHTTP && c.Mode != ModeMCP {
		return errors.New("mode must be either 'http' or 'mcp'")
	}
	if c.Mode == ModeHTTP && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}
	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}
	if c.MaxRuns <= 0 {
		return errors.New("max runs must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("maximum upload size must be positive")
	}
	if c.RunTimeout <= 0 {
		return errors.New("run timeout must be positive")
	}
	if c.ResultTTL <= 0 {
		return errors.New("result ttl must be positive")
	}
	if c.RateLimit < 0 {
		return errors.New("rate limit cannot be negative")
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return errors.New("rate burst must be positive when rate limiting is enabled")
	}
	if c.MaxConnections < 0 {
		return errors.New("max connections cannot be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// Address returns host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) IsMCP() bool {
	return c.Mode == ModeMCP
}
