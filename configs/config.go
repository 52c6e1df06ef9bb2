package configs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/i2y/camelconv/internal/adapter/outbound/github"
	"github.com/i2y/camelconv/internal/domain"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "camelconv"

// FileConfig defines the structure loaded from the YAML configuration file.
// Empty fields leave the defaults in place.
type FileConfig struct {
	Namespace         string `yaml:"namespace"`
	OutputDir         string `yaml:"output_dir"`
	OnMissingSource   string `yaml:"on_missing_source"`
	OpenAPIFormat     string `yaml:"openapi_format"`
	OpenAPITitle      string `yaml:"openapi_title"`
	OpenAPIVersion    string `yaml:"openapi_version"`
	SkeletonPackage   string `yaml:"skeleton_package"`
	LogLevel          string `yaml:"log_level"`
	ListenAddr        string `yaml:"listen_addr"`
	HTTPClientTimeout string `yaml:"http_client_timeout"`
}

// Config holds the final application configuration, merged from file and environment variables.
// Fields are loaded from environment variables with the prefix "CAMELCONV_", overriding file settings.
type Config struct {
	// Config File Path (Loaded first from env). May be a github:// URL.
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	Namespace       string `envconfig:"NAMESPACE" default:"http://camel.apache.org/schema/spring"`
	OutputDir       string `envconfig:"OUTPUT_DIR" default:"."`
	OnMissingSource string `envconfig:"ON_MISSING_SOURCE" default:"skip"`
	OpenAPIFormat   string `envconfig:"OPENAPI_FORMAT" default:"yaml"`
	OpenAPITitle    string `envconfig:"OPENAPI_TITLE" default:"Camel Routes API"`
	OpenAPIVersion  string `envconfig:"OPENAPI_VERSION" default:"1.0.0"`
	SkeletonPackage string `envconfig:"SKELETON_PACKAGE" default:"com.example.demo"`

	ListenAddr               string        `envconfig:"LISTEN_ADDR" default:":8080"`
	HTTPAddr                 string        `envconfig:"HTTP_ADDR" default:":8081"`
	HTTPClientTimeout        time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`
	ShutdownTimeout          time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	StdioLogFile             string        `envconfig:"STDIO_LOG_FILE" default:"/tmp/camelconv.log"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// MissingSourcePolicy parses OnMissingSource.
func (c *Config) MissingSourcePolicy() (domain.MissingSourcePolicy, error) {
	return domain.ParseMissingSourcePolicy(c.OnMissingSource)
}

// Load resolves configuration in three layers: defaults, then the optional
// YAML file named by CAMELCONV_CONFIG_FILE, then environment variables, which
// win over the file.
func Load(ctx context.Context) (*Config, error) {
	// 1. Defaults and environment (also yields ConfigFilePath).
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	// 2. File values fill every field no environment variable set.
	if cfg.ConfigFilePath != "" {
		data, err := github.LoadConfig(ctx, cfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file '%s': %w", cfg.ConfigFilePath, err)
		}
		var fileCfg FileConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", cfg.ConfigFilePath, err)
		}
		if err := cfg.apply(fileCfg, envSet); err != nil {
			return nil, fmt.Errorf("invalid config file '%s': %w", cfg.ConfigFilePath, err)
		}
		slog.Info("Loaded configuration from file.", "path", cfg.ConfigFilePath)
	}

	if _, err := cfg.MissingSourcePolicy(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(strings.ToUpper(EnvPrefix) + "_" + key)
	return ok
}

// apply copies non-empty file values into c, skipping fields whose
// environment variable is set.
func (c *Config) apply(f FileConfig, fromEnv func(key string) bool) error {
	fields := []struct {
		key   string
		dst   *string
		value string
	}{
		{"NAMESPACE", &c.Namespace, f.Namespace},
		{"OUTPUT_DIR", &c.OutputDir, f.OutputDir},
		{"ON_MISSING_SOURCE", &c.OnMissingSource, f.OnMissingSource},
		{"OPENAPI_FORMAT", &c.OpenAPIFormat, f.OpenAPIFormat},
		{"OPENAPI_TITLE", &c.OpenAPITitle, f.OpenAPITitle},
		{"OPENAPI_VERSION", &c.OpenAPIVersion, f.OpenAPIVersion},
		{"SKELETON_PACKAGE", &c.SkeletonPackage, f.SkeletonPackage},
		{"LOG_LEVEL", &c.LogLevel, f.LogLevel},
		{"LISTEN_ADDR", &c.ListenAddr, f.ListenAddr},
	}
	for _, fld := range fields {
		if fld.value != "" && !fromEnv(fld.key) {
			*fld.dst = fld.value
		}
	}
	if f.HTTPClientTimeout != "" && !fromEnv("HTTP_CLIENT_TIMEOUT") {
		d, err := time.ParseDuration(f.HTTPClientTimeout)
		if err != nil {
			return fmt.Errorf("http_client_timeout: %w", err)
		}
		c.HTTPClientTimeout = d
	}
	return nil
}
