package configs_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/camelconv/configs"
	"github.com/i2y/camelconv/internal/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "NAMESPACE", "OUTPUT_DIR", "ON_MISSING_SOURCE", "OPENAPI_FORMAT", "OPENAPI_TITLE",
		"OPENAPI_VERSION", "SKELETON_PACKAGE", "LOG_LEVEL", "LISTEN_ADDR", "HTTP_CLIENT_TIMEOUT",
	} {
		t.Setenv("CAMELCONV_"+key, "")
		require.NoError(t, os.Unsetenv("CAMELCONV_"+key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := configs.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultNamespace, cfg.Namespace)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "yaml", cfg.OpenAPIFormat)
	assert.Equal(t, "Camel Routes API", cfg.OpenAPITitle)
	assert.Equal(t, "com.example.demo", cfg.SkeletonPackage)
	assert.Equal(t, 30*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.ParsedLogLevel())

	policy, err := cfg.MissingSourcePolicy()
	require.NoError(t, err)
	assert.Equal(t, domain.SkipRoute, policy)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "camelconv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
namespace: urn:custom
output_dir: build/generated
on_missing_source: abort
openapi_format: json
log_level: debug
http_client_timeout: 5s
`), 0o644))

	t.Setenv("CAMELCONV_CONFIG_FILE", path)
	t.Setenv("CAMELCONV_OUTPUT_DIR", "from-env")

	cfg, err := configs.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "urn:custom", cfg.Namespace)
	assert.Equal(t, "from-env", cfg.OutputDir, "environment wins over the file")
	assert.Equal(t, "json", cfg.OpenAPIFormat)
	assert.Equal(t, "1.0.0", cfg.OpenAPIVersion, "unset file field keeps the default")
	assert.Equal(t, slog.LevelDebug, cfg.ParsedLogLevel())
	assert.Equal(t, 5*time.Second, cfg.HTTPClientTimeout)

	policy, err := cfg.MissingSourcePolicy()
	require.NoError(t, err)
	assert.Equal(t, domain.AbortAll, policy)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "missing file", env: map[string]string{"CAMELCONV_CONFIG_FILE": "/nonexistent/camelconv.yaml"}},
		{name: "bad yaml", file: "namespace: [unclosed"},
		{name: "bad duration", file: "http_client_timeout: soon"},
		{name: "bad policy in env", env: map[string]string{"CAMELCONV_ON_MISSING_SOURCE": "retry"}},
		{name: "bad timeout in env", env: map[string]string{"CAMELCONV_HTTP_CLIENT_TIMEOUT": "later"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "camelconv.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
				t.Setenv("CAMELCONV_CONFIG_FILE", path)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := configs.Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestParsedLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		cfg := configs.Config{LogLevel: in}
		assert.Equal(t, want, cfg.ParsedLogLevel(), in)
	}
}
