package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/workflow-reconciler/internal/application/reconcile"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/reconciler.db", cfg.Database.Path)
	assert.Equal(t, "/api/mrs", cfg.Legacy.EndpointPath)
	assert.Equal(t, reconcile.DefaultFetchTimeout, cfg.Legacy.Timeout)
	assert.Equal(t, "LEGACY_MRS", cfg.Legacy.SourceSystem)
	assert.Equal(t, reconcile.StageDropPolicyDrop, cfg.StageDropPolicy())
	assert.Equal(t, 3, cfg.Sync.CommitRetries)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
legacy:
  base_url: http://file.example
  scope_id: scope-file
  timeout: 45s
sync:
  stage_drop_policy: unmatched
  commit_retries: 5
  report_dir: /tmp/reports
logger:
  format: console
`)
	t.Setenv("LEGACY_BASE_URL", "http://env.example")
	t.Setenv("LEGACY_BEARER_TOKEN", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://env.example", cfg.Legacy.BaseURL)
	assert.Equal(t, "scope-file", cfg.Legacy.ScopeID)
	assert.Equal(t, "secret", cfg.Legacy.BearerToken)
	assert.Equal(t, 45*time.Second, cfg.Legacy.Timeout)
	assert.Equal(t, reconcile.StageDropPolicyUnmatched, cfg.StageDropPolicy())
	assert.Equal(t, 5, cfg.Sync.CommitRetries)
	assert.Equal(t, "/tmp/reports", cfg.Sync.ReportDir)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero timeout", func(c *Config) { c.Legacy.Timeout = 0 }, "legacy.timeout"},
		{"unknown drop policy", func(c *Config) { c.Sync.StageDropPolicy = "keep" }, "stage_drop_policy"},
		{"no commit attempts", func(c *Config) { c.Sync.CommitRetries = 0 }, "commit_retries"},
		{"unknown log format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")), "missing file is ignored")

	const key = "RECONCILER_CONFIG_TEST_SCOPE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := writeFile(t, ".env", key+"=scope-from-file\n")
	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "scope-from-file", os.Getenv(key))
}

func TestToContainerConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Sync.StageDropPolicy = "unmatched"
	cfg.Sync.ReportDir = "reports"
	cfg.Legacy.ScopeID = "scope-1"

	cc := cfg.ToContainerConfig()
	require.NoError(t, cc.Validate())
	assert.Equal(t, cfg.Database.Path, cc.Database.Path)
	assert.Equal(t, cfg.Database.BusyTimeout, cc.Database.BusyTimeout)
	assert.Equal(t, "scope-1", cc.Legacy.ScopeID)
	assert.Equal(t, reconcile.StageDropPolicyUnmatched, cc.Sync.StageDropPolicy)
	assert.Equal(t, 3, cc.Sync.CommitAttempts)
	assert.Equal(t, "reports", cc.Sync.ReportDir)
	assert.Equal(t, cfg.Server.Port, cc.Server.Port)
}
