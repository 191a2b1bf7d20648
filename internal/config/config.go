package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/workflow-reconciler/internal/application/reconcile"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Legacy   LegacyConfig   `mapstructure:"legacy"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// LegacyConfig holds the legacy MRS connection settings
type LegacyConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	EndpointPath string        `mapstructure:"endpoint_path"`
	ScopeID      string        `mapstructure:"scope_id"`
	BearerToken  string        `mapstructure:"bearer_token"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SourceSystem string        `mapstructure:"source_system"`
}

// SyncConfig holds reconciliation engine settings
type SyncConfig struct {
	StageDropPolicy string `mapstructure:"stage_drop_policy"`
	CommitRetries   int    `mapstructure:"commit_retries"`
	ReportDir       string `mapstructure:"report_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadEnvFile(path string) error {
	if err := gotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load loads configuration from file and environment variables.
// An empty configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)

	// Database defaults
	v.SetDefault("database.path", "data/reconciler.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)

	// Legacy defaults
	v.SetDefault("legacy.endpoint_path", "/api/mrs")
	v.SetDefault("legacy.timeout", reconcile.DefaultFetchTimeout)
	v.SetDefault("legacy.source_system", "LEGACY_MRS")

	// Sync defaults
	v.SetDefault("sync.stage_drop_policy", string(reconcile.StageDropPolicyDrop))
	v.SetDefault("sync.commit_retries", 3)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	// Sensitive credentials from environment
	_ = v.BindEnv("legacy.base_url", "LEGACY_BASE_URL")
	_ = v.BindEnv("legacy.scope_id", "LEGACY_SCOPE_ID")
	_ = v.BindEnv("legacy.bearer_token", "LEGACY_BEARER_TOKEN")
	_ = v.BindEnv("database.path", "DATABASE_PATH")
	_ = v.BindEnv("sync.report_dir", "SYNC_REPORT_DIR")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Legacy.Timeout <= 0 {
		return fmt.Errorf("legacy.timeout must be positive")
	}
	if _, err := reconcile.ParseStageDropPolicy(c.Sync.StageDropPolicy); err != nil {
		return fmt.Errorf("sync.stage_drop_policy: %w", err)
	}
	if c.Sync.CommitRetries < 1 {
		return fmt.Errorf("sync.commit_retries must be at least 1")
	}
	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console")
	}
	return nil
}

// StageDropPolicy returns the parsed stage drop policy
func (c *Config) StageDropPolicy() reconcile.StageDropPolicy {
	p, _ := reconcile.ParseStageDropPolicy(c.Sync.StageDropPolicy)
	return p
}
