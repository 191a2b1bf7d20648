// Package container provides dependency injection and lifecycle management
// for the workflow reconciler following Clean Architecture principles.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/workflow-reconciler/internal/application/reconcile"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Legacy MRS connection configuration
	Legacy LegacyConfig

	// Reconciliation engine configuration
	Sync SyncConfig

	// Server configuration
	Server ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// BusyTimeout is how long SQLite waits on a locked database
	BusyTimeout time.Duration
}

// LegacyConfig holds default legacy connection settings.
type LegacyConfig struct {
	BaseURL      string
	EndpointPath string
	ScopeID      string
	BearerToken  string
	Timeout      time.Duration

	// SourceSystem tags imported requests
	SourceSystem string
}

// SyncConfig holds reconciliation engine settings.
type SyncConfig struct {
	StageDropPolicy reconcile.StageDropPolicy

	// CommitAttempts is the total number of tries per row transaction
	CommitAttempts int

	// ReportDir receives a workbook per committed run; empty disables reports
	ReportDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/reconciler.db",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
		},
		Legacy: LegacyConfig{
			EndpointPath: "/api/mrs",
			Timeout:      reconcile.DefaultFetchTimeout,
			SourceSystem: "LEGACY_MRS",
		},
		Sync: SyncConfig{
			StageDropPolicy: reconcile.StageDropPolicyDrop,
			CommitAttempts:  3,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := reconcile.ParseStageDropPolicy(string(c.Sync.StageDropPolicy)); err != nil {
		return fmt.Errorf("sync.stage_drop_policy: %w", err)
	}
	if c.Sync.CommitAttempts < 1 {
		return fmt.Errorf("sync.commit_attempts must be at least 1")
	}
	return nil
}
