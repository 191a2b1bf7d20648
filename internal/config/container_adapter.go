package config

import (
	"github.com/garyjia/workflow-reconciler/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
		},
		Legacy: container.LegacyConfig{
			BaseURL:      c.Legacy.BaseURL,
			EndpointPath: c.Legacy.EndpointPath,
			ScopeID:      c.Legacy.ScopeID,
			BearerToken:  c.Legacy.BearerToken,
			Timeout:      c.Legacy.Timeout,
			SourceSystem: c.Legacy.SourceSystem,
		},
		Sync: container.SyncConfig{
			StageDropPolicy: c.StageDropPolicy(),
			CommitAttempts:  c.Sync.CommitRetries,
			ReportDir:       c.Sync.ReportDir,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
	}
}
