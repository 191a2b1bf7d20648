package container

import (
	"database/sql"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/internal/application/port"
	"github.com/garyjia/workflow-reconciler/internal/application/reconcile"
	"github.com/garyjia/workflow-reconciler/internal/application/service"
	"github.com/garyjia/workflow-reconciler/internal/infrastructure/external/legacy"
	"github.com/garyjia/workflow-reconciler/internal/infrastructure/persistence/repository"
	"github.com/garyjia/workflow-reconciler/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/workflow-reconciler/internal/infrastructure/report"
	"github.com/garyjia/workflow-reconciler/migrations"
	"github.com/garyjia/workflow-reconciler/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and runs the embedded migrations.
// Returns DatabaseBundle containing sql.DB and TransactionManager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
// Returns RepositoryBundle containing all repository implementations.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Request:   repository.NewRequestRepository(sqlDB, logger),
		Directory: repository.NewDirectoryRepository(sqlDB, logger),
	}, nil
}

// ProvideLegacyClient creates the legacy MRS HTTP client.
// Per-fetch timeouts come from the run input, so the http.Client has none.
func ProvideLegacyClient(logger *zap.Logger) (*legacy.Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return legacy.NewClient(&http.Client{}, logger), nil
}

// EngineDeps holds dependencies required for creating the reconciliation engine.
type EngineDeps struct {
	Fetcher   port.LegacyFetcher
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Legacy    *LegacyConfig
	Sync      *SyncConfig
	Logger    *zap.Logger
}

// ProvideEngine creates the reconciliation engine.
func ProvideEngine(deps *EngineDeps) (*reconcile.Engine, error) {
	if deps == nil {
		return nil, fmt.Errorf("engine dependencies are required")
	}
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("legacy fetcher is required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Legacy == nil || deps.Sync == nil {
		return nil, fmt.Errorf("legacy and sync config are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return reconcile.NewEngine(
		deps.Fetcher,
		deps.Repos.Directory,
		deps.Repos.Request,
		deps.TxManager,
		reconcile.Config{
			SourceSystem:    deps.Legacy.SourceSystem,
			StageDropPolicy: deps.Sync.StageDropPolicy,
			CommitAttempts:  deps.Sync.CommitAttempts,
			IsTransient:     sqlite.IsTransientError,
		},
		deps.Logger.Named("reconcile"),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos   *RepositoryBundle
	Runner  service.SyncRunner
	Reports service.ReportWriter
	Legacy  *LegacyConfig
	Sync    *SyncConfig
	Logger  *zap.Logger
}

// ProvideServices creates all application services.
// Returns ServiceBundle containing all service implementations.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Runner == nil {
		return nil, fmt.Errorf("sync runner is required")
	}
	if deps.Legacy == nil || deps.Sync == nil {
		return nil, fmt.Errorf("legacy and sync config are required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	return &ServiceBundle{
		Sync: service.NewSyncService(
			deps.Runner,
			deps.Reports,
			service.SyncDefaults{
				BaseURL:       deps.Legacy.BaseURL,
				EndpointPath:  deps.Legacy.EndpointPath,
				LegacyScopeID: deps.Legacy.ScopeID,
				BearerToken:   deps.Legacy.BearerToken,
				Timeout:       deps.Legacy.Timeout,
				ReportDir:     deps.Sync.ReportDir,
			},
			serviceLogger,
		),
		Request: service.NewRequestService(deps.Repos.Request, serviceLogger),
	}, nil
}

// ProvideReportWriter creates the run report writer.
func ProvideReportWriter(logger *zap.Logger) *report.Writer {
	return report.NewWriter(logger.Named("report"))
}
