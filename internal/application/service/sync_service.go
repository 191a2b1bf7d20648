package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/garyjia/workflow-reconciler/internal/application/reconcile"
)

// ErrRunInProgress is returned when the company already has a run in flight
var ErrRunInProgress = errors.New("a legacy sync run is already in progress for this company")

// SyncRunner executes one reconciliation run
type SyncRunner interface {
	Run(ctx context.Context, input reconcile.RunInput) (*reconcile.Result, error)
}

// ReportWriter persists a run report
type ReportWriter interface {
	WriteFile(result *reconcile.Result, path string) error
}

// SyncDefaults are the legacy connection settings applied when a request leaves them empty
type SyncDefaults struct {
	BaseURL       string
	EndpointPath  string
	LegacyScopeID string
	BearerToken   string
	Timeout       time.Duration
	// ReportDir enables a workbook per non-dry run when set
	ReportDir string
}

// SyncRequest is a caller-facing run request; connection settings are optional
type SyncRequest struct {
	CompanyID             int64                      `json:"company_id"`
	ActorUserID           int64                      `json:"actor_user_id"`
	DryRun                bool                       `json:"dry_run"`
	TargetLegacyRecordIDs []string                   `json:"target_legacy_record_ids,omitempty"`
	Overrides             []reconcile.ManualOverride `json:"overrides,omitempty"`
	BaseURL               string                     `json:"base_url,omitempty"`
	EndpointPath          string                     `json:"endpoint_path,omitempty"`
	LegacyScopeID         string                     `json:"legacy_scope_id,omitempty"`
}

// SyncResponse is the run result plus the report location, if one was written
type SyncResponse struct {
	*reconcile.Result
	ReportPath string `json:"report_path,omitempty"`
}

// SyncService triggers legacy reconciliation runs
type SyncService interface {
	RunSync(ctx context.Context, req SyncRequest) (*SyncResponse, error)
}

type syncServiceImpl struct {
	runner   SyncRunner
	reports  ReportWriter
	defaults SyncDefaults
	logger   Logger

	mu      sync.Mutex
	running map[int64]bool
}

// NewSyncService creates a new SyncService. reports may be nil.
func NewSyncService(runner SyncRunner, reports ReportWriter, defaults SyncDefaults, logger Logger) SyncService {
	return &syncServiceImpl{
		runner:   runner,
		reports:  reports,
		defaults: defaults,
		logger:   logger,
		running:  make(map[int64]bool),
	}
}

// RunSync fills connection defaults, runs the engine and writes the report
func (s *syncServiceImpl) RunSync(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	input := reconcile.RunInput{
		CompanyID:             req.CompanyID,
		ActorUserID:           req.ActorUserID,
		BaseURL:               firstNonEmpty(req.BaseURL, s.defaults.BaseURL),
		EndpointPath:          firstNonEmpty(req.EndpointPath, s.defaults.EndpointPath),
		LegacyScopeID:         firstNonEmpty(req.LegacyScopeID, s.defaults.LegacyScopeID),
		BearerToken:           s.defaults.BearerToken,
		Timeout:               s.defaults.Timeout,
		DryRun:                req.DryRun,
		TargetLegacyRecordIDs: req.TargetLegacyRecordIDs,
		Overrides:             req.Overrides,
	}

	if !s.acquire(req.CompanyID) {
		return nil, ErrRunInProgress
	}
	defer s.release(req.CompanyID)

	result, err := s.runner.Run(ctx, input)
	if err != nil {
		s.logger.Error("Legacy sync failed", "error", err, "company_id", req.CompanyID)
		return nil, err
	}

	resp := &SyncResponse{Result: result}
	if s.reports != nil && s.defaults.ReportDir != "" && !result.Summary.DryRun {
		path, err := s.writeReport(result)
		if err != nil {
			s.logger.Error("Failed to write sync report", "error", err, "run_id", result.RunID)
		} else {
			resp.ReportPath = path
		}
	}

	s.logger.Info("Legacy sync completed",
		"run_id", result.RunID,
		"company_id", req.CompanyID,
		"processed", result.Summary.Processed,
		"unmatched", result.Summary.Unmatched)
	return resp, nil
}

func (s *syncServiceImpl) writeReport(result *reconcile.Result) (string, error) {
	if err := os.MkdirAll(s.defaults.ReportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	path := filepath.Join(s.defaults.ReportDir, fmt.Sprintf("legacy-sync-%s.xlsx", result.RunID))
	if err := s.reports.WriteFile(result, path); err != nil {
		return "", err
	}
	return path, nil
}

// acquire claims the company for one run; runs of different companies proceed in parallel
func (s *syncServiceImpl) acquire(companyID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[companyID] {
		return false
	}
	s.running[companyID] = true
	return true
}

func (s *syncServiceImpl) release(companyID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, companyID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
