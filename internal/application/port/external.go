package port

import (
	"context"
	"time"
)

// LegacyFetchRequest describes one fetch of candidate rows from the legacy system
type LegacyFetchRequest struct {
	BaseURL       string
	EndpointPath  string
	CompanyID     int64
	LegacyScopeID string
	BearerToken   string
	Timeout       time.Duration
}

// LegacyFetcher retrieves the full candidate row set from the legacy system.
// Rows are loosely-typed decoded JSON objects.
type LegacyFetcher interface {
	FetchRows(ctx context.Context, req LegacyFetchRequest) ([]map[string]any, error)
}
