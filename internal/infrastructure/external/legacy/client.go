package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/internal/application/port"
)

// maxErrorBody caps how much of a failed response is kept on FetchError
const maxErrorBody = 512

// wrapperKeys are the object keys a legacy export may nest its row array under
var wrapperKeys = []string{"data", "items", "rows", "records"}

// FetchError is returned when the legacy system answers with a non-2xx status
type FetchError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("legacy fetch %s returned status %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client fetches material request rows from the legacy MRS HTTP API
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a legacy client. A nil httpClient uses a fresh http.Client.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchRows performs one GET and decodes the candidate rows. Numbers are kept
// as json.Number so identifiers and amounts survive without float rounding.
func (c *Client) FetchRows(ctx context.Context, req port.LegacyFetchRequest) ([]map[string]any, error) {
	endpoint, err := buildURL(req)
	if err != nil {
		return nil, err
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	}

	c.logger.Info("Fetching legacy rows",
		zap.String("url", endpoint),
		zap.Int64("company_id", req.CompanyID))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("legacy fetch cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", zap.Error(err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &FetchError{StatusCode: resp.StatusCode, URL: endpoint, Body: snippet}
	}

	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetched legacy rows", zap.Int("count", len(rows)))
	return rows, nil
}

func buildURL(req port.LegacyFetchRequest) (string, error) {
	base := strings.TrimRight(req.BaseURL, "/")
	path := req.EndpointPath
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("invalid legacy url: %w", err)
	}
	q := u.Query()
	q.Set("company_id", strconv.FormatInt(req.CompanyID, 10))
	if req.LegacyScopeID != "" {
		q.Set("scope_id", req.LegacyScopeID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// decodeRows accepts a bare array or an object wrapping it; any other shape yields no rows
func decodeRows(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode legacy response: %w", err)
	}

	switch v := payload.(type) {
	case []any:
		return objects(v), nil
	case map[string]any:
		for _, key := range wrapperKeys {
			if list, ok := v[key].([]any); ok {
				return objects(list), nil
			}
		}
	}
	return []map[string]any{}, nil
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Verify interface compliance
var _ port.LegacyFetcher = (*Client)(nil)
