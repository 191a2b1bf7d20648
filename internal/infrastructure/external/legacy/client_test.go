package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/internal/application/port"
)

const testEndpoint = "https://legacy.example.com/api/mrs"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClient(httpClient, zap.NewNop())
}

func fetchRequest() port.LegacyFetchRequest {
	return port.LegacyFetchRequest{
		BaseURL:       "https://legacy.example.com/",
		EndpointPath:  "api/mrs",
		CompanyID:     7,
		LegacyScopeID: "north",
		BearerToken:   "secret",
	}
}

func TestClient_FetchRows_BareArray(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodGet, testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "7", req.URL.Query().Get("company_id"))
			assert.Equal(t, "north", req.URL.Query().Get("scope_id"))
			assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(200, `[{"id": 12345678901234567, "status": "POSTED"}, "junk"]`), nil
		})

	rows, err := client.FetchRows(context.Background(), fetchRequest())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("12345678901234567"), rows[0]["id"])
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestClient_FetchRows_WrappedShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "data", body: `{"data": [{"id": 1}, {"id": 2}]}`, want: 2},
		{name: "items", body: `{"items": [{"id": 1}]}`, want: 1},
		{name: "rows", body: `{"rows": [{"id": 1}]}`, want: 1},
		{name: "records", body: `{"records": [{"id": 1}]}`, want: 1},
		{name: "unknown object", body: `{"result": [{"id": 1}]}`, want: 0},
		{name: "scalar", body: `42`, want: 0},
		{name: "empty body", body: ``, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t)
			httpmock.RegisterResponder(http.MethodGet, testEndpoint,
				httpmock.NewStringResponder(200, tt.body))

			rows, err := client.FetchRows(context.Background(), fetchRequest())
			require.NoError(t, err)
			assert.Len(t, rows, tt.want)
		})
	}
}

func TestClient_FetchRows_NonSuccess(t *testing.T) {
	client := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(503, `maintenance`))

	_, err := client.FetchRows(context.Background(), fetchRequest())
	require.Error(t, err)

	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 503, fetchErr.StatusCode)
	assert.Equal(t, "maintenance", fetchErr.Body)
}

func TestClient_FetchRows_InvalidJSON(t *testing.T) {
	client := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewStringResponder(200, `[{"id": `))

	_, err := client.FetchRows(context.Background(), fetchRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}

func TestClient_FetchRows_TransportError(t *testing.T) {
	client := newTestClient(t)
	httpmock.RegisterResponder(http.MethodGet, testEndpoint,
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := client.FetchRows(context.Background(), fetchRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
