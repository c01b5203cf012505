package notion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedRequest captures what the fake Notion server received.
type recordedRequest struct {
	Method  string
	Path    string
	Auth    string
	Version string
	Body    string
}

func newFakeNotion(t *testing.T, status int, payload string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.Method = r.Method
		rec.Path = r.URL.Path
		rec.Auth = r.Header.Get("Authorization")
		rec.Version = r.Header.Get("Notion-Version")
		rec.Body = string(body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server, rec
}

func TestSearchDatabases(t *testing.T) {
	server, rec := newFakeNotion(t, http.StatusOK, `{
		"object": "list",
		"results": [{"object":"database","id":"db-1"},{"object":"database","id":"db-2"}],
		"has_more": true,
		"next_cursor": "abc"
	}`)

	client := NewClient(server.URL, WithTokenAuth("secret_123"))
	results, err := client.SearchDatabases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/v1/search", rec.Path)
	assert.Equal(t, "Bearer secret_123", rec.Auth)
	assert.Equal(t, DefaultVersion, rec.Version)
	assert.JSONEq(t, `{
		"filter": {"property":"object","value":"database"},
		"sort": {"direction":"descending","timestamp":"last_edited_time"}
	}`, rec.Body)
	assert.JSONEq(t, `[{"object":"database","id":"db-1"},{"object":"database","id":"db-2"}]`, string(results))
}

func TestRetrieveDatabase(t *testing.T) {
	payload := `{"object":"database","id":"db-1","properties":{"Name":{"id":"title","type":"title"}}}`
	server, rec := newFakeNotion(t, http.StatusOK, payload)

	client := NewClient(server.URL, WithTokenAuth("abc123"))
	obj, err := client.RetrieveDatabase(context.Background(), "db-1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.Method)
	assert.Equal(t, "/v1/databases/db-1", rec.Path)
	assert.JSONEq(t, payload, string(obj))
}

func TestQueryDatabase(t *testing.T) {
	server, rec := newFakeNotion(t, http.StatusOK, `{"object":"list","results":[{"object":"page","id":"p-1"}],"has_more":false}`)

	client := NewClient(server.URL, WithTokenAuth("abc123"))
	results, err := client.QueryDatabase(context.Background(), "db-1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/v1/databases/db-1/query", rec.Path)
	assert.JSONEq(t, `{}`, rec.Body)
	assert.JSONEq(t, `[{"object":"page","id":"p-1"}]`, string(results))
}

func TestQueryDatabaseEmptyResults(t *testing.T) {
	server, _ := newFakeNotion(t, http.StatusOK, `{"object":"list","has_more":false}`)

	results, err := NewClient(server.URL).QueryDatabase(context.Background(), "db-1")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(results))
}

func TestRetrievePage(t *testing.T) {
	payload := `{"object":"page","id":"p-1","archived":false}`
	server, rec := newFakeNotion(t, http.StatusOK, payload)

	obj, err := NewClient(server.URL, WithTokenAuth("abc123")).RetrievePage(context.Background(), "p-1")
	require.NoError(t, err)

	assert.Equal(t, "/v1/pages/p-1", rec.Path)
	assert.JSONEq(t, payload, string(obj))
}

func TestEmptyTokenIsForwarded(t *testing.T) {
	server, rec := newFakeNotion(t, http.StatusUnauthorized,
		`{"object":"error","status":401,"code":"unauthorized","message":"API token is invalid."}`)

	_, err := NewClient(server.URL, WithTokenAuth("")).RetrievePage(context.Background(), "p-1")
	require.Error(t, err)

	// net/http trims surrounding whitespace from header values on the wire.
	assert.Equal(t, "Bearer", rec.Auth)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUpstreamErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		code     string
		message  string
	}{
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"object":"error","status":404,"code":"object_not_found","message":"Could not find database."}`,
			sentinel: ErrNotFound,
			code:     "object_not_found",
			message:  "Could not find database.",
		},
		{
			name:     "validation",
			status:   http.StatusBadRequest,
			body:     `{"object":"error","status":400,"code":"validation_error","message":"path failed validation"}`,
			sentinel: ErrBadRequest,
			code:     "validation_error",
			message:  "path failed validation",
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"object":"error","status":429,"code":"rate_limited","message":"slow down"}`,
			sentinel: ErrRateLimited,
			code:     "rate_limited",
			message:  "slow down",
		},
		{
			name:     "plain text gateway error",
			status:   http.StatusBadGateway,
			body:     "bad gateway",
			sentinel: ErrServerError,
			message:  "bad gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newFakeNotion(t, tt.status, tt.body)

			_, err := NewClient(server.URL).RetrieveDatabase(context.Background(), "db-1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)

			message, code := ErrorDetails(err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestNetworkError(t *testing.T) {
	server, _ := newFakeNotion(t, http.StatusOK, `{}`)
	server.Close()

	_, err := NewClient(server.URL).SearchDatabases(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)

	message, code := ErrorDetails(err)
	assert.NotEmpty(t, message)
	assert.Empty(t, code)
}

func TestInvalidResponse(t *testing.T) {
	server, _ := newFakeNotion(t, http.StatusOK, `not json`)

	_, err := NewClient(server.URL).RetrievePage(context.Background(), "p-1")
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = NewClient(server.URL).QueryDatabase(context.Background(), "db-1")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClientOptions(t *testing.T) {
	server, rec := newFakeNotion(t, http.StatusOK, `{"object":"page","id":"p-1"}`)

	hc := &http.Client{Timeout: 5 * time.Second}
	client := NewClient(server.URL,
		WithHTTPClient(hc),
		WithTimeout(2*time.Second),
		WithNotionVersion("2025-09-03"),
		WithVerbose(true),
		WithLogger(nil))

	assert.Same(t, hc, client.httpClient)
	assert.Equal(t, 2*time.Second, hc.Timeout)
	assert.NotNil(t, client.logger)

	_, err := client.RetrievePage(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-03", rec.Version)
	assert.Empty(t, rec.Auth)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("")
	assert.Equal(t, DefaultBaseURL+"/", client.baseURL)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
	assert.Equal(t, "https://api.notion.com/v1/pages/x", client.buildURL("/v1/pages/x"))
}

func TestErrorDetailsNil(t *testing.T) {
	message, code := ErrorDetails(nil)
	assert.Empty(t, message)
	assert.Empty(t, code)
}

func TestErrorString(t *testing.T) {
	err := newError(http.StatusNotFound, []byte(`{"object":"error","status":404,"code":"object_not_found","message":"gone"}`))
	assert.Equal(t, "resource not found (object_not_found): gone (status code: 404)", err.Error())

	raw, _ := json.Marshal(map[string]string{"object": "list"})
	err = newError(http.StatusInternalServerError, raw)
	assert.Equal(t, ErrServerError, errors.Unwrap(err))
	assert.Equal(t, string(raw), err.Message)
}
