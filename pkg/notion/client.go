package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Common constants
const (
	// Default timeout for HTTP requests
	DefaultTimeout = 60 * time.Second

	// DefaultBaseURL is the public Notion API host
	DefaultBaseURL = "https://api.notion.com"

	// DefaultVersion is the Notion-Version header sent with every request
	DefaultVersion = "2022-06-28"

	ContentTypeJSON = "application/json"

	headerNotionVersion = "Notion-Version"
)

// Auth handles authentication for HTTP requests
type Auth interface {
	ApplyAuth(req *http.Request) error
}

// TokenAuth implements bearer token authentication. The token is sent as-is,
// an empty token included.
type TokenAuth struct {
	Token string
}

// ApplyAuth applies token authentication to the request
func (a *TokenAuth) ApplyAuth(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+a.Token)
	return nil
}

// Client talks to the Notion REST API on behalf of a single caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
	auth       Auth
	verbose    bool
	logger     hclog.Logger
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithTimeout sets the timeout for HTTP requests
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTokenAuth sets bearer token authentication
func WithTokenAuth(token string) ClientOption {
	return func(c *Client) {
		c.auth = &TokenAuth{Token: token}
	}
}

// WithNotionVersion overrides the Notion-Version header
func WithNotionVersion(version string) ClientOption {
	return func(c *Client) {
		c.version = version
	}
}

// WithHTTPClient replaces the underlying HTTP client. The timeout of the
// supplied client is kept.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithVerbose enables or disables request logging
func WithVerbose(verbose bool) ClientOption {
	return func(c *Client) {
		c.verbose = verbose
	}
}

// WithLogger sets the logger used in verbose mode
func WithLogger(logger hclog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new Notion client rooted at baseURL.
func NewClient(baseURL string, options ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	client := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL: baseURL,
		version: DefaultVersion,
		logger:  hclog.NewNullLogger(),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// buildURL builds a full URL from the path
func (c *Client) buildURL(urlPath string) string {
	return c.baseURL + strings.TrimPrefix(urlPath, "/")
}

// Do performs an HTTP request. Responses with a status of 400 or above are
// turned into an *Error and the body is closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.auth != nil {
		if err := c.auth.ApplyAuth(req); err != nil {
			return nil, fmt.Errorf("authentication error: %w", err)
		}
	}

	req.Header.Set("User-Agent", "notion-gateway/1.0")
	req.Header.Set(headerNotionVersion, c.version)

	if c.verbose {
		c.logger.Debug("upstream request", "method", req.Method, "url", req.URL.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, newError(resp.StatusCode, body)
	}

	return resp, nil
}

// Get performs a GET request and returns the response body
func (c *Client) Get(ctx context.Context, urlPath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(urlPath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", ContentTypeJSON)

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// Post performs a POST request with JSON data and returns the response body
func (c *Client) Post(ctx context.Context, urlPath string, data interface{}) ([]byte, error) {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(urlPath), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", ContentTypeJSON)
	req.Header.Set("Accept", ContentTypeJSON)

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query  string        `json:"query,omitempty"`
	Filter *SearchFilter `json:"filter,omitempty"`
	Sort   *SearchSort   `json:"sort,omitempty"`
}

// SearchFilter restricts search results to one object type.
type SearchFilter struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// SearchSort orders search results by a timestamp.
type SearchSort struct {
	Direction string `json:"direction"`
	Timestamp string `json:"timestamp"`
}

// listEnvelope is the paginated list shape shared by search and query.
// Only the first page is ever read.
type listEnvelope struct {
	Results json.RawMessage `json:"results"`
}

// SearchDatabases returns the databases shared with the integration, most
// recently edited first.
func (c *Client) SearchDatabases(ctx context.Context) (json.RawMessage, error) {
	body, err := c.Post(ctx, "v1/search", &SearchRequest{
		Filter: &SearchFilter{Property: "object", Value: "database"},
		Sort:   &SearchSort{Direction: "descending", Timestamp: "last_edited_time"},
	})
	if err != nil {
		return nil, err
	}
	return decodeResults(body)
}

// RetrieveDatabase fetches a single database object.
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (json.RawMessage, error) {
	body, err := c.Get(ctx, "v1/databases/"+url.PathEscape(databaseID))
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

// QueryDatabase runs an unfiltered, unsorted query and returns the first page
// of results.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) (json.RawMessage, error) {
	body, err := c.Post(ctx, "v1/databases/"+url.PathEscape(databaseID)+"/query", struct{}{})
	if err != nil {
		return nil, err
	}
	return decodeResults(body)
}

// RetrievePage fetches a single page object.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (json.RawMessage, error) {
	body, err := c.Get(ctx, "v1/pages/"+url.PathEscape(pageID))
	if err != nil {
		return nil, err
	}
	return decodeObject(body)
}

func decodeResults(body []byte) (json.RawMessage, error) {
	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(env.Results) == 0 || bytes.Equal(env.Results, []byte("null")) {
		return json.RawMessage("[]"), nil
	}
	return env.Results, nil
}

func decodeObject(body []byte) (json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrInvalidResponse)
	}
	return json.RawMessage(body), nil
}
