package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/hashicorp/go-hclog"

	"github.com/NahomAnteneh/notion-gateway/internal/api/middleware"
	"github.com/NahomAnteneh/notion-gateway/pkg/notion"
)

// NotionClient is the subset of the Notion API the gateway forwards to.
type NotionClient interface {
	SearchDatabases(ctx context.Context) (json.RawMessage, error)
	RetrieveDatabase(ctx context.Context, databaseID string) (json.RawMessage, error)
	QueryDatabase(ctx context.Context, databaseID string) (json.RawMessage, error)
	RetrievePage(ctx context.Context, pageID string) (json.RawMessage, error)
}

// ClientFactory builds a client bound to one caller's token. It is invoked
// once per request and the result is never reused.
type ClientFactory func(token string) NotionClient

// ErrorResponse is the failure envelope. Details and Code are only filled on
// routes that expose upstream diagnostics.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// operation performs the single upstream call for a route.
type operation func(ctx context.Context, c NotionClient, r *http.Request) (json.RawMessage, error)

// route describes one proxied endpoint.
type route struct {
	failure       string
	exposeDetails bool
	call          operation
}

// NotionHandler serves the /notion endpoints.
type NotionHandler struct {
	newClient ClientFactory
	logger    hclog.Logger
}

// NewNotionHandler creates the handler set. A nil logger discards output.
func NewNotionHandler(factory ClientFactory, logger hclog.Logger) *NotionHandler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &NotionHandler{newClient: factory, logger: logger}
}

// ListDatabases handles GET /notion/databases
func (h *NotionHandler) ListDatabases() http.HandlerFunc {
	return h.dispatch(route{
		failure:       "Failed to fetch databases",
		exposeDetails: true,
		call: func(ctx context.Context, c NotionClient, _ *http.Request) (json.RawMessage, error) {
			return c.SearchDatabases(ctx)
		},
	})
}

// GetDatabase handles GET /notion/databases/{id}
func (h *NotionHandler) GetDatabase() http.HandlerFunc {
	return h.dispatch(route{
		failure: "Failed to fetch database",
		call: func(ctx context.Context, c NotionClient, r *http.Request) (json.RawMessage, error) {
			return c.RetrieveDatabase(ctx, idParam(r))
		},
	})
}

// QueryDatabase handles GET /notion/databases/{id}/query
func (h *NotionHandler) QueryDatabase() http.HandlerFunc {
	return h.dispatch(route{
		failure: "Failed to query database",
		call: func(ctx context.Context, c NotionClient, r *http.Request) (json.RawMessage, error) {
			return c.QueryDatabase(ctx, idParam(r))
		},
	})
}

// GetPage handles GET /notion/pages/{id}
func (h *NotionHandler) GetPage() http.HandlerFunc {
	return h.dispatch(route{
		failure: "Failed to fetch page",
		call: func(ctx context.Context, c NotionClient, r *http.Request) (json.RawMessage, error) {
			return c.RetrievePage(ctx, idParam(r))
		},
	})
}

// dispatch is the contract shared by every route: take the caller's token,
// build a fresh client, make exactly one upstream call and publish the result.
func (h *NotionHandler) dispatch(rt route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := middleware.TokenFromContext(r.Context())
		if !ok {
			// Not mounted behind RequireBearerToken.
			var err error
			if token, err = middleware.BearerToken(r.Header); err != nil {
				middleware.RenderUnauthorized(w, r)
				return
			}
		}

		client := h.newClient(token)

		// A disconnecting caller does not cancel the upstream call; the
		// client timeout bounds it instead.
		payload, err := rt.call(context.WithoutCancel(r.Context()), client, r)
		if err != nil {
			message, code := notion.ErrorDetails(err)
			h.logger.Error("upstream call failed",
				"request_id", middleware.GetRequestID(r.Context()),
				"path", r.URL.Path,
				"code", code,
				"error", err,
			)

			resp := ErrorResponse{Error: rt.failure}
			if rt.exposeDetails {
				resp.Details = message
				resp.Code = code
			}
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp)
			return
		}

		writeRaw(w, http.StatusOK, payload)
	}
}

// idParam returns the decoded {id} path segment. chi matches on the raw path,
// so an escaped segment such as "a%2Fb" must be unescaped before the client
// escapes it again.
func idParam(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

// writeRaw sends upstream JSON byte for byte. render.JSON would re-encode it
// with HTML escaping.
func writeRaw(w http.ResponseWriter, status int, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}
