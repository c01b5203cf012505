package handlers

import (
	"net/http"

	"github.com/go-chi/render"
)

// Health reports that the process is serving. It does not contact Notion.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}

// NotFound renders unknown routes as JSON.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: "Not found"})
	}
}

// MethodNotAllowed renders unsupported methods as JSON.
func MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, ErrorResponse{Error: "Method not allowed"})
	}
}
