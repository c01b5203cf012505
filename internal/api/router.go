package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	"github.com/NahomAnteneh/notion-gateway/internal/api/handlers"
	gwmiddleware "github.com/NahomAnteneh/notion-gateway/internal/api/middleware"
	"github.com/NahomAnteneh/notion-gateway/internal/config"
)

// SetupRouter configures the HTTP router for the gateway
func SetupRouter(cfg *config.Config, factory handlers.ClientFactory, logger hclog.Logger) http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(chimiddleware.RealIP)
	r.Use(gwmiddleware.RequestIDMiddleware())
	r.Use(gwmiddleware.Logging(logger.Named("http")))

	// CORS configuration
	cors := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", gwmiddleware.RequestIDHeader},
		ExposedHeaders: []string{gwmiddleware.RequestIDHeader},
		MaxAge:         300, // Maximum cache age for preflight options request
	})
	r.Use(cors.Handler)

	r.NotFound(handlers.NotFound())
	r.MethodNotAllowed(handlers.MethodNotAllowed())

	r.Get("/healthz", handlers.Health())

	notionHandler := handlers.NewNotionHandler(factory, logger.Named("notion"))

	r.Route("/notion", func(r chi.Router) {
		r.Use(gwmiddleware.RequireBearerToken(logger.Named("auth")))

		r.Get("/databases", notionHandler.ListDatabases())
		r.Get("/databases/{id}", notionHandler.GetDatabase())
		r.Get("/databases/{id}/query", notionHandler.QueryDatabase())
		r.Get("/pages/{id}", notionHandler.GetPage())
	})

	return r
}
