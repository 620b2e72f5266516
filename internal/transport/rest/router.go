package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/trail-report/internal/compensation"
	"github.com/frahmantamala/trail-report/internal/session"
	"github.com/frahmantamala/trail-report/internal/transport/middleware"
	"github.com/frahmantamala/trail-report/internal/transport/swagger"
	"github.com/frahmantamala/trail-report/internal/validation"
)

// Handlers groups everything mounted on the router. Nil handlers are skipped.
type Handlers struct {
	Compensation *compensation.Handler
	Validation   *validation.Handler
	Session      *session.Handler
	Metrics      http.Handler
	MetricsPath  string
	OpenAPI      *swagger.Document
	Sessions     SessionLister
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, handlers.Sessions)

	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	if handlers.OpenAPI != nil {
		router.Get(swagger.DocumentPath, handlers.OpenAPI.ServeHTTP)
		router.Handle("/swagger/*", swagger.Handler())
	}
	if handlers.Metrics != nil {
		path := handlers.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, handlers.Metrics)
	}

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if handlers.Compensation != nil {
			r.Post("/compensation", handlers.Compensation.Calculate)
		}
		if handlers.Validation != nil {
			r.Post("/validation", handlers.Validation.Validate)
		}

		if handlers.Session != nil {
			r.Route("/reports/{id}", func(rr chi.Router) {
				rr.Get("/", handlers.Session.GetReport)                           // GET /reports/:id
				rr.Put("/", handlers.Session.UpdateReport)                        // PUT /reports/:id
				rr.Post("/session", handlers.Session.OpenSession)                 // POST /reports/:id/session
				rr.Delete("/session", handlers.Session.CloseSession)              // DELETE /reports/:id/session
				rr.Post("/save", handlers.Session.SaveReport)                     // POST /reports/:id/save
				rr.Post("/submit", handlers.Session.SubmitReport)                 // POST /reports/:id/submit
				rr.Post("/reopen", handlers.Session.ReopenReport)                 // POST /reports/:id/reopen
				rr.Get("/compensation.xlsx", handlers.Session.ExportCompensation) // GET /reports/:id/compensation.xlsx
			})
		}
	})
}
