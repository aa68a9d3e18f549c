// Package api exposes the knowledge base over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hongsenwang01/knowledge-base/internal/kb"
	"github.com/hongsenwang01/knowledge-base/internal/metrics"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter creates the chi router with all middleware and routes.
//
// The middleware stack is: request id, real IP, request logging with metrics,
// panic recovery, request timeout and CORS. A nil m disables /metrics.
func NewRouter(h *Handler, opts RouterOptions, logger kb.Logger, m *metrics.Metrics) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger, m))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", h.Liveness)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/directories", func(r chi.Router) {
			r.Get("/", h.ListDirectories)
			r.Post("/", h.CreateDirectory)
			r.Get("/page", h.PageDirectories)
			r.Get("/tree", h.DirectoryTree)
			r.Get("/parent/{id}", h.ListChildren)
			r.Get("/{id}", h.GetDirectory)
			r.Put("/{id}", h.UpdateDirectory)
			r.Delete("/{id}", h.DeleteDirectory)
			r.Patch("/{id}/move", h.MoveDirectory)
		})

		r.Route("/files", func(r chi.Router) {
			r.Post("/upload", h.UploadFile)
			r.Get("/page", h.PageFiles)
			r.Get("/directory/{id}", h.ListDirectoryFiles)
			r.Get("/download/{id}", h.DownloadFile)
			r.Get("/{id}", h.GetFile)
			r.Put("/{id}", h.UpdateFile)
			r.Delete("/{id}", h.DeleteFile)
			r.Put("/{id}/download", h.IncrementDownloadCount)
		})

		r.Get("/statistics", h.Statistics)
	})

	return r
}

// requestLogger logs each request and records it in m under its route
// pattern.
func requestLogger(logger kb.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			// Wrap response writer to capture status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)

			m.ObserveRequest(r.Method, route, status, elapsed)
			logger.Info("request completed",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed.String(),
			)
		})
	}
}
