package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opdsapi/internal/auth"
	"opdsapi/internal/book"
	"opdsapi/internal/catalog"
	"opdsapi/internal/config"
	"opdsapi/internal/httpx"
)

type handlers struct {
	catalog *catalog.HTTPHandler
	book    *book.HTTPHandler
	auth    *auth.HTTPHandler
	// ready reports whether the service can answer catalog requests.
	ready func(ctx context.Context) error
}

func newRouter(ctx context.Context, cfg *config.Config, h handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.AccessLogMiddleware)
	r.Use(httpx.RecoveryMiddleware)
	r.Use(httpx.SecurityHeadersMiddleware(cfg.Server.EnableHSTS))
	r.Use(httpx.CORSMiddleware(cfg.Server.CORSOrigins))

	// Probes and metrics stay outside the rate limit and the request timeout.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, "application/json", map[string]string{
			"status":  "healthy",
			"message": "Service is running",
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			r.Use(httpx.NewRateLimitMiddleware(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware)
		}
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		r.Use(middleware.Compress(5, "application/json", "application/opds+json",
			"application/audiobook+json", "application/opds-authentication+json"))

		r.Get("/", h.catalog.Root)
		r.Get("/catalog", h.catalog.Catalog)
		r.Get("/book/{identifier}", h.book.Download)
		r.Get("/audiobooks/{identifier}", h.book.Audiobook)
		r.Get("/authentication_document", h.auth.AuthenticationDocument)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	return r
}
