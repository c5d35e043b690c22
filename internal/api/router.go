package api

import (
	"net/http"

	"github.com/optionlab/pricer/internal/auth"
	"github.com/optionlab/pricer/internal/metrics"
)

// SetupRoutes configures all API routes. When jwtSecret is set every
// /api/v1 route requires a bearer token.
func SetupRoutes(mux *http.ServeMux, h *Handler, collector *metrics.Collector, jwtSecret string) {
	protect := func(next http.HandlerFunc) http.Handler {
		if jwtSecret == "" {
			return withCORS(next)
		}
		return auth.Middleware(jwtSecret)(next)
	}

	mux.Handle("POST /api/v1/price", protect(h.Price))
	mux.Handle("POST /api/v1/implied-volatility", protect(h.ImpliedVolatility))
	mux.Handle("GET /api/v1/quotes", protect(h.ListQuotes))
	mux.Handle("GET /api/v1/quotes/{id}", protect(h.GetQuote))
	mux.Handle("OPTIONS /api/v1/", protect(func(w http.ResponseWriter, r *http.Request) {}))

	mux.HandleFunc("GET /healthz", h.Health)
	if collector != nil {
		mux.Handle("GET /metrics", collector.Handler())
	}
}

// withCORS mirrors the headers auth.Middleware sets for open deployments.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
