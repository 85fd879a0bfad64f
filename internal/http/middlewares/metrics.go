package middlewares

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/littlejohn/internal/observability/metrics"
)

// WithMetrics instrumenta requests con contadores/histogramas Prometheus.
// Usa el route pattern de chi (con placeholders) como label de path para
// mantener la cardinalidad acotada.
func WithMetrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics.InflightAdd(r.Method, r.URL.Path, 1)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			metrics.InflightAdd(r.Method, r.URL.Path, -1)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					path = p
				}
			}
			metrics.ObserveHTTP(r.Method, path, rec.status, time.Since(start))
		})
	}
}
