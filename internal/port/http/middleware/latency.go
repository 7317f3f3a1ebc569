package middleware

import (
	"net/http"
	"time"

	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
)

// RequestLatency records per-route request durations. The route pattern is
// resolved after the handler runs, so parameterized paths collapse into one
// label value.
func RequestLatency(m *metrics.MetricsManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			next.ServeHTTP(w, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.APILatency.WithLabelValues(r.Method + " " + pattern).Observe(time.Since(start).Seconds())
		})
	}
}
