package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const unknownRoute = "unknown"

// HTTPObs records request metrics labelled by route pattern.
type HTTPObs struct {
	Metrics *HTTPMetrics
}

// Middleware wraps next with the request collectors. A nil Metrics disables it.
func (o HTTPObs) Middleware(next http.Handler) http.Handler {
	m := o.Metrics
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		start := time.Now()
		next.ServeHTTP(ww, r)

		route := routeLabel(r)
		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(statusOf(ww))).Inc()
		m.Latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		m.ResponseBytes.WithLabelValues(route).Observe(float64(ww.BytesWritten()))
	})
}

// RoutePatternMiddleware stores the pattern chi has matched so far. Mounted
// inside a sub-router it sees the full pattern; at the top level routeLabel
// reads chi's route context after the handler returns instead.
func RoutePatternMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if pattern := rc.RoutePattern(); pattern != "" {
				r = r.WithContext(WithRoutePattern(r.Context(), pattern))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// routeLabel never returns the raw path, keeping label cardinality bounded.
func routeLabel(r *http.Request) string {
	if route := RoutePatternFromContext(r.Context()); route != "" {
		return route
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unknownRoute
}

// statusOf treats a handler that never wrote a header as 200.
func statusOf(ww middleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
