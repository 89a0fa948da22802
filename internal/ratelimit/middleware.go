package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/utafrali/contactsbook/pkg/errors"
	"github.com/utafrali/contactsbook/pkg/httputil"
)

var decisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rate_limit_decisions_total",
		Help: "Rate limiter decisions by route and outcome",
	},
	[]string{"route", "outcome"},
)

// Middleware rejects requests over rule with 429 before they reach the
// handler. Requests are keyed by the address clientIP resolves and the
// matched route. Limiter errors let the request through.
func Middleware(l Limiter, rule Rule, clientIP func(*http.Request) string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			route := routeKey(r)

			d, err := l.Allow(r.Context(), ip+":"+r.Method+":"+route, rule.Limit, rule.Window)
			if err != nil {
				logger.WarnContext(r.Context(), "rate limiter unavailable, allowing request",
					slog.String("route", route),
					slog.String("error", err.Error()),
				)
				decisionsTotal.WithLabelValues(route, "error").Inc()
				next.ServeHTTP(w, r)
				return
			}

			reset := strconv.Itoa(int(math.Ceil(d.ResetAfter.Seconds())))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", reset)

			if !d.Allowed {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("ip", ip),
					slog.String("route", route),
				)
				decisionsTotal.WithLabelValues(route, "rejected").Inc()
				w.Header().Set("Retry-After", reset)
				httputil.WriteError(w, r, apperrors.TooManyRequests("Too many requests"), logger)
				return
			}

			decisionsTotal.WithLabelValues(route, "allowed").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

func routeKey(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
