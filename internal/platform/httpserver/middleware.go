package httpserver

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
)

// throttled applies the command rate limit keyed by caller identity, or by
// client address for anonymous callers.
func (s *Server) throttled(fn http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return fn
	}
	middleware := stdlib.NewMiddleware(s.limiter,
		stdlib.WithKeyGetter(rateLimitKey),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeProblem(w, r, http.StatusTooManyRequests, "rate_limited", "too many review commands, slow down")
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Warn("rate limiter unavailable",
				"event", "http_rate_limit_failed",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"error", err.Error(),
			)
			fn(w, r)
		}),
	)
	return middleware.Handler(fn).ServeHTTP
}

func rateLimitKey(r *http.Request) string {
	if userID := strings.TrimSpace(r.Header.Get("X-User-Id")); userID != "" {
		return "user:" + userID
	}
	return "ip:" + resolveClientIP(r)
}

func resolveClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(pattern string, next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.metrics.ObserveHTTP(pattern, strconv.Itoa(recorder.status))
	})
}
