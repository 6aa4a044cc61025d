package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	logx "filesched/pkg/logx"
)

const requestIDHeader = "X-Request-Id"

// withRequestID tags every request with an id for log correlation.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		s.log.Debug("request",
			logx.String("id", id),
			logx.String("method", r.Method),
			logx.String("path", r.URL.Path),
			logx.String("remote", r.RemoteAddr),
		)
		next.ServeHTTP(w, r)
	})
}

// withAuth enforces the configured bearer token. An empty token disables
// auth, which is only sensible on a loopback bind.
func (s *Server) withAuth(next http.Handler) http.Handler {
	token := strings.TrimSpace(s.cfg.Token)
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			s.writeJSON(w, http.StatusUnauthorized, messageResponse{Message: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a process-wide token bucket to the whole API.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	rps := s.cfg.RatePerSec
	if rps < 0 {
		return next
	}
	if rps == 0 {
		rps = 25
	}
	lim := rate.NewLimiter(rate.Limit(rps), rps)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !lim.Allow() {
			s.writeJSON(w, http.StatusTooManyRequests, messageResponse{Message: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
