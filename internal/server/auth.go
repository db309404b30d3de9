package server

import (
	"crypto/subtle"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"
)

// authLimiter counts failed authentications per client IP in a sliding
// window.
type authLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	failures map[string][]time.Time
}

func newAuthLimiter(limit int, window time.Duration) *authLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &authLimiter{
		limit:    limit,
		window:   window,
		now:      time.Now,
		failures: make(map[string][]time.Time),
	}
}

// prune drops failures older than the window. Caller holds mu.
func (l *authLimiter) prune(ip string) []time.Time {
	cutoff := l.now().Add(-l.window)
	kept := l.failures[ip][:0]
	for _, t := range l.failures[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, ip)
		return nil
	}
	l.failures[ip] = kept
	return kept
}

func (l *authLimiter) blocked(ip string) bool {
	if l.limit <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(ip)) >= l.limit
}

func (l *authLimiter) fail(ip string) {
	if l.limit <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[ip] = append(l.prune(ip), l.now())
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestToken reads the bearer token, falling back to the token query
// parameter for clients that cannot set headers (browser WebSockets).
func requestToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (s *Server) checkAuth(r *http.Request) bool {
	if s.cfg.Token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(requestToken(r)), []byte(s.cfg.Token)) == 1
}

// authorize writes the error response and returns false when r may not
// proceed.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	ip := clientIP(r)
	if s.limiter.blocked(ip) {
		http.Error(w, "too many requests", 429)
		return false
	}
	if !s.checkAuth(r) {
		s.limiter.fail(ip)
		s.log.Warnf("unauthorized %s %s from %s", r.Method, r.URL.Path, ip)
		http.Error(w, "unauthorized", 401)
		return false
	}
	return true
}

// originAllowed accepts requests without an Origin, same-origin requests
// and origins on the allowlist.
func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

func (s *Server) setCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" || !s.originAllowed(r) {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Expose-Headers", "Location")
	w.Header().Add("Vary", "Origin")
}
