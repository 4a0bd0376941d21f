package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/journal-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'self'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. api.journal.example.com).
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	globalRateLimitRPS   = 1
	globalRateLimitBurst = 10

	writeRateLimitEvery = 5 * time.Second
	writeRateLimitBurst = 2

	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// IPRateLimiter keeps one token bucket per client IP in process memory.
type IPRateLimiter struct {
	limit   rate.Limit
	burst   int
	message string
	match   func(*http.Request) bool

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

// NewIPRateLimiter limits every request. match narrows it to a subset of requests when non-nil.
func NewIPRateLimiter(limit rate.Limit, burst int, message string, match func(*http.Request) bool) *IPRateLimiter {
	return &IPRateLimiter{
		limit:   limit,
		burst:   burst,
		message: message,
		match:   match,
		entries: make(map[string]*limiterEntry),
	}
}

// NewGlobalRateLimiter limits each IP to 1 req/s, burst 10.
func NewGlobalRateLimiter() *IPRateLimiter {
	return NewIPRateLimiter(rate.Limit(globalRateLimitRPS), globalRateLimitBurst,
		`{"success":false,"message":"Too many requests. Please slow down."}`, nil)
}

// NewUserCreateRateLimiter limits user registration (POST /api/users) to 1 req/5s, burst 2.
func NewUserCreateRateLimiter() *IPRateLimiter {
	return NewIPRateLimiter(rate.Every(writeRateLimitEvery), writeRateLimitBurst,
		`{"success":false,"message":"Too many accounts created. Please try again later."}`,
		func(r *http.Request) bool {
			return r.Method == http.MethodPost && strings.TrimSuffix(r.URL.Path, "/") == "/api/users"
		})
}

func (l *IPRateLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = now
	return e.limiter
}

// Sweep drops limiters unused for longer than the TTL.
func (l *IPRateLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for ip, e := range l.entries {
		if now.Sub(e.lastUse) > limiterTTL {
			delete(l.entries, ip)
			removed++
		}
	}
	return removed
}

// Run sweeps idle limiters until ctx is done.
func (l *IPRateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Sweep(now)
		}
	}
}

// Middleware returns 429 when the client IP has no tokens left.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.match != nil && !l.match(r) {
			next.ServeHTTP(w, r)
			return
		}
		if !l.get(clientip.RealClientIP(r), time.Now()).Allow() {
			writeTooManyRequests(w, l.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders, HostCheck, then the global
// and user-create limiters. The limiters are swept until ctx is done.
func ProductionSecurity(ctx context.Context, allowedHost string) []func(http.Handler) http.Handler {
	global := NewGlobalRateLimiter()
	userCreate := NewUserCreateRateLimiter()
	go global.Run(ctx)
	go userCreate.Run(ctx)

	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		global.Middleware,
		userCreate.Middleware,
	}
}
