package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func request(method, target, remoteAddr string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	r.RemoteAddr = remoteAddr
	return r
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get(headerXContentTypeOptions))
	assert.Equal(t, "DENY", w.Header().Get(headerXFrameOptions))
	assert.NotEmpty(t, w.Header().Get(headerStrictTransportSecurity))
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("api.journal.example.com")(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{"api.journal.example.com", http.StatusOK},
		{"API.journal.example.com:443", http.StatusOK},
		{"evil.example.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Host = tt.host
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := httptest.NewRecorder()
	HostCheck("")(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIPRateLimiter_PerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Every(time.Hour), 2, `{"success":false}`, nil)
	h := l.Middleware(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, request(http.MethodGet, "/api/users", "10.0.0.1:1234"))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, request(http.MethodGet, "/api/users", "10.0.0.2:1234"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserCreateRateLimiter_OnlyLimitsUserCreation(t *testing.T) {
	h := NewUserCreateRateLimiter().Middleware(okHandler)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, request(http.MethodGet, "/api/users", "10.0.0.1:1"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	var last int
	for i := 0; i < writeRateLimitBurst+1; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, request(http.MethodPost, "/api/users", "10.0.0.1:1"))
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	l := NewGlobalRateLimiter()
	now := time.Now()
	l.get("10.0.0.1", now.Add(-2*limiterTTL))
	l.get("10.0.0.2", now)

	assert.Equal(t, 1, l.Sweep(now))
	assert.Len(t, l.entries, 1)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisRateLimiter_BlocksAfterLimit(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisRateLimiter(client)
	l.MaxRequests = 2
	h := l.Middleware(okHandler)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, request(http.MethodGet, "/api/users", "10.0.0.9:5555"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, request(http.MethodGet, "/api/users", "10.0.0.9:5555"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.True(t, mr.Exists(BlockedIPKeyPrefix+"10.0.0.9"))

	ttl := mr.TTL(RateLimitKeyPrefix + "10.0.0.9")
	assert.Equal(t, RateLimitWindow, ttl)

	// still blocked after the counting window expires
	mr.FastForward(RateLimitWindow + time.Second)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, request(http.MethodGet, "/api/users", "10.0.0.9:5555"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, request(http.MethodGet, "/api/users", "10.0.0.10:5555"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	mr, client := newTestRedis(t)
	h := NewRedisRateLimiter(client).Middleware(okHandler)
	mr.Close()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, request(http.MethodGet, "/", "10.0.0.1:1"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://journal.example.com"})(okHandler)

	r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	r.Header.Set("Origin", "https://journal.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "https://journal.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/api/users", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	r.Header.Set("Origin", "https://journal.example.com")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Less(t, w.Code, 300)
	assert.Equal(t, "https://journal.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
