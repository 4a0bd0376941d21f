package clientip

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"203.0.113.7:52100", "203.0.113.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{" 198.51.100.2 ", "198.51.100.2"},
	}
	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			r.Header.Set("X-Forwarded-For", "10.0.0.1")
			assert.Equal(t, tt.want, RealClientIP(r))
		})
	}
}
