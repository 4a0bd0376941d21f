// Package clientip resolves the address used to key per-client rate limits.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the host part of r.RemoteAddr. Forwarding headers are ignored.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
