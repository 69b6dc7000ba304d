package middleware

import (
	"net"
	"net/http"
)

// ClientIP returns the address the request came from. Behind a trusted proxy
// chi's RealIP middleware has already rewritten RemoteAddr from the
// forwarding headers; the headers are never consulted here.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
