// Package httpadapt converts net/http requests into the normalized record
// the detection engine consumes. Other framework bindings (fasthttp, gRPC
// gateways) can produce engine.NormalizedRequest values the same way; the
// engine never depends on any framework type.
package httpadapt

import (
	"net"
	"net/http"
	"strings"

	"github.com/triage-ai/crawlgate/internal/engine"
)

// FromRequest normalizes an inbound net/http request. Multi-value headers
// are joined with ", "; query parameters keep their first value.
func FromRequest(r *http.Request) *engine.NormalizedRequest {
	headers := make(map[string]string, len(r.Header))
	for k, v := range r.Header {
		headers[k] = strings.Join(v, ", ")
	}

	query := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	return &engine.NormalizedRequest{
		UserAgent: r.Header.Get("User-Agent"),
		IPAddress: ClientIP(r),
		Headers:   headers,
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     query,
	}
}

// ClientIP extracts the originating client address: the first hop of
// X-Forwarded-For when present, then X-Real-IP, then the connection's
// remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
