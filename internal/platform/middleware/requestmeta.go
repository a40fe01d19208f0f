// Package middleware carries the cross-cutting HTTP middleware chain.
package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"fleetaudit/pkg/requestcontext"
)

const requestIDHeader = "X-Request-ID"

// RequestMetadata injects a request ID and client provenance into the request
// context so services and the audit write path can log and enrich without
// touching net/http.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithClientMetadata(ctx, clientIP(r), r.UserAgent())

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP prefers the leftmost X-Forwarded-For hop, falling back to the
// socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
