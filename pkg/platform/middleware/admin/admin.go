// Package admin guards back-office routes with deployment-level checks that
// run before token authentication: a shared service token and a CIDR allowlist.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/netip"

	"fundops/pkg/platform/middleware/metadata"
	request "fundops/pkg/platform/middleware/request"
)

const HeaderServiceToken = "X-Token"

// RequireServiceToken rejects requests whose X-Token header does not match.
// An empty expected token disables the check.
func RequireServiceToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if expectedToken == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderServiceToken)
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "service token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"service token required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AllowPrefixes rejects clients whose IP falls outside every prefix.
// An empty list disables the check.
func AllowPrefixes(prefixes []netip.Prefix, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(prefixes) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := metadata.ClientIPFromRequest(r)
			if !allowed(prefixes, ip) {
				ctx := r.Context()
				logger.WarnContext(ctx, "client ip not allowlisted",
					"client_ip", ip,
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"client address not allowed"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func allowed(prefixes []netip.Prefix, ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
