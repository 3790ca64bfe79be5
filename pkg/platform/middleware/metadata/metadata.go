package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"fundops/pkg/requestcontext"
)

// ClientMetadata extracts client IP, User-Agent and a parsed device summary
// and stores them in the request context. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua)
		ctx = requestcontext.WithDevice(ctx, ParseDevice(ua))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ParseDevice summarizes a User-Agent header. Empty input yields the zero Device.
func ParseDevice(userAgent string) requestcontext.Device {
	if strings.TrimSpace(userAgent) == "" {
		return requestcontext.Device{}
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	return requestcontext.Device{
		Browser: browser,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

// ClientIPFromRequest extracts the client IP, preferring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[::1]:port".
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}
