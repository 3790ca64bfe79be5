package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "fundops/pkg/domain"
	request "fundops/pkg/platform/middleware/request"
	"fundops/pkg/requestcontext"
)

// TokenValidator validates bearer tokens minted at login.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims is the subset of token claims the middleware needs.
type Claims struct {
	IdentityID string
	Role       string
	APIVersion string
}

// PolicyChecker answers live policy questions for an identity. It reads from
// the identity store on every call.
type PolicyChecker interface {
	HasPolicy(ctx context.Context, role string, identityID id.IdentityID, policy string) (bool, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the bearer token and stores the actor in the context.
// Tokens minted for a newer API version than routeVersion are rejected.
func RequireAuth(validator TokenValidator, routeVersion id.APIVersion, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			identityID, err := id.ParseIdentityID(claims.IdentityID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed subject",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			tokenVersion := id.APIVersion(claims.APIVersion)
			if tokenVersion == "" {
				tokenVersion = id.DefaultVersion()
			}
			if !routeVersion.IsAtLeast(tokenVersion) {
				logger.WarnContext(ctx, "token minted for newer api version",
					"token_version", tokenVersion,
					"route_version", routeVersion,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token not valid for this API version")
				return
			}

			ctx = requestcontext.WithActor(ctx, identityID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects actors whose token role is not role. Use after RequireAuth.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != role {
				logger.WarnContext(ctx, "forbidden - role mismatch",
					"required_role", role,
					"actor_role", requestcontext.Role(ctx),
					"request_id", request.GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePolicy rejects actors that do not currently hold policy.
func RequirePolicy(checker PolicyChecker, policy string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			ok, err := checker.HasPolicy(ctx, requestcontext.Role(ctx), requestcontext.IdentityID(ctx), policy)
			if err != nil {
				logger.ErrorContext(ctx, "policy check failed",
					"policy", policy,
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusServiceUnavailable, "persistence_error", "policy check unavailable")
				return
			}
			if !ok {
				logger.WarnContext(ctx, "forbidden - missing policy",
					"policy", policy,
					"identity_id", requestcontext.IdentityID(ctx),
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "missing policy "+policy)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
