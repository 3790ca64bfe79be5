package testutil

import (
	"net/http"

	id "fundops/pkg/domain"
	"fundops/pkg/requestcontext"
)

// WithActor simulates what RequireAuth stores for an authenticated request.
func WithActor(req *http.Request, identityID id.IdentityID, role string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), identityID, role))
}

