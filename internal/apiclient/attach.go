package apiclient

import (
	"net/http"

	"github.com/nexerp/ops-console/internal/credstore"
)

// Header names understood by the backend.
const (
	HeaderTenantID  = "X-Tenant-ID"
	HeaderRequestID = "X-Request-ID"
)

// attach decorates an outgoing request with the session's identity headers:
// the bearer credential when a token is present and the tenant routing header
// when tenant context is known. It is a pure transform - idempotent and free
// of side effects - and leaves the request untouched when no token exists, so
// unauthenticated endpoints work through the same path.
func attach(req *http.Request, creds credstore.Credentials) {
	if creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	if creds.TenantID != "" {
		req.Header.Set(HeaderTenantID, creds.TenantID)
	}
}
