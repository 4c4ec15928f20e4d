// Package auth resolves the user identity attached to an inbound request.
//
// Token signature verification is delegated to the gateway in front of this
// service; the resolver only reads identity material already present on the
// request, in a fixed priority order.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// SubjectHeader carries the verified subject claim injected by the gateway.
const SubjectHeader = "X-Auth-Subject"

// FallbackUserID is the development placeholder identity used when anonymous
// access is enabled. It must never be reachable in production deployments.
const FallbackUserID = "test-user-123"

// ErrNoIdentity is returned when no identity can be resolved and anonymous
// access is disabled.
var ErrNoIdentity = errors.New("no user identity on request")

// Resolver extracts a user identifier from a request.
type Resolver struct {
	// AllowAnonymous substitutes FallbackUserID when resolution fails
	// instead of rejecting the request. Development scaffolding only.
	AllowAnonymous bool
}

// UserID resolves the caller's identity, in priority order: the gateway's
// verified subject header, then the bearer token's decoded (not verified)
// subject claim, then the anonymous fallback if enabled.
func (rs Resolver) UserID(r *http.Request) (string, error) {
	if sub := strings.TrimSpace(r.Header.Get(SubjectHeader)); sub != "" {
		return sub, nil
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		if sub, ok := decodeSubject(token); ok {
			return sub, nil
		}
		// Decode failures are swallowed and fall through, matching the
		// trust-the-transport contract.
		slog.DebugContext(r.Context(), "Bearer token present but subject not decodable")
	}

	if rs.AllowAnonymous {
		return FallbackUserID, nil
	}
	return "", ErrNoIdentity
}

// decodeSubject pulls the "sub" claim out of a JWT-shaped token without
// verifying anything about it.
func decodeSubject(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// Some issuers pad their segments.
		payload, err = base64.URLEncoding.DecodeString(parts[1])
		if err != nil {
			return "", false
		}
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Sub == "" {
		return "", false
	}
	return claims.Sub, true
}
