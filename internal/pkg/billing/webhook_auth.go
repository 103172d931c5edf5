package billing

import (
	"crypto/subtle"
	"strings"
)

// VerifyBearerToken checks an Authorization header against the configured
// webhook access token. An empty configured token never verifies.
func VerifyBearerToken(authorizationHeader, accessToken string) bool {
	expected := strings.TrimSpace(accessToken)
	if expected == "" {
		return false
	}

	auth := strings.TrimSpace(authorizationHeader)
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return false
	}
	got := strings.TrimSpace(auth[7:])
	if got == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
