package mygren

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenRefreshLeeway is how long before the token's exp claim the client
// re-authenticates proactively. Keeps steady-state polling off the 401
// retry path.
const tokenRefreshLeeway = 30 * time.Second

// tokenExpiresWithin reports whether the JWT's exp claim falls within the
// given leeway from now.
//
// The signature is NOT verified: the client has no access to the heat
// pump's signing key and only needs the expiry timestamp. Tokens that
// cannot be parsed, or that carry no exp claim, report false; the reactive
// 401 retry handles those.
func tokenExpiresWithin(token string, leeway time.Duration) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return time.Until(exp.Time) < leeway
}
