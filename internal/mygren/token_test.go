package mygren

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signedToken returns an HS256 token with the given expiry.
// The client never verifies signatures, so the key is arbitrary.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestTokenExpiresWithin(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		leeway time.Duration
		want   bool
	}{
		{
			name:   "expired token",
			token:  "", // set below
			leeway: 30 * time.Second,
			want:   true,
		},
		{
			name:   "expiring inside leeway",
			token:  "",
			leeway: 30 * time.Second,
			want:   true,
		},
		{
			name:   "fresh token",
			token:  "",
			leeway: 30 * time.Second,
			want:   false,
		},
	}

	tests[0].token = signedToken(t, time.Now().Add(-time.Hour))
	tests[1].token = signedToken(t, time.Now().Add(10*time.Second))
	tests[2].token = signedToken(t, time.Now().Add(time.Hour))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenExpiresWithin(tt.token, tt.leeway); got != tt.want {
				t.Errorf("tokenExpiresWithin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenExpiresWithinOpaque(t *testing.T) {
	// The firmware could switch to opaque tokens; the client must fall back
	// to the reactive 401 retry rather than looping on re-login.
	if tokenExpiresWithin("not-a-jwt", 30*time.Second) {
		t.Error("tokenExpiresWithin() = true for unparseable token, want false")
	}
}

func TestTokenExpiresWithinNoExpClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
	})
	signed, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if tokenExpiresWithin(signed, 30*time.Second) {
		t.Error("tokenExpiresWithin() = true for token without exp, want false")
	}
}
