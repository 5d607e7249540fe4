package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJWTer() *JWTer {
	return &JWTer{Secret: []byte("test-secret"), Issuer: "library", TTL: time.Hour}
}

func TestJWTer_IssueAndParse(t *testing.T) {
	j := newJWTer()

	tok, err := j.Issue("u-1", "admin")
	require.NoError(t, err)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UID)
	assert.Equal(t, "admin", c.Role)
	assert.Equal(t, "library", c.Issuer)
}

func TestJWTer_RejectsWrongSecret(t *testing.T) {
	tok, err := newJWTer().Issue("u-1", "user")
	require.NoError(t, err)

	other := newJWTer()
	other.Secret = []byte("another")
	_, err = other.Parse(tok)
	assert.Error(t, err)
}

func TestJWTer_RejectsWrongIssuer(t *testing.T) {
	tok, err := newJWTer().Issue("u-1", "user")
	require.NoError(t, err)

	other := newJWTer()
	other.Issuer = "someone-else"
	_, err = other.Parse(tok)
	assert.Error(t, err)
}

func TestJWTer_RejectsExpired(t *testing.T) {
	j := newJWTer()
	j.TTL = -2 * time.Minute // beyond the 60s leeway

	tok, err := j.Issue("u-1", "user")
	require.NoError(t, err)

	_, err = j.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTer_RejectsOtherAlg(t *testing.T) {
	j := newJWTer()
	claims := Claims{UID: "u-1", Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Issuer: j.Issuer}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(j.Secret)
	require.NoError(t, err)

	_, err = j.Parse(tok)
	assert.Error(t, err)
}

func TestAllow(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		allowed []string
		want    bool
	}{
		{"user in member set", "user", AnyMember, true},
		{"admin in member set", "admin", AnyMember, true},
		{"user not admin", "user", AdminOnly, false},
		{"admin is admin", "admin", AdminOnly, true},
		{"empty set any role", "user", nil, true},
		{"empty set no role", "", nil, false},
		{"unknown role", "guest", AnyMember, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allow(tt.role, tt.allowed))
		})
	}
}
