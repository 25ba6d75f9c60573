package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwise/buildwise_api/internal/clock"
)

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*TokenService, *clock.Manual) {
	clk := clock.NewManual(start)
	return NewTokenService("test-signing-key", time.Hour, clk), clk
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	svc, _ := newTestService()

	token, err := svc.Issue(Identity{Email: "u@example.com", Name: "U"})
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), token.ExpiresAt)

	claims, err := svc.Verify(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, "u@example.com", claims.Subject)
	assert.Equal(t, "U", claims.Name)
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyUntilExpiry(t *testing.T) {
	svc, clk := newTestService()

	token, err := svc.Issue(Identity{Email: "u@example.com"})
	require.NoError(t, err)

	clk.Advance(59 * time.Minute)
	_, err = svc.Verify(token.Value)
	require.NoError(t, err)

	clk.Advance(time.Minute + time.Second)
	_, err = svc.Verify(token.Value)
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Contains(t, err.Error(), "expired")
}

func TestVerifyRejectsFlippedSignatureBits(t *testing.T) {
	svc, _ := newTestService()
	token, err := svc.Issue(Identity{Email: "u@example.com"})
	require.NoError(t, err)

	parts := strings.Split(token.Value, ".")
	require.Len(t, parts, 3)
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	for i := 0; i < len(sig)*8; i += 7 {
		tampered := append([]byte(nil), sig...)
		tampered[i/8] ^= 1 << (i % 8)
		forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(tampered)

		_, err := svc.Verify(forged)
		require.ErrorIs(t, err, ErrUnauthenticated, "bit %d", i)
	}
}

func TestVerifyRejectsMalformedAndMissing(t *testing.T) {
	svc, _ := newTestService()

	for _, tok := range []string{"", "   ", "not-a-token", "a.b.c", "a.b"} {
		_, err := svc.Verify(tok)
		require.ErrorIs(t, err, ErrUnauthenticated, "token %q", tok)
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	svc, _ := newTestService()
	other := NewTokenService("another-key", time.Hour, clock.NewManual(start))

	token, err := other.Issue(Identity{Email: "u@example.com"})
	require.NoError(t, err)

	_, err = svc.Verify(token.Value)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	svc, _ := newTestService()

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Email: "u@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u@example.com",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(start.Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(raw)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIssueRequiresEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Issue(Identity{Name: "nobody"})
	require.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestIssueNormalizesSubjectEmail(t *testing.T) {
	svc, _ := newTestService()
	token, err := svc.Issue(Identity{Email: "  Carol@Example.COM "})
	require.NoError(t, err)

	claims, err := svc.Verify(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", claims.Email)
	assert.Equal(t, "carol@example.com", claims.Subject)
}
