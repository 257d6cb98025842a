package security

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meizuno/Chat/tools/errs"
)

var testSecret = []byte("unit-test-secret")

func TestGenerateVerifyRoundtrip(t *testing.T) {
	opts := DefaultOptions(testSecret)

	token, expireAt, err := Generate(opts, "user-42", AudAccess)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(opts.TTL), expireAt, 5*time.Second)

	sub, err := Verify(opts, token, AudAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)
}

func TestVerifyEnforcesAudience(t *testing.T) {
	opts := DefaultOptions(testSecret)

	token, _, err := Generate(opts, "user-42", AudReset)
	require.NoError(t, err)

	_, err = Verify(opts, token, AudAccess)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions(testSecret), "user-42", AudAccess)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("someone-else")), token, AudAccess)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	opts := DefaultOptions(testSecret)
	token, _, err := Generate(opts, "user-42", AudAccess)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = Verify(opts, tampered, AudAccess)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestVerifyExpiredToken(t *testing.T) {
	now := time.Now()
	claims := jwtlib.MapClaims{
		"sub": "user-42",
		"aud": AudAccess,
		"iat": now.Add(-2 * time.Hour).Unix(),
		"nbf": now.Add(-2 * time.Hour).Unix(),
		"exp": now.Add(-time.Hour).Unix(),
	}
	stale, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(testSecret), stale, AudAccess)
	require.ErrorIs(t, err, errs.ErrTokenExpired)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	now := time.Now()
	claims := jwtlib.MapClaims{
		"aud": AudAccess,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(testSecret), token, AudAccess)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestUnsupportedAlg(t *testing.T) {
	opts := Options{Secret: testSecret, Alg: "RS256"}

	_, _, err := Generate(opts, "user-42", AudAccess)
	require.Error(t, err)

	_, err = Verify(opts, "anything", AudAccess)
	require.Error(t, err)
}

func TestHashTokenFingerprint(t *testing.T) {
	a := HashToken("token-a")
	b := HashToken("token-b")

	assert.True(t, strings.HasPrefix(a, "sha256:"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, HashToken("token-a"))
	// The raw token must not be recoverable from the fingerprint.
	assert.NotContains(t, a, "token-a")
}
