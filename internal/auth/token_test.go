package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestVerifyHeaderRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign("alice", time.Minute)
	require.NoError(t, err)

	username, err := v.VerifyHeader("Bearer " + token)
	require.NoError(t, err)
	require.Equal(t, "alice", username)
}

func TestVerifyHeaderSchemeCaseInsensitive(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign("alice", time.Minute)
	require.NoError(t, err)

	username, err := v.VerifyHeader("bearer " + token)
	require.NoError(t, err)
	require.Equal(t, "alice", username)
}

func TestVerifyHeaderMissing(t *testing.T) {
	v := NewVerifier("test-secret")

	_, err := v.VerifyHeader("")
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestVerifyHeaderMalformedScheme(t *testing.T) {
	v := NewVerifier("test-secret")

	_, err := v.VerifyHeader("Basic abc123")
	require.ErrorIs(t, err, ErrMissingCredential)

	_, err = v.VerifyHeader("justonetoken")
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	signer := NewVerifier("secret-a")
	verifier := NewVerifier("secret-b")

	token, err := signer.Sign("alice", time.Minute)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenExpired(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign("alice", -time.Minute)
	require.NoError(t, err)

	_, err = v.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenEmptyUsernameClaim(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign("", time.Minute)
	require.NoError(t, err)

	_, err = v.VerifyToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}
