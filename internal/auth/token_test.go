package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enrolld/enrolld/internal/rbac"
)

func TestTokenVerifier_RoundTrip(t *testing.T) {
	verifier := NewTokenVerifier([]byte("test-secret"), "enrolld-test")
	actor := rbac.Actor{ID: "lrn-1", TenantID: "ten-1", Role: rbac.RoleLearner}

	signed, err := verifier.Issue(actor, time.Hour)
	require.NoError(t, err)

	got, err := verifier.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestTokenVerifier_Expired(t *testing.T) {
	verifier := NewTokenVerifier([]byte("test-secret"), "enrolld-test")
	actor := rbac.Actor{ID: "lrn-1", TenantID: "ten-1", Role: rbac.RoleLearner}

	signed, err := verifier.Issue(actor, -time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenVerifier_WrongSecret(t *testing.T) {
	signer := NewTokenVerifier([]byte("one-secret"), "enrolld-test")
	verifier := NewTokenVerifier([]byte("another-secret"), "enrolld-test")
	actor := rbac.Actor{ID: "lrn-1", TenantID: "ten-1", Role: rbac.RoleLearner}

	signed, err := signer.Issue(actor, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifier_WrongIssuer(t *testing.T) {
	signer := NewTokenVerifier([]byte("test-secret"), "someone-else")
	verifier := NewTokenVerifier([]byte("test-secret"), "enrolld-test")
	actor := rbac.Actor{ID: "lrn-1", TenantID: "ten-1", Role: rbac.RoleLearner}

	signed, err := signer.Issue(actor, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifier_RejectsUnknownRole(t *testing.T) {
	verifier := NewTokenVerifier([]byte("test-secret"), "enrolld-test")

	signed, err := verifier.Issue(rbac.Actor{ID: "lrn-1", TenantID: "ten-1", Role: "superuser"}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifier_RejectsMissingTenant(t *testing.T) {
	verifier := NewTokenVerifier([]byte("test-secret"), "enrolld-test")

	signed, err := verifier.Issue(rbac.Actor{ID: "lrn-1", Role: rbac.RoleLearner}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenVerifier_Garbage(t *testing.T) {
	verifier := NewTokenVerifier([]byte("test-secret"), "enrolld-test")

	_, err := verifier.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
