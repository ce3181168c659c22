package service

import (
	"auticonnect/internal/config"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()
	f := newFixture(t)
	return NewAuthService(config.AuthConfig{
		JWTSecret:        "test-secret",
		OperatorUsername: "bridge",
		OperatorPassword: "bridge-password",
	}, f.users)
}

func TestLoginIssuesOperatorToken(t *testing.T) {
	auth := newTestAuth(t)

	resp, err := auth.Login("bridge", "bridge-password")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	claims, err := auth.ValidateOperatorToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.OperatorID, claims.OperatorID)

	_, err = auth.ValidateProfessionalToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newTestAuth(t)

	_, err := auth.Login("bridge", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfessionalTokenOnlyForAssistants(t *testing.T) {
	auth := newTestAuth(t)
	ctx := context.Background()

	resp, err := auth.IssueProfessionalToken(ctx, "p1")
	require.NoError(t, err)
	claims, err := auth.ValidateProfessionalToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.UserID)

	_, err = auth.ValidateOperatorToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.IssueProfessionalToken(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotProfessional)

	_, err = auth.IssueProfessionalToken(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotProfessional)
}

func TestTokensFromAnotherSecretAreRejected(t *testing.T) {
	auth := newTestAuth(t)
	other := NewAuthService(config.AuthConfig{JWTSecret: "other", OperatorUsername: "bridge", OperatorPassword: "bridge-password"}, nil)

	resp, err := other.Login("bridge", "bridge-password")
	require.NoError(t, err)

	_, err = auth.ValidateOperatorToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = auth.ValidateOperatorToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
