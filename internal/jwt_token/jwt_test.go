package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ucphost/pkg/domain-errors"
)

var jwtService = NewJWTService(
	"test-signing-key",
	"test-issuer",
	"test-audience",
)
var accountID = "acct_123"
var platform = "https://platform.example/.well-known/ucp"
var scope = "ucp:scopes:checkout_session"
var expiresIn = time.Hour

func Test_GenerateAccessToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken(accountID, platform, scope, expiresIn)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, accountID, claims.Subject)
	assert.Equal(t, platform, claims.Platform)
	assert.Equal(t, scope, claims.Scope)
	assert.Equal(t, UseAccess, claims.Use)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	expiresIn := -time.Hour // Expired token

	token, err := jwtService.GenerateAccessToken(accountID, platform, scope, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "token has expired"))
}

func Test_ValidateToken_WrongAudience(t *testing.T) {
	other := NewJWTService("test-signing-key", "test-issuer", "other-audience")
	token, err := other.GenerateAccessToken(accountID, platform, scope, expiresIn)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateTokenUse(t *testing.T) {
	code, err := jwtService.GenerateToken(UseAuthorizationCode, accountID, "", scope, time.Minute)
	require.NoError(t, err)

	_, err = jwtService.ValidateTokenUse(code, UseAccess)
	require.Error(t, err)

	claims, err := jwtService.ValidateTokenUse(code, UseAuthorizationCode)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.Subject)
}

func Test_AdapterRejectsNonAccessTokens(t *testing.T) {
	adapter := NewJWTServiceAdapter(jwtService)

	refresh, err := jwtService.GenerateToken(UseRefresh, accountID, platform, scope, time.Hour)
	require.NoError(t, err)
	_, err = adapter.ValidateToken(refresh)
	require.Error(t, err)

	access, err := jwtService.GenerateAccessToken(accountID, platform, scope, time.Hour)
	require.NoError(t, err)
	claims, err := adapter.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.Subject)
	assert.Equal(t, platform, claims.Platform)
}
