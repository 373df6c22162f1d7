package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"forestblock/marketplace/marketplace-backend/internal/config"
)

func tokenService(ttl time.Duration) *Service {
	return NewService(nil, &LogSender{Logger: zap.NewNop()}, nil, config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  ttl,
	}, zap.NewNop())
}

func TestTokenRoundTrip(t *testing.T) {
	svc := tokenService(time.Hour)
	user := &User{ID: uuid.New(), Email: "buyer@example.com"}

	token, err := svc.issueToken(user)
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.ID.String(), claims.Subject)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	svc := tokenService(-time.Minute)
	user := &User{ID: uuid.New(), Email: "buyer@example.com"}

	token, err := svc.issueToken(user)
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := tokenService(time.Hour)
	user := &User{ID: uuid.New(), Email: "buyer@example.com"}

	token, err := issuer.issueToken(user)
	require.NoError(t, err)

	verifier := NewService(nil, nil, nil, config.AuthConfig{JWTSecret: "other-secret"}, zap.NewNop())
	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := tokenService(time.Hour)
	_, err := svc.ParseToken("not-a-token")
	assert.Error(t, err)
}

func TestGenerateCode(t *testing.T) {
	code, err := generateCode(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, c >= '0' && c <= '9')
	}

	// non-positive lengths fall back to six digits
	code, err = generateCode(0)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}
