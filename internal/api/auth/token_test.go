package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verisys/go-auth-starter/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(config.JWTConfig{
		SecretKey:       testSecret,
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return svc
}

// signRaw mints a token with arbitrary claims for the malformed-claim cases.
func signRaw(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestNewTokenService(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := NewTokenService(config.JWTConfig{
			SecretKey:       "too-short",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		})
		assert.Error(t, err)
	})

	t.Run("rejects non-positive TTL", func(t *testing.T) {
		_, err := NewTokenService(config.JWTConfig{
			SecretKey:       testSecret,
			AccessTokenTTL:  0,
			RefreshTokenTTL: time.Hour,
		})
		assert.Error(t, err)
	})
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	t.Run("access token", func(t *testing.T) {
		signed, err := svc.Issue("user-1", TokenAccess, 3, []string{"USER"})
		require.NoError(t, err)

		claims, err := svc.Verify(signed, TokenAccess)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, string(TokenAccess), claims.Type)
		assert.Equal(t, []string{"USER"}, claims.Roles)
		assert.Equal(t, 3, claims.Version())
	})

	t.Run("refresh token carries no roles", func(t *testing.T) {
		signed, err := svc.Issue("user-1", TokenRefresh, 0, nil)
		require.NoError(t, err)

		claims, err := svc.Verify(signed, TokenRefresh)
		require.NoError(t, err)
		assert.Empty(t, claims.Roles)
		assert.Equal(t, 0, claims.Version())
	})
}

func TestTokenService_Verify_Rejections(t *testing.T) {
	svc := newTestTokenService(t)

	t.Run("type mismatch", func(t *testing.T) {
		signed, err := svc.Issue("user-1", TokenRefresh, 0, nil)
		require.NoError(t, err)

		_, err = svc.Verify(signed, TokenAccess)
		assert.ErrorIs(t, err, ErrTokenType)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other, err := NewTokenService(config.JWTConfig{
			SecretKey:       "another-secret-key-of-32-bytes!!",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		})
		require.NoError(t, err)

		signed, err := other.Issue("user-1", TokenAccess, 0, nil)
		require.NoError(t, err)

		_, err = svc.Verify(signed, TokenAccess)
		assert.ErrorIs(t, err, ErrTokenSignature)
	})

	t.Run("expired token", func(t *testing.T) {
		signed := signRaw(t, testSecret, jwt.MapClaims{
			"type": "ACCESS",
			"ver":  0,
			"sub":  "user-1",
			"iat":  time.Now().Add(-2 * time.Hour).Unix(),
			"exp":  time.Now().Add(-time.Hour).Unix(),
		})

		_, err := svc.Verify(signed, TokenAccess)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("missing expiry claim", func(t *testing.T) {
		signed := signRaw(t, testSecret, jwt.MapClaims{
			"type": "ACCESS",
			"ver":  0,
			"sub":  "user-1",
			"iat":  time.Now().Unix(),
		})

		_, err := svc.Verify(signed, TokenAccess)
		assert.Error(t, err)
	})

	t.Run("missing ver claim", func(t *testing.T) {
		signed := signRaw(t, testSecret, jwt.MapClaims{
			"type": "ACCESS",
			"sub":  "user-1",
			"iat":  time.Now().Unix(),
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		_, err := svc.Verify(signed, TokenAccess)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("numeric-string ver is accepted", func(t *testing.T) {
		signed := signRaw(t, testSecret, jwt.MapClaims{
			"type": "ACCESS",
			"ver":  "7",
			"sub":  "user-1",
			"iat":  time.Now().Unix(),
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		claims, err := svc.Verify(signed, TokenAccess)
		require.NoError(t, err)
		assert.Equal(t, 7, claims.Version())
	})

	t.Run("garbage ver is rejected", func(t *testing.T) {
		signed := signRaw(t, testSecret, jwt.MapClaims{
			"type": "ACCESS",
			"ver":  "not-a-number",
			"sub":  "user-1",
			"iat":  time.Now().Unix(),
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		_, err := svc.Verify(signed, TokenAccess)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("missing subject", func(t *testing.T) {
		signed := signRaw(t, testSecret, jwt.MapClaims{
			"type": "ACCESS",
			"ver":  0,
			"iat":  time.Now().Unix(),
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		_, err := svc.Verify(signed, TokenAccess)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("tampered payload", func(t *testing.T) {
		signed, err := svc.Issue("user-1", TokenAccess, 0, []string{"USER"})
		require.NoError(t, err)

		tampered := signed[:len(signed)-4] + "AAAA"
		_, err = svc.Verify(tampered, TokenAccess)
		assert.Error(t, err)
	})

	t.Run("not a jwt at all", func(t *testing.T) {
		_, err := svc.Verify("definitely-not-a-token", TokenAccess)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})
}
