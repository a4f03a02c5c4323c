package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/verisys/go-auth-starter/config"
)

type TokenType string

const (
	TokenAccess  TokenType = "ACCESS"
	TokenRefresh TokenType = "REFRESH"
)

var ErrTokenMalformed = errors.New("token is malformed")
var ErrTokenExpired = errors.New("token has expired")
var ErrTokenSignature = errors.New("token signature is invalid")
var ErrTokenType = errors.New("token type mismatch")

// tokenVersion tolerates the version claim arriving as a JSON number or a
// numeric string, and rejects every other shape.
type tokenVersion int

func (v *tokenVersion) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = tokenVersion(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, perr := strconv.Atoi(strings.TrimSpace(s))
		if perr != nil {
			return fmt.Errorf("ver claim is not numeric: %q", s)
		}
		*v = tokenVersion(parsed)
		return nil
	}
	return errors.New("ver claim has unexpected type")
}

// Claims is the strictly-typed claim set carried by every token.
type Claims struct {
	Type  string        `json:"type"`
	Roles []string      `json:"roles"`
	Ver   *tokenVersion `json:"ver"`
	jwt.RegisteredClaims
}

// Version returns the embedded token version. Verify guarantees Ver is set.
func (c *Claims) Version() int {
	if c.Ver == nil {
		return 0
	}
	return int(*c.Ver)
}

// TokenService mints and verifies the signed access/refresh tokens. It is the
// sole authority on what constitutes a valid token; claims are never read
// without the signature having been verified first.
type TokenService struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	secret := []byte(strings.TrimSpace(cfg.SecretKey))
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 bytes, got %d", len(secret))
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("jwt token TTLs must be positive")
	}
	return &TokenService{
		secretKey:  secret,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// Issue builds and signs a token for the subject. Access tokens carry the
// role claims; refresh tokens are issued with an empty role list.
func (s *TokenService) Issue(subject string, typ TokenType, version int, roles []string) (string, error) {
	now := time.Now()
	ttl := s.accessTTL
	if typ == TokenRefresh {
		ttl = s.refreshTTL
	}
	if roles == nil {
		roles = []string{}
	}

	ver := tokenVersion(version)
	claims := &Claims{
		Type:  string(typ),
		Roles: roles,
		Ver:   &ver,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, structure, expiry, type and the presence of the
// version claim. A token without a version cannot be checked against the
// revocation counter and is rejected outright.
func (s *TokenService) Verify(tokenString string, expectedType TokenType) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, ErrTokenSignature
	}

	if claims.Type != string(expectedType) {
		return nil, ErrTokenType
	}
	if claims.Subject == "" {
		return nil, ErrTokenMalformed
	}
	if claims.Ver == nil {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
