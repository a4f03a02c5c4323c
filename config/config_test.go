package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	var cfg Config
	cfg.JWT = JWTConfig{
		SecretKey:       "0123456789abcdef0123456789abcdef",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 168 * time.Hour,
	}
	cfg.CORS = CORSConfig{AllowedOrigins: "http://localhost:5173,http://localhost:3000"}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing secret refuses to start", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.SecretKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("short secret refuses to start", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.SecretKey = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("whitespace does not count toward secret length", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.SecretKey = "   0123456789abcdef   "
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive TTLs are rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWT.AccessTokenTTL = 0
		assert.Error(t, cfg.Validate())

		cfg = validConfig()
		cfg.JWT.RefreshTokenTTL = -time.Hour
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty CORS origins are rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.CORS.AllowedOrigins = "  , "
		assert.Error(t, cfg.Validate())
	})

	t.Run("wildcard origin is rejected", func(t *testing.T) {
		cfg := validConfig()
		cfg.CORS.AllowedOrigins = "http://localhost:5173,*"
		assert.Error(t, cfg.Validate())
	})

	t.Run("seed enabled requires credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.Admin.SeedEnabled = true
		assert.Error(t, cfg.Validate())

		cfg.Admin.Email = "admin@x.com"
		cfg.Admin.Password = "admin-password"
		assert.NoError(t, cfg.Validate())
	})
}

func TestCORSOrigins(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: " http://a.example , ,http://b.example"}
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Origins())
}
