package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort    string        `mapstructure:"HTTPPort"`
		MetricsPort string        `mapstructure:"metricsPort"`
		Timeout     time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			Password string `mapstructure:"password"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	JWT   JWTConfig   `mapstructure:"jwt"`
	CORS  CORSConfig  `mapstructure:"cors"`
	Admin AdminConfig `mapstructure:"admin"`
}

type JWTConfig struct {
	SecretKey       string        `mapstructure:"secretKey"`
	AccessTokenTTL  time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL time.Duration `mapstructure:"refreshTokenTTL"`
}

type CORSConfig struct {
	// AllowedOrigins is comma-separated; validated at startup.
	AllowedOrigins string `mapstructure:"allowedOrigins"`
}

type AdminConfig struct {
	SeedEnabled bool   `mapstructure:"seedEnabled"`
	Email       string `mapstructure:"email"`
	Password    string `mapstructure:"password"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate enforces the security-critical settings. A weak signing secret or
// a wildcard CORS origin must prevent the service from starting at all.
func (c *Config) Validate() error {
	secret := strings.TrimSpace(c.JWT.SecretKey)
	if secret == "" {
		return fmt.Errorf("jwt.secretKey must be provided, refusing to start")
	}
	if len(secret) < 32 {
		return fmt.Errorf("jwt.secretKey must be at least 32 bytes, got %d, refusing to start", len(secret))
	}
	if c.JWT.AccessTokenTTL <= 0 {
		return fmt.Errorf("jwt.accessTokenTTL must be positive")
	}
	if c.JWT.RefreshTokenTTL <= 0 {
		return fmt.Errorf("jwt.refreshTokenTTL must be positive")
	}

	origins := c.CORS.Origins()
	if len(origins) == 0 {
		return fmt.Errorf("cors.allowedOrigins must be provided, refusing to start")
	}
	for _, o := range origins {
		if o == "*" {
			return fmt.Errorf("cors.allowedOrigins must not contain '*', refusing to start")
		}
	}

	if c.Admin.SeedEnabled {
		if strings.TrimSpace(c.Admin.Email) == "" || strings.TrimSpace(c.Admin.Password) == "" {
			return fmt.Errorf("admin.email and admin.password are required when admin.seedEnabled is set")
		}
	}
	return nil
}

// Origins splits the comma-separated origin list, dropping blanks.
func (c *CORSConfig) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
