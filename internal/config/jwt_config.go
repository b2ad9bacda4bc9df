package config

import (
	"os"
	"time"
)

type JwtConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// Enabled reports whether executors must present a registration token
func (c *JwtConfig) Enabled() bool {
	return c.Secret != ""
}

func NewJwtConfig() *JwtConfig {
	return &JwtConfig{
		Secret:   os.Getenv("JWT_SECRET"),
		TokenTTL: getSecondsEnv("JWT_TOKEN_TTL_SEC", time.Hour),
	}
}
