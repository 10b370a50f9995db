package config

import "sync"

var (
	authOnce   sync.Once
	authConfig *AuthConfig
)

type AuthConfig struct {
	JWTSecret string
}

func GetAuthConfig() *AuthConfig {
	authOnce.Do(func() {
		loadEnv()
		authConfig = &AuthConfig{
			JWTSecret: getenv("JWT_SECRET", "dev-secret-change-me"),
		}
	})
	return authConfig
}
