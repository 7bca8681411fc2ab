package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	IdentityConfig
	APIConfig
	LocaleConfig
	LogConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetBaseURL() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// IdentityConfig describes the external identity provider (Entra External ID / B2C style)
// and the scopes the client requests from it.
type IdentityConfig interface {
	GetClientID() string
	GetAuthority() string
	GetKnownAuthority() string
	GetRedirectURI() string
	GetResetPasswordAuthority() string
	GetPostLogoutRedirectURI() string
	GetAPIScope() string
	GetScopes() []string
	GetTokenRenewalOffset() time.Duration
	GetRenewalSkew() time.Duration
	GetInteractiveTimeout() time.Duration
	GetTokenCachePassphrase() string
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
	GetRealtimeHubPath() string
}

type LocaleConfig interface {
	GetDefaultLocale() string
	GetLocales() []string
}

type LogConfig interface {
	GetLogLevel() string
	GetLogFormat() string
	GetLogFile() string
}

type mainConfig struct {
	EnvVars
	Cors
	Identity
	API
	Locale
	Logging
}

var loadDotEnv sync.Once

// New returns the environment backed configuration. A .env file in the working
// directory is loaded the first time New is called; variables already present
// in the environment win.
func New() Config {
	loadDotEnv.Do(func() {
		_ = godotenv.Load()
	})
	return mainConfig{}
}
