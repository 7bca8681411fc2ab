package config

import (
	"strings"
	"time"
)

type API struct{}

var _ APIConfig = API{}

func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv("API_BASE_URL", "http://localhost:5000"), "/")
}

func (API) GetAPITimeout() time.Duration {
	return GetEnvDuration("API_TIMEOUT", 30*time.Second)
}

func (API) GetRealtimeHubPath() string {
	return GetEnv("REALTIME_HUB_PATH", "/realtimeNotifications")
}

type Locale struct{}

var _ LocaleConfig = Locale{}

func (Locale) GetDefaultLocale() string {
	return GetEnv("DEFAULT_LOCALE", "en")
}

func (l Locale) GetLocales() []string {
	return GetEnvList("LOCALES", []string{l.GetDefaultLocale()})
}

type Logging struct{}

var _ LogConfig = Logging{}

func (Logging) GetLogLevel() string {
	return GetEnv("LOG_LEVEL", "info")
}

// GetLogFormat is "console" or "json".
func (Logging) GetLogFormat() string {
	return GetEnv("LOG_FORMAT", "console")
}

// GetLogFile enables a rotating file sink in addition to stdout when set.
func (Logging) GetLogFile() string {
	return GetEnv("LOG_FILE", "")
}
