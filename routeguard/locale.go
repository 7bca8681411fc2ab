package routeguard

import (
	"net/http"
	"slices"
	"strings"
)

// LocaleCookie remembers the locale the user last picked.
const LocaleCookie = "i18n_redirected"

// Locales implements the prefix-except-default URL strategy: the default locale
// lives at the root, every other locale under "/<code>".
type Locales struct {
	Default   string
	Supported []string
}

func (l Locales) supported(code string) bool {
	return code == l.Default || slices.Contains(l.Supported, code)
}

// LocalePath returns path as seen in locale, e.g. "/dashboard" or "/fr/dashboard".
func (l Locales) LocalePath(locale, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if locale == "" || locale == l.Default || !l.supported(locale) {
		return path
	}
	if path == "/" {
		return "/" + locale
	}
	return "/" + locale + path
}

// Split separates a locale prefix from path. Paths without a known prefix
// belong to no locale.
func (l Locales) Split(path string) (locale, rest string) {
	trimmed := strings.TrimPrefix(path, "/")
	code, tail, _ := strings.Cut(trimmed, "/")
	if code == "" || code == l.Default || !l.supported(code) {
		return "", path
	}
	return code, "/" + tail
}

// Current picks the request's locale: path prefix, then the cookie, then the default.
func (l Locales) Current(r *http.Request) string {
	if locale, _ := l.Split(r.URL.Path); locale != "" {
		return locale
	}
	if c, err := r.Cookie(LocaleCookie); err == nil && l.supported(c.Value) {
		return c.Value
	}
	return l.Default
}

// RouteName names a locale-stripped path the way file based routers do:
// "/" is "index", "/dashboard/tax-report" is "dashboard-tax-report".
func RouteName(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "index"
	}
	return strings.ReplaceAll(trimmed, "/", "-")
}
