package server

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/jrsteele09/taxfolio-client/appuser"
	"github.com/jrsteele09/taxfolio-client/routeguard"
)

//go:embed templates/page.html
var pageTemplates embed.FS

func parsePages() (*template.Template, error) {
	return template.ParseFS(pageTemplates, "templates/page.html")
}

// PageData is what the page template renders.
type PageData struct {
	AppName       string
	Locale        string
	Route         string
	User          *appuser.User
	HomePath      string
	DashboardPath string
}

// PageHandler renders every page route. The route guard has already run, so the
// user view reflects this navigation.
func (s *Server) PageHandler(tmpl *template.Template) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		locales := s.guard.Locales()
		locale := locales.Current(r)
		_, path := locales.Split(r.URL.Path)

		data := PageData{
			AppName:       s.config.GetAppName(),
			Locale:        locale,
			Route:         routeguard.RouteName(path),
			User:          s.users.View().User,
			HomePath:      locales.LocalePath(locale, RouteHome),
			DashboardPath: locales.LocalePath(locale, RouteDashboard),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			logError(r.Method, r.URL.Path, err)
		}
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
