package server

import (
	"html/template"
	"net/http"
)

func (s *Server) initRoutes(pages *template.Template) {
	// PAGES (guarded, any locale prefix)
	s.RegisterRouteHandler("GET /", ChainMiddleware(s.PageHandler(pages), s.HTMLMiddleWare(s.guard.Middleware)...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteSignIn, ChainMiddleware(s.SignInHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteSignOut, ChainMiddleware(s.SignOutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare()...)) // For form_post response mode

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPINotifications, ChainMiddleware(s.NotificationsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIExchanges, ChainMiddleware(s.ExchangesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPICountries, ChainMiddleware(s.CountriesHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPIFYear, ChainMiddleware(s.FYearHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPITaxReport, ChainMiddleware(s.TaxReportDownloadHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET /api/", ChainMiddleware(notFound, s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(notFound, s.APIMiddleware()...))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}
