package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Login & Logout
	RouteSignIn   = "/auth/signin"
	RouteSignOut  = "/auth/signout"
	RouteCallback = "/callback"

	// Page Routes
	RouteHome      = "/"
	RouteDashboard = "/dashboard"

	// API Routes
	RouteAPIMe            = "/api/me"
	RouteAPINotifications = "/api/notifications"
	RouteAPIExchanges     = "/api/exchanges"
	RouteAPICountries     = "/api/user/countries"
	RouteAPIFYear         = "/api/user/fyear"
	RouteAPITaxReport     = "/api/tax-report/download"
)
