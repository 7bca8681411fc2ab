package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/taxfolio-client/apiclient"
	"github.com/jrsteele09/taxfolio-client/appuser"
)

type meResponse struct {
	appuser.View
	Session string `json:"session"`
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, meResponse{View: s.users.View(), Session: s.session.State().String()})
	}
}

// NotificationsHandler returns the latest realtime progress snapshot.
func (s *Server) NotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.realtime.State().Snapshot())
	}
}

func (s *Server) ExchangesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exchanges, err := s.api.Exchange.List(r.Context())
		if err != nil {
			s.writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, exchanges)
	}
}

func (s *Server) CountriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		countries, err := s.api.User.Countries(r.Context())
		if err != nil {
			s.writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, countries)
	}
}

func (s *Server) FYearHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		details, err := s.api.User.DefaultFYearDetails(r.Context())
		if err != nil {
			s.writeAPIError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, details)
	}
}

// TaxReportDownloadHandler streams a generated report from the link in ?url=.
func (s *Server) TaxReportDownloadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := r.URL.Query().Get("url")
		if link == "" {
			writeJSONError(w, "invalid_request", "url is required", http.StatusBadRequest)
			return
		}

		blob, err := s.api.TaxReport.Download(r.Context(), link)
		if err != nil {
			s.writeAPIError(w, r, err)
			return
		}

		contentType := blob.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		if blob.Filename != "" {
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", blob.Filename))
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(blob.Data)
	}
}

// writeAPIError passes backend status codes through; transport failures are a 502.
func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r.Method, r.URL.Path, err)

	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		writeJSONError(w, "api_error", httpErr.Error(), httpErr.StatusCode)
		return
	}
	writeJSONError(w, "bad_gateway", "backend unavailable", http.StatusBadGateway)
}
