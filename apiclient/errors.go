package apiclient

import (
	"encoding/json"
	"fmt"
)

// HTTPError is returned for every non-2xx API response.
type HTTPError struct {
	StatusCode int
	Status     string
	Title      string // From an RFC 7807 problem body, if any
	Detail     string
	Body       []byte
}

func newHTTPError(statusCode int, status string, body []byte) *HTTPError {
	e := &HTTPError{StatusCode: statusCode, Status: status, Body: body}
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &problem) == nil {
		e.Title = problem.Title
		e.Detail = problem.Detail
	}
	return e
}

func (e *HTTPError) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("api error %s: %s", e.Status, e.Detail)
	case e.Title != "":
		return fmt.Sprintf("api error %s: %s", e.Status, e.Title)
	}
	return "api error " + e.Status
}
