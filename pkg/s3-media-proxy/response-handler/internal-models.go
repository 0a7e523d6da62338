package responsehandler

import "net/http"

// errorData represents the structure used by error templating.
type errorData struct {
	Request    *http.Request
	Error      error
	Path       string
	StatusText string
	Status     int
}
