package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnavailable is returned when the request never produced an HTTP response.
var ErrUnavailable = errors.New("service unavailable, please try again later")

// APIError carries the status and the server's error message verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
