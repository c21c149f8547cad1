package handlers

import (
	"errors"
	"net/http"
)

// HTTPError is returned by handlers for client errors that should not be
// logged as failures.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NotFound(message string) error {
	return &HTTPError{Status: http.StatusNotFound, Message: message}
}

func BadRequest(message string) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: message}
}

func asHTTPError(err error, target **HTTPError) bool {
	return errors.As(err, target)
}
