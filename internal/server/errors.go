// Package server provides the HTTP REST API for the apply agent.
package server

import (
	"fmt"
	"net/http"
)

// ErrPageUnreachable indicates the target page could not be loaded
type ErrPageUnreachable struct {
	URL string
}

func (e *ErrPageUnreachable) Error() string {
	return fmt.Sprintf("page unreachable: %s", e.URL)
}

// ErrNoResumeStored indicates no resume has been saved yet
type ErrNoResumeStored struct{}

func (e *ErrNoResumeStored) Error() string {
	return "no resume stored"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrPageUnreachable:
		return http.StatusBadGateway
	case *ErrNoResumeStored:
		return http.StatusNotFound
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
