package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports bad or missing input. Maps to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthenticationError reports a missing or invalid token. Maps to 401.
type AuthenticationError struct {
	Message string
}

func (e AuthenticationError) Error() string { return e.Message }

// AuthorizationError reports a caller that does not own the resource. Maps to 403.
type AuthorizationError struct {
	Message string
}

func (e AuthorizationError) Error() string { return e.Message }

// NotFoundError reports an absent order or resource. Maps to 404.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string { return e.Resource + " not found" }

// GatewayError reports a payment provider failure. Maps to 502.
type GatewayError struct {
	Op  string
	Err error
}

func (e GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e GatewayError) Unwrap() error { return e.Err }

// ConflictError reports a double verification or double cancellation. Maps to 409.
type ConflictError struct {
	Message string
}

func (e ConflictError) Error() string { return e.Message }

// HTTPStatus maps a domain error to the HTTP status code the API contract
// promises. Unrecognized errors are internal.
func HTTPStatus(err error) int {
	var (
		ve ValidationError
		ae AuthenticationError
		ze AuthorizationError
		ne NotFoundError
		ge GatewayError
		ce ConflictError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ae):
		return http.StatusUnauthorized
	case errors.As(err, &ze):
		return http.StatusForbidden
	case errors.As(err, &ne):
		return http.StatusNotFound
	case errors.As(err, &ge):
		return http.StatusBadGateway
	case errors.As(err, &ce):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
