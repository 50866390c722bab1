// Package apierr defines the error taxonomy surfaced at the HTTP boundary.
//
// Errors fall into two groups: generic status errors (bad request, not found,
// forbidden, internal) and named domain errors that give callers a specific
// remediation path. Both satisfy KnownError so the transport layer can map
// any error in a chain to a status code and machine-readable code string.
package apierr

import (
	"fmt"
	"net/http"
)

// KnownError is implemented by every error this service intentionally
// surfaces to callers. Anything else is reported as an internal error.
type KnownError interface {
	error
	Code() string
	HTTPStatus() int
}

// Machine-readable error codes.
const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeUnauthorized   = "UNAUTHENTICATED"
	CodeNotFound       = "NOT_FOUND"
	CodeForbidden      = "FORBIDDEN"
	CodeInternal       = "INTERNAL_SERVER_ERROR"
	CodeValidation     = "SCHEMA_VALIDATION_FAILED"
	CodeUserIDMissing  = "USER_ID_DOES_NOT_EXIST"
	CodeNoCurrentUser  = "CANNOT_GET_OWN_USER_WITHOUT_USER"
	CodeUnsupportedOp  = "UNSUPPORTED_OPERATION"
	CodePaymentsOff    = "PAYMENTS_NOT_ENABLED"
	CodeItemNotFound   = "ITEM_NOT_FOUND"
	CodePricingMissing = "PRICING_MODEL_NOT_FOUND"
)

// StatusError is a generic error with an HTTP status attached.
type StatusError struct {
	Status  int
	ErrCode string
	Message string
}

func (e *StatusError) Error() string   { return e.Message }
func (e *StatusError) Code() string    { return e.ErrCode }
func (e *StatusError) HTTPStatus() int { return e.Status }

func NewBadRequest(message string) *StatusError {
	return &StatusError{Status: http.StatusBadRequest, ErrCode: CodeBadRequest, Message: message}
}

func NewUnauthorized(message string) *StatusError {
	return &StatusError{Status: http.StatusUnauthorized, ErrCode: CodeUnauthorized, Message: message}
}

func NewNotFound(message string) *StatusError {
	return &StatusError{Status: http.StatusNotFound, ErrCode: CodeNotFound, Message: message}
}

func NewForbidden(message string) *StatusError {
	return &StatusError{Status: http.StatusForbidden, ErrCode: CodeForbidden, Message: message}
}

func NewInternalServerError(message string) *StatusError {
	return &StatusError{Status: http.StatusInternalServerError, ErrCode: CodeInternal, Message: message}
}

// UserIDDoesNotExistError is raised when a session (or other resource) is
// created for a user id that does not exist in the tenancy. It is distinct
// from the user domain's generic not-found so callers can tell "the resource
// you referenced is missing" apart from "the resource you requested is
// missing".
type UserIDDoesNotExistError struct {
	UserID string
}

func (e *UserIDDoesNotExistError) Error() string {
	return fmt.Sprintf("the user with ID %s does not exist", e.UserID)
}

func (e *UserIDDoesNotExistError) Code() string    { return CodeUserIDMissing }
func (e *UserIDDoesNotExistError) HTTPStatus() int { return http.StatusBadRequest }

// CannotGetOwnUserWithoutUserError is raised when a client-authenticated
// request implies "the current user" but no user is attached to the access
// credential.
type CannotGetOwnUserWithoutUserError struct{}

func (e *CannotGetOwnUserWithoutUserError) Error() string {
	return "cannot get own user without a user attached to the credential"
}

func (e *CannotGetOwnUserWithoutUserError) Code() string    { return CodeNoCurrentUser }
func (e *CannotGetOwnUserWithoutUserError) HTTPStatus() int { return http.StatusBadRequest }
