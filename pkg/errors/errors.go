package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by code, so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// StatusCode maps the error code to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidCredentials:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrEmailTaken:
		return http.StatusConflict
	case ErrNetwork:
		return http.StatusBadGateway
	case ErrTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrInvalidCredentials
	ErrEmailTaken
	ErrValidation
	ErrNetwork
	ErrTooLarge
)

// Sentinels for errors.Is checks. Constructors below produce errors that match them.
var (
	InvalidCredentials     = &AppError{Code: ErrInvalidCredentials, Message: "invalid credentials"}
	EmailAlreadyRegistered = &AppError{Code: ErrEmailTaken, Message: "email already registered"}
	NotFoundError          = &AppError{Code: ErrNotFound, Message: "not found"}
	ValidationError        = &AppError{Code: ErrValidation, Message: "validation failed"}
	NetworkError           = &AppError{Code: ErrNetwork, Message: "network error"}
	ForbiddenError         = &AppError{Code: ErrForbidden, Message: "forbidden"}
	TooLargeError          = &AppError{Code: ErrTooLarge, Message: "request body too large"}
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func NewValidation(message string, err error) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Err:     err,
	}
}

func NewNetwork(message string, err error) *AppError {
	return &AppError{
		Code:    ErrNetwork,
		Message: message,
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Validation(message string, err error) *AppError {
	return NewValidation(message, err)
}

func Network(message string, err error) *AppError {
	return NewNetwork(message, err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

func CredentialsRejected(err error) *AppError {
	return &AppError{
		Code:    ErrInvalidCredentials,
		Message: "invalid credentials",
		Err:     err,
	}
}

func EmailTaken(email string) *AppError {
	return &AppError{
		Code:    ErrEmailTaken,
		Message: fmt.Sprintf("email %s already registered", email),
	}
}

func TooLarge(limit int64, err error) *AppError {
	return &AppError{
		Code:    ErrTooLarge,
		Message: fmt.Sprintf("request body exceeds %d bytes", limit),
		Err:     err,
	}
}

// StatusCode returns the HTTP status for any error, 500 when it is not an AppError.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}

// PublicMessage returns a message safe to show to the end user.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
