package service

import (
	"errors"
	"fmt"

	"surveyapi/internal/model"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrUnauthenticated    = errors.New("authentication credentials were not provided or are invalid")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account is not active")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrAlreadyCompleted   = errors.New("you have already completed this survey")
	ErrAlreadyClosed      = errors.New("survey instance is already closed")
	ErrNotClosed          = errors.New("only closed instances can be reopened")
)

// ValidationError reports a rejected input field. Code defaults to VALIDATION_ERROR.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Code: "VALIDATION_ERROR", Field: field, Message: message}
}

func alreadyExists(field string) error {
	return &ValidationError{
		Code:    "ALREADY_EXISTS",
		Field:   field,
		Message: fmt.Sprintf("a user with this %s already exists", field),
	}
}

// ErrInstanceNotOpen is matched by NotOpenError.
var ErrInstanceNotOpen = errors.New("survey instance is not open")

// NotOpenError rejects access to a draft or closed instance.
type NotOpenError struct {
	State model.InstanceState
}

func (e *NotOpenError) Error() string {
	return fmt.Sprintf("survey instance is %s", e.State)
}

func (e *NotOpenError) Is(target error) bool {
	return target == ErrInstanceNotOpen
}
