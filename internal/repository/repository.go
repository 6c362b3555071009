package repository

import (
	"errors"
	"fmt"
)

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres) and contain no business logic.
// Lookups of missing rows return sql.ErrNoRows unchanged.

var (
	// ErrDuplicate is matched by ConflictError.
	ErrDuplicate = errors.New("duplicate value")
	// ErrParticipationCompleted rejects writes to a completed participation.
	ErrParticipationCompleted = errors.New("participation already completed")
)

// ConflictError reports a unique constraint violation on Field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrDuplicate
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
