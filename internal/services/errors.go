package services

import (
	"errors"
	"fmt"
)

// Error categories exposed to callers. Handlers map these onto HTTP status
// codes, so every service error wraps exactly one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition failed")
	ErrConflict     = errors.New("conflict")
	ErrState        = errors.New("invalid state")
	ErrStorage      = errors.New("storage failure")
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

func notFoundErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

func preconditionErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrPrecondition}, args...)...)
}

func conflictErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConflict}, args...)...)
}

func stateErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrState}, args...)...)
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
