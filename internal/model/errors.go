package model

import "errors"

var (
	ErrEmptyFullName = errors.New("fullname cannot be empty")
	ErrZeroAmount    = errors.New("amount cannot be zero")
)
