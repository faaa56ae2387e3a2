// Package apperr defines the typed outcomes shared across the catalog layers.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrNotReady        = errors.New("catalog not ready")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrPersistence     = errors.New("persistence failed")
)
