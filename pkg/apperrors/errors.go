package apperrors

import "errors"

var (
	// ErrValidation marks malformed input. Detected before the engine is contacted.
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	// ErrEngine marks a statement the SQL engine rejected or could not run.
	ErrEngine = errors.New("engine error")
)
