package util

import "errors"

var (
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrPathNotFound       = errors.New("learning path not found")
	ErrModuleNotFound     = errors.New("module not found in path")
	ErrFeedbackRequired   = errors.New("at least one feedback reason is required")
	ErrEmptyMessage       = errors.New("message text is required")
	ErrNoAttachments      = errors.New("at least one attachment is required")
	ErrUploadsInFlight    = errors.New("uploads still in progress")
	ErrTooManyFiles       = errors.New("too many files attached")
)
