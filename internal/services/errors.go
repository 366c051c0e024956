package services

import "errors"

var (
	ErrNotFound        = errors.New("not_found")
	ErrAccessDenied    = errors.New("access_denied")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrEmailTaken      = errors.New("email_already_registered")
	ErrBadCredentials  = errors.New("invalid_credentials")
	ErrAccountDisabled = errors.New("account_disabled")
	ErrMissingTitle    = errors.New("missing_project_title")
	ErrInvalidProgress = errors.New("invalid_progress_value")
	ErrInvalidDates    = errors.New("end_before_start")
)
