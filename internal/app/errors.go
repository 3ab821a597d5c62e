package app

import "errors"

var (
	// ErrNotFound indicates a referenced photo, comment, or user is absent.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	ErrTitleRequired    = errors.New("title required")
	ErrContentRequired  = errors.New("content required")
	ErrQueryRequired    = errors.New("query required")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidCrop      = errors.New("invalid crop rectangle")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAIUnavailable indicates no credential exists for the external
	// reasoning service.
	ErrAIUnavailable = errors.New("ai service unavailable")
)
