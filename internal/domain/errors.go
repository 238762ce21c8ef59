package domain

import "errors"

var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrFetchFailed      = errors.New("fetch failed")
	ErrGenerationFailed = errors.New("generation failed")
	ErrStoreFailed      = errors.New("store failed")
	ErrNotFound         = errors.New("not found")
)
