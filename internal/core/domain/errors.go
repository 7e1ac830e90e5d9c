package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates ingest was called with no usable text
	ErrEmptyDocument = errors.New("empty document")

	// ErrSessionNotFound indicates the session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrGenerationFailed indicates the language-generation backend failed.
	// This is the one hard failure on the chat path - the caller gets an
	// explicit error, never a fabricated answer.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrCacheUnavailable indicates the response cache backend could not be
	// reached. Callers treat it as a cache miss, it never reaches the user.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
