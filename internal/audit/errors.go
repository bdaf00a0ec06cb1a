package audit

import "errors"

// Sentinel errors surfaced to the HTTP layer.
var (
	// ErrEmptyURL indicates a submission without a URL.
	ErrEmptyURL = errors.New("url is required")

	// ErrInvalidURL indicates a URL that could not be normalized into an
	// absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")

	// ErrAuditNotFound indicates that no audit exists for a request id.
	ErrAuditNotFound = errors.New("audit not found")
)
