// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These symbolic constants are mapped to HTTP responses via the `fail()`
// helper. They give clients a stable, machine-readable error taxonomy that
// supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase snake_case.
//   - Generic codes (bad_request, not_found, ...) mirror HTTP status
//     semantics.
//   - Domain-specific codes (audit_failed, stream_unsupported) cover
//     business errors that a status alone cannot convey.
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	// Domain-specific:
	ErrCodeAuditFailed       = "audit_failed"
	ErrCodeListFailed        = "list_failed"
	ErrCodeStreamUnsupported = "stream_unsupported"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)
