// Package api exposes the declaration generator over HTTP.
package api

// APIError is the error envelope for 4xx/5xx responses that carry no
// generation result.
type APIError struct {
	Detail string `json:"detail"`
}

// NewError returns an error envelope.
func NewError(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError lists request fields that failed format checks.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

// NewValidation returns a validation envelope.
func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "request validation failed", Fields: fields}
}
