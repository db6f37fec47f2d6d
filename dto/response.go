package dto

import "errors"

// Custom errors
var (
	ErrNoFile              = errors.New("file is required")
	ErrUnsupportedFileType = errors.New("invalid file type. Supported: PDF, PNG, JPG")
	ErrNoTokenSource       = errors.New("no OCR token source configured")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
