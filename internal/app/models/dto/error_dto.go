package dto

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrorCode is the stable, client facing category of an error response
type ErrorCode string

const (
	ErrorCodeInvalidToken ErrorCode = "AUTH_005"
	ErrorCodeExpiredToken ErrorCode = "AUTH_006"
	ErrorCodeUnauthorized ErrorCode = "AUTH_008"
	ErrorCodeForbidden    ErrorCode = "AUTH_009"

	ErrorCodeResourceNotFound ErrorCode = "RES_001"
	ErrorCodeConflict         ErrorCode = "RES_004"

	ErrorCodeValidationFailed ErrorCode = "VAL_001"
	ErrorCodeBadRequest       ErrorCode = "VAL_002"

	ErrorCodeInternalServer ErrorCode = "SRV_001"
)

// ErrorDetail describes why a request failed. Reason carries the domain error code
// (for example ALREADY_SUBMITTED) when the failure came from the exam domain.
type ErrorDetail struct {
	Code    ErrorCode   `json:"code" example:"RES_004"`
	Message string      `json:"message" example:"Student exam does not belong to exam"`
	Field   string      `json:"field,omitempty" example:"workingTime"`
	Reason  string      `json:"reason,omitempty" example:"ALREADY_SUBMITTED"`
	Details interface{} `json:"details,omitempty"`
}

// FieldError is one failed validation rule of a request body
type FieldError struct {
	Field   string `json:"field" example:"workingTime"`
	Rule    string `json:"rule" example:"gt"`
	Message string `json:"message" example:"workingTime must be greater than 0"`
}

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     *ErrorDetail `json:"error"`
	Timestamp time.Time    `json:"timestamp" example:"2026-02-01T09:00:00Z"`
}

// NewErrorDetail creates a new error detail
func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{Code: code, Message: message}
}

func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

func (e *ErrorDetail) WithReason(reason string) *ErrorDetail {
	e.Reason = reason
	return e
}

func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

// NewErrorResponse wraps detail into the error envelope
func NewErrorResponse(detail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{Error: detail, Timestamp: time.Now()}
}

// HandleValidationError turns validator field errors into a single error detail listing every field
func HandleValidationError(err error) *ErrorDetail {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return NewErrorDetail(ErrorCodeValidationFailed, "Invalid request").WithDetails(err.Error())
	}

	fields := make([]FieldError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Message: describeRule(fe)})
	}
	detail := NewErrorDetail(ErrorCodeValidationFailed, "Validation failed").WithDetails(fields)
	if len(fields) == 1 {
		detail.Field = fields[0].Field
	}
	return detail
}

var ruleTexts = map[string]string{
	"required": " is required",
	"min":      " must be at least ",
	"max":      " must be at most ",
	"gt":       " must be greater than ",
	"oneof":    " must be one of: ",
}

func describeRule(fe validator.FieldError) string {
	if text, ok := ruleTexts[fe.Tag()]; ok {
		return fe.Field() + text + fe.Param()
	}
	return fe.Field() + " failed rule " + fe.Tag()
}
