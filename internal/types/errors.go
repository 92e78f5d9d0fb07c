package types

import "fmt"

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

const (
	// Parse failures: a recognized event shape is missing something the
	// extractor requires. These fail the record, never the batch.
	ErrCodeParseMissingField     ErrorCode = "parse_missing_required_field"
	ErrCodeParseInvalidValue     ErrorCode = "parse_invalid_field_value"
	ErrCodeParseBadTimestamp     ErrorCode = "parse_invalid_timestamp"
	ErrCodeParseMalformedARN     ErrorCode = "parse_malformed_arn"
	ErrCodeParseBadAttribute     ErrorCode = "parse_invalid_message_attribute"
	ErrCodeParseBadEnvelope      ErrorCode = "parse_malformed_envelope"
	ErrCodeURLServiceUnsupported ErrorCode = "url_service_unsupported"

	// Render failures indicate an extractor/renderer mismatch, which is a
	// programming invariant violation rather than a user input problem.
	ErrCodeRenderMissingVariant ErrorCode = "render_missing_fact_variant"

	// Delivery failures.
	ErrCodeDeliveryRequestFailed    ErrorCode = "delivery_request_failed"
	ErrCodeDeliveryUnexpectedStatus ErrorCode = "delivery_unexpected_status"

	// Configuration / bootstrap failures.
	ErrCodeConfigInvalid    ErrorCode = "config_invalid"
	ErrCodeSecretUnresolved ErrorCode = "secret_unresolved"
)

// AppError is the standard application error type. All domain errors are
// expressed as AppError to enable consistent logging and error chains.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
	Details map[string]any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewMissingFieldError builds the standard error for a required key that is
// absent from an otherwise-recognized event payload.
func NewMissingFieldError(action Action, field string) *AppError {
	return &AppError{
		Code:    ErrCodeParseMissingField,
		Message: fmt.Sprintf("%s event is missing required field %q", action, field),
		Details: map[string]any{"action": string(action), "field": field},
	}
}
