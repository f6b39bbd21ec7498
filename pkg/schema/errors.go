package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeModelNotFound      = "MODEL_NOT_FOUND"
	ErrCodeRuleNotImplemented = "RULE_NOT_IMPLEMENTED"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeCatalog            = "CATALOG_ERROR"
	ErrCodeStore              = "STORE_ERROR"
	ErrCodeExpression         = "EXPRESSION_ERROR"
	ErrCodeRemote             = "REMOTE_ERROR"
)

// Fixed messages surfaced to API callers.
const (
	MsgModelNotFound      = "Model not found"
	MsgRuleNotImplemented = "Prediction not implemented"
)

// Error is the structured error type for all algoscope operations.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	ModelID string         `json:"model_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	if e.ModelID != "" {
		return fmt.Sprintf("[%s] model %s: %s", e.Code, e.ModelID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ModelNotFound is the error returned for an identifier absent from the catalog or registry.
func ModelNotFound(modelID string) *Error {
	return NewError(ErrCodeModelNotFound, MsgModelNotFound).WithModel(modelID)
}

// RuleNotImplemented is the error returned for a cataloged model without a rule.
func RuleNotImplemented(modelID string) *Error {
	return NewError(ErrCodeRuleNotImplemented, MsgRuleNotImplemented).WithModel(modelID)
}

// WithModel attaches a model ID to the error.
func (e *Error) WithModel(modelID string) *Error {
	e.ModelID = modelID
	return e
}

// WithCause attaches an underlying cause.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
