package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeMissingStart      = "MISSING_START"
	ErrCodeDuplicateStart    = "DUPLICATE_START"
	ErrCodeDuplicateEnd      = "DUPLICATE_END"
	ErrCodeMultipleConns     = "MULTIPLE_CONNECTIONS_NOT_ALLOWED"
	ErrCodeDuplicateConn     = "DUPLICATE_CONNECTION"
	ErrCodeDanglingReference = "DANGLING_REFERENCE"
	ErrCodeSelfReference     = "SELF_REFERENCE"
	ErrCodeCycleDetected     = "CYCLE_DETECTED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidGesture    = "INVALID_GESTURE"
	ErrCodeInvalidKind       = "INVALID_KIND"
	ErrCodeRuleExpression    = "RULE_EXPRESSION_ERROR"
	ErrCodeSchedule          = "SCHEDULE_ERROR"
	ErrCodeStore             = "STORE_ERROR"
)

// DesignError is the structured error type for all procanvas operations.
// Graph and validator errors are always returned as values, never panicked,
// so gesture-driven mutation cannot crash the interaction loop mid-drag.
type DesignError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	StepID  string         `json:"step_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *DesignError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Code, e.StepID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DesignError) Unwrap() error {
	return e.Cause
}

// NewError creates a new DesignError.
func NewError(code, message string) *DesignError {
	return &DesignError{Code: code, Message: message}
}

// NewErrorf creates a new DesignError with a formatted message.
func NewErrorf(code, format string, args ...any) *DesignError {
	return &DesignError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithStep attaches a step ID to the error.
func (e *DesignError) WithStep(stepID string) *DesignError {
	e.StepID = stepID
	return e
}

// WithCause attaches an underlying cause.
func (e *DesignError) WithCause(err error) *DesignError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *DesignError) WithDetails(details map[string]any) *DesignError {
	e.Details = details
	return e
}
