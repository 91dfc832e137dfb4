package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")

	// ErrExternal indicates a failure reported by an external API
	ErrExternal = errors.New("external service error")
)

// Pipeline errors

var (
	// ErrOracleUnavailable indicates the text-generation oracle could not be reached
	// (retries exhausted or a non-retryable provider error)
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrRateLimitExceeded indicates the provider signalled rate limiting
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrParseFailure indicates no valid JSON could be recovered from oracle output
	ErrParseFailure = errors.New("oracle output parse failure")

	// ErrNoDataFound indicates data resolution returned zero statement records
	ErrNoDataFound = errors.New("no financial data found")

	// ErrStepFailure indicates a single plan step failed
	ErrStepFailure = errors.New("plan step failed")

	// ErrPlanInvalid indicates the compiled plan lacked a steps array
	ErrPlanInvalid = errors.New("plan invalid")
)

// ParseFailure carries the raw oracle text that could not be turned into JSON.
type ParseFailure struct {
	Stage  string
	Reason string
	Raw    string
}

// Error implements the error interface
func (e *ParseFailure) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", ErrParseFailure.Error(), e.Stage, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrParseFailure.Error(), e.Reason)
}

// Unwrap returns ErrParseFailure so callers can use Is
func (e *ParseFailure) Unwrap() error {
	return ErrParseFailure
}

// NewParseFailure creates a parse failure for the given stage
func NewParseFailure(stage, reason, raw string) *ParseFailure {
	return &ParseFailure{Stage: stage, Reason: reason, Raw: raw}
}

// WithStage returns a copy of the parse failure tagged with a stage name.
func (e *ParseFailure) WithStage(stage string) *ParseFailure {
	cp := *e
	cp.Stage = stage
	return &cp
}

// StepError describes a failed plan step
type StepError struct {
	Agent     string
	OutputKey string
	Err       error
}

// Error implements the error interface
func (e *StepError) Error() string {
	return fmt.Sprintf("step %s (%s) failed: %v", e.Agent, e.OutputKey, e.Err)
}

// Is reports ErrStepFailure so callers can match the taxonomy
func (e *StepError) Is(target error) bool {
	return target == ErrStepFailure
}

// Unwrap returns the underlying agent error
func (e *StepError) Unwrap() error {
	return e.Err
}

// DomainError wraps an error with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets validation errors match ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
