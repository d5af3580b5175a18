// Package errors provides centralized error definitions and error handling utilities
// for slotsig. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - SignalError: misuse of a signal (for example emitting after Close)
//   - HandlerError: a handler panicked during emission
//   - ScenarioError: a scripted scenario failed to load or run
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewSignalError("emit after close", errors.ErrSignalClosed)
//
//	// Semantic error
//	err := errors.NewNotFoundError("scenario", "reentrant")
//
//	// With context
//	err := errors.NewScenarioError("expectation failed", errors.ErrTraceMismatch).WithScenario("order")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrHandlerPanic) { ... }
//
//	var handlerErr *errors.HandlerError
//	if errors.As(err, &handlerErr) { ... }
//
//	fmt.Fprintln(os.Stderr, errors.UserMessage(err))
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Signal-related sentinel errors
var (
	// ErrSignalClosed indicates that the signal was closed.
	ErrSignalClosed = New("signal closed")
	// ErrHandlerPanic indicates that a handler panicked during emission.
	ErrHandlerPanic = New("handler panicked")
)

// Scenario-related sentinel errors
var (
	// ErrScenarioInvalid indicates that a scenario document is malformed.
	ErrScenarioInvalid = New("scenario is invalid")
	// ErrUnknownHandler indicates that a scenario references an undefined handler.
	ErrUnknownHandler = New("unknown handler")
	// ErrUnknownAction indicates that a scenario uses an unsupported action.
	ErrUnknownAction = New("unknown action")
	// ErrTraceMismatch indicates that a scenario trace differs from its expectation.
	ErrTraceMismatch = New("trace does not match expectation")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// SlotsigError is the base interface for all slotsig errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type SlotsigError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// formatPrefixed renders "<kind> [k=v, ...]: message: cause".
func formatPrefixed(kind string, parts []string, message string, cause error) string {
	prefix := kind
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SignalError represents misuse of a signal.
//
// Example:
//
//	err := errors.NewSignalError("emit rejected", errors.ErrSignalClosed).WithSignal("config")
//	fmt.Println(err) // "signal error [signal=config]: emit rejected: signal closed"
type SignalError struct {
	baseError
	Signal string
}

// NewSignalError creates a new SignalError.
func NewSignalError(message string, cause error) *SignalError {
	return &SignalError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithSignal adds the signal name to the error context.
func (e *SignalError) WithSignal(name string) *SignalError {
	e.Signal = name
	return e
}

// Error returns the formatted error message.
func (e *SignalError) Error() string {
	var parts []string
	if e.Signal != "" {
		parts = append(parts, fmt.Sprintf("signal=%s", e.Signal))
	}
	return formatPrefixed("signal error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *SignalError) Is(target error) bool {
	if _, ok := target.(*SignalError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// HandlerError represents a handler that panicked while a signal was
// emitting. Value holds what was passed to panic and Stack the goroutine
// stack captured at recovery.
//
// Example:
//
//	err := errors.NewHandlerError("boom").WithSignal("tick")
//	errors.Is(err, errors.ErrHandlerPanic) // true
type HandlerError struct {
	baseError
	Signal string
	Value  any
	Stack  []byte
}

// NewHandlerError creates a HandlerError for a recovered panic value.
// If the value is itself an error it is kept in the chain.
func NewHandlerError(value any) *HandlerError {
	cause := ErrHandlerPanic
	if err, ok := value.(error); ok {
		cause = Join(ErrHandlerPanic, err)
	}
	return &HandlerError{
		baseError: baseError{
			message:    fmt.Sprintf("handler panicked: %v", value),
			cause:      cause,
			severity:   SeverityError,
			userFacing: false,
		},
		Value: value,
	}
}

// WithSignal adds the signal name to the error context.
func (e *HandlerError) WithSignal(name string) *HandlerError {
	e.Signal = name
	return e
}

// WithStack attaches a captured stack trace.
func (e *HandlerError) WithStack(stack []byte) *HandlerError {
	e.Stack = stack
	return e
}

// Error returns the formatted error message.
func (e *HandlerError) Error() string {
	var parts []string
	if e.Signal != "" {
		parts = append(parts, fmt.Sprintf("signal=%s", e.Signal))
	}
	return formatPrefixed("handler error", parts, e.message, nil)
}

// Is checks if this error matches the target.
func (e *HandlerError) Is(target error) bool {
	if _, ok := target.(*HandlerError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ScenarioError represents errors loading or running a scripted scenario.
//
// Example:
//
//	err := errors.NewScenarioError("bad step", errors.ErrUnknownAction).WithScenario("order").WithStep(2)
type ScenarioError struct {
	baseError
	Scenario string
	Step     int
	Handler  string
}

// NewScenarioError creates a new ScenarioError.
func NewScenarioError(message string, cause error) *ScenarioError {
	return &ScenarioError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Step: -1, // -1 indicates not set
	}
}

// WithScenario adds the scenario name to the error context.
func (e *ScenarioError) WithScenario(name string) *ScenarioError {
	e.Scenario = name
	return e
}

// WithStep adds the step index to the error context.
func (e *ScenarioError) WithStep(idx int) *ScenarioError {
	e.Step = idx
	return e
}

// WithHandler adds the handler name to the error context.
func (e *ScenarioError) WithHandler(name string) *ScenarioError {
	e.Handler = name
	return e
}

// WithSeverity sets the error severity.
func (e *ScenarioError) WithSeverity(s Severity) *ScenarioError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *ScenarioError) Error() string {
	var parts []string
	if e.Scenario != "" {
		parts = append(parts, fmt.Sprintf("scenario=%s", e.Scenario))
	}
	if e.Step >= 0 {
		parts = append(parts, fmt.Sprintf("step=%d", e.Step))
	}
	if e.Handler != "" {
		parts = append(parts, fmt.Sprintf("handler=%s", e.Handler))
	}
	return formatPrefixed("scenario error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ScenarioError) Is(target error) bool {
	if _, ok := target.(*ScenarioError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("scenario", "missing")
//	fmt.Println(err) // "scenario 'missing' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause records why the resource could not be found.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("handler", "h1")
//	fmt.Println(err) // "handler 'h1' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	return e.message
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("handler name cannot be empty")
//	err = err.WithField("handlers[0].name").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return formatPrefixed("validation error", parts, e.message, e.cause)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    fmt.Fprintln(os.Stderr, err)
//	} else {
//	    fmt.Fprintln(os.Stderr, "internal error")
//	    logger.Error("internal error", "err", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var sErr SlotsigError
	if As(err, &sErr) {
		return sErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement SlotsigError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var sErr SlotsigError
	if As(err, &sErr) {
		return sErr.Severity()
	}

	// Default to Error severity for unknown errors
	return SeverityError
}

// UserMessage returns a message suitable for printing on a terminal. An
// error carrying a slotsig error that is not user facing, such as a
// recovered handler panic, is replaced by a generic message. Errors from
// outside this package are returned unchanged.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var sErr SlotsigError
	if As(err, &sErr) && !IsUserFacing(err) {
		return "internal error (see 'sigtrace logs' for details)"
	}
	return err.Error()
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to load scenario")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
