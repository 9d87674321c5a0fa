// Package errors provides custom error types for the laprelay system.
// These errors let the gateway decide what a client gets to see (validation
// messages are forwarded, setup failures are not) and let callers check the
// error kind with errors.Is instead of string matching.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the laprelay system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSetupFailed indicates that a tracking session could not acquire its resources
	ErrSetupFailed = errors.New("setup failed")

	// ErrFeedParse indicates that one feed payload could not be decoded
	ErrFeedParse = errors.New("feed payload malformed")

	// ErrTeardown indicates that releasing a session resource failed
	ErrTeardown = errors.New("teardown failed")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure.
// Its Message is safe to show to the client that sent the invalid input.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
// A broken configuration is reported to clients the same way as bad input.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// SetupError represents a failure to acquire a session resource
// (feed subscription, upstream connection).
type SetupError struct {
	Resource string // "feed", "subscription"
	Message  string
	Err      error
}

// Error implements the error interface
func (e *SetupError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("setup of %s failed: %s", e.Resource, e.Message)
	}
	return fmt.Sprintf("setup of %s failed: %v", e.Resource, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SetupError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SetupError) Is(target error) bool {
	return target == ErrSetupFailed
}

// NewSetupError creates a new SetupError
func NewSetupError(resource string, err error) *SetupError {
	return &SetupError{Resource: resource, Err: err}
}

// FeedParseError represents one feed payload that could not be decoded.
// It never terminates the subscription that produced it.
type FeedParseError struct {
	Payload string
	Err     error
}

// Error implements the error interface
func (e *FeedParseError) Error() string {
	return fmt.Sprintf("feed parse error (%d bytes): %v", len(e.Payload), e.Err)
}

// Unwrap implements errors.Unwrap
func (e *FeedParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FeedParseError) Is(target error) bool {
	return target == ErrFeedParse
}

// NewFeedParseError creates a new FeedParseError
func NewFeedParseError(payload []byte, err error) *FeedParseError {
	return &FeedParseError{Payload: string(payload), Err: err}
}

// TeardownError represents a failure while releasing a session resource
type TeardownError struct {
	Resource string
	ID       string
	Err      error
}

// Error implements the error interface
func (e *TeardownError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("teardown of %s %s failed: %v", e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("teardown of %s failed: %v", e.Resource, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TeardownError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TeardownError) Is(target error) bool {
	return target == ErrTeardown
}

// NewTeardownError creates a new TeardownError
func NewTeardownError(resource, id string, err error) *TeardownError {
	return &TeardownError{Resource: resource, ID: id, Err: err}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "dial", "close"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSetupError checks if an error is a session setup error
func IsSetupError(err error) bool {
	return errors.Is(err, ErrSetupFailed)
}

// IsFeedParseError checks if an error is a feed payload decode error
func IsFeedParseError(err error) bool {
	return errors.Is(err, ErrFeedParse)
}

// IsTeardownError checks if an error is a teardown error
func IsTeardownError(err error) bool {
	return errors.Is(err, ErrTeardown)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapSetup wraps an error as a SetupError
func WrapSetup(resource string, err error) error {
	if err == nil {
		return nil
	}
	return NewSetupError(resource, err)
}

// WrapTeardown wraps an error as a TeardownError
func WrapTeardown(resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewTeardownError(resource, id, err)
}
