package entities

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by hosts and the engine. Callers check them with errors.Is.
var (
	ErrNotFound        = baseError("not found")
	ErrAlreadyExists   = baseError("already exists")
	ErrConflict        = baseError("conflict")
	ErrIsDirectory     = baseError("path is a directory")
	ErrNoCommits       = baseError("no commits between branches")
	ErrAmbiguousTarget = baseError("ambiguous target")
	ErrInvalidConfig   = baseError("invalid configuration")
)

type baseError string

func (e baseError) Error() string { return string(e) }

// HostAPIError carries the status detail of a failed call to a repository host.
type HostAPIError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *HostAPIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *HostAPIError) Unwrap() error { return e.Err }

// ConfigError reports a missing or invalid piece of user input.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %s: %s", e.Field, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps ErrInvalidConfig with the offending field.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{
		Field: field,
		Err:   fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)),
	}
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is or wraps ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsAlreadyExists reports whether err is or wraps ErrAlreadyExists.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
