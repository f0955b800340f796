package services

import (
	"errors"
	"fmt"
)

// Error categories. Every typed error below matches exactly one of these
// through errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrProcess    = errors.New("process failure")
)

// InvalidKindError indicates an unknown service tag
type InvalidKindError struct {
	Tag string
}

func (e InvalidKindError) Error() string {
	return fmt.Sprintf("invalid service tag %q (expected %q or %q)", e.Tag, TagSystem, TagCompose)
}

func (e InvalidKindError) Is(target error) bool { return target == ErrValidation }

// InvalidOperationError indicates an operation code other than stop/restart
type InvalidOperationError struct {
	Op    Operation
	Input string
}

func (e InvalidOperationError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("invalid operation %q (expected 0/stop or 1/restart)", e.Input)
	}
	return fmt.Sprintf("invalid operation code %d (expected 0 or 1)", int(e.Op))
}

func (e InvalidOperationError) Is(target error) bool { return target == ErrValidation }

// EmptyNameError indicates a registration without a usable name
type EmptyNameError struct{}

func (e EmptyNameError) Error() string {
	return "service name must not be empty"
}

func (e EmptyNameError) Is(target error) bool { return target == ErrValidation }

// MissingLocationError indicates a compose service without a path
type MissingLocationError struct {
	Name string
}

func (e MissingLocationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("compose service %s requires a path", e.Name)
	}
	return "compose service requires a path"
}

func (e MissingLocationError) ServiceName() string { return e.Name }

func (e MissingLocationError) Is(target error) bool { return target == ErrValidation }

// PathNotFoundError indicates the configured location does not exist
type PathNotFoundError struct {
	Path string
}

func (e PathNotFoundError) Error() string {
	return fmt.Sprintf("invalid service path: %s does not exist", e.Path)
}

func (e PathNotFoundError) Is(target error) bool { return target == ErrValidation }

// NotADirectoryError indicates the configured location is a regular file
type NotADirectoryError struct {
	Path string
}

func (e NotADirectoryError) Error() string {
	return fmt.Sprintf("invalid service path: %s is not a directory", e.Path)
}

func (e NotADirectoryError) Is(target error) bool { return target == ErrValidation }

// UnsupportedPlatformError indicates the host has no service-control tool
type UnsupportedPlatformError struct {
	Kind Kind
	OS   string
}

func (e UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("%s services are not supported on %s", e.Kind, e.OS)
}

func (e UnsupportedPlatformError) Is(target error) bool { return target == ErrValidation }

// ServiceNotFoundError indicates no registered service matched a name
type ServiceNotFoundError struct {
	Name string
}

func (e ServiceNotFoundError) Error() string {
	return fmt.Sprintf("service not found: %s", e.Name)
}

func (e ServiceNotFoundError) ServiceName() string { return e.Name }

func (e ServiceNotFoundError) Is(target error) bool { return target == ErrNotFound }

// IndexOutOfRangeError indicates a positional lookup outside the current list
type IndexOutOfRangeError struct {
	Index  int
	Length int
}

func (e IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("invalid index %d (have %d services)", e.Index, e.Length)
}

func (e IndexOutOfRangeError) Is(target error) bool { return target == ErrNotFound }

// ProcessError indicates an external command failed
type ProcessError struct {
	Name     string
	Command  Command
	ExitCode int
	Cause    error
}

func (e ProcessError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("%s failed with exit status %d: %v", e.Command, e.ExitCode, e.Cause)
	}
	return fmt.Sprintf("%s failed: %v", e.Command, e.Cause)
}

func (e ProcessError) ServiceName() string { return e.Name }

func (e ProcessError) Unwrap() error { return e.Cause }

func (e ProcessError) Is(target error) bool { return target == ErrProcess }

// NewProcessError wraps the error from running c, or returns nil.
func NewProcessError(name string, c Command, err error) error {
	if err == nil {
		return nil
	}
	return ProcessError{Name: name, Command: c, ExitCode: exitCode(err), Cause: err}
}
