package models

import (
	"errors"
)

// Error kinds. Every engine error wraps exactly one of these.
var (
	// ErrInvalidInput means a root is missing or is not a directory
	ErrInvalidInput = errors.New("invalid input")
	// ErrPathNotFound means the walker could not find its root
	ErrPathNotFound = errors.New("path not found")
	// ErrAccess means permission was denied while reading a tree
	ErrAccess = errors.New("access denied")
	// ErrIO is a per-entry read or write failure
	ErrIO = errors.New("i/o error")
	// ErrRunInProgress is returned when a second run is started on a busy runner
	ErrRunInProgress = errors.New("a synchronization run is already in progress")
)

// OpError is an engine error carrying its kind, the failing operation and path
type OpError struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg + ": " + e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewOpError builds an OpError of the given kind
func NewOpError(kind error, op, path string, err error) *OpError {
	return &OpError{Kind: kind, Op: op, Path: path, Err: err}
}

// IOError wraps a per-entry filesystem failure
func IOError(op, path string, err error) *OpError {
	return NewOpError(ErrIO, op, path, err)
}
