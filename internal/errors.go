package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoActiveSession is returned by operations that need a session file
	ErrNoActiveSession = errors.New("no active session: start or load a session first")

	// ErrSessionNotFound is returned when a session file does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrIncompleteResponse is returned when a stream ends without a terminal event
	ErrIncompleteResponse = errors.New("response stream ended before completion")
)

// ValidationError reports a rejected input value
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// StorageError represents errors accessing session files
type StorageError struct {
	Path string
	Op   string // "read", "write", "mkdir", "list", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents a session file that is not a valid document
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// BackendError wraps failures of the inference service
type BackendError struct {
	Model string
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error [%s]: %v", e.Model, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IndexError represents failures of the history index
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index error: %s: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}
