package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when a completion body lacks choices[0].message.content
	ErrMalformedResponse = errors.New("malformed completion response")
	// ErrNotSignedIn is returned when the engine is mounted without a present session
	ErrNotSignedIn = errors.New("not signed in")
	// ErrAuthNotConfigured is returned when no expected credential pair is configured
	ErrAuthNotConfigured = errors.New("credentials are not configured")
	// ErrPersisterClosed is returned by Flush after the persister has been closed
	ErrPersisterClosed = errors.New("persister closed")
)

// StorageError represents errors reading or writing a storage slot
type StorageError struct {
	Key string
	Op  string // "open", "get", "put", "delete"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors decoding stored data
type ParseError struct {
	Source string // "sqlite", "file"
	Key    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CompletionError represents a failed completion request
type CompletionError struct {
	Provider   string
	StatusCode int // 0 when the request never produced a response
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion error [%s] status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion error [%s]: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// AuthError is a sign-in failure whose Reason is safe to show to the user
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return e.Reason
}
