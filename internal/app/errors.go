package app

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange = errors.New("party index out of range")
	ErrPartyNotFound   = errors.New("party not found")
	ErrNotFound        = errors.New("key not found")
)

// NetworkError reports a failed transport or a non-success response status
type NetworkError struct {
	Source     string
	StatusCode int
	Status     string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("fetch %s: network response was not ok: %s", e.Source, e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a remote document that cannot be decoded
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports rejected user input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
