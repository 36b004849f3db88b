package main

import (
	"errors"
	"fmt"
)

// Exit codes.
const (
	exitFailure      = 1 // runtime failure (server unreachable, load failed)
	exitCommandError = 2 // bad config, flags or local state
)

// exitError carries the process exit code for a command error.
type exitError struct {
	Code    int
	Message string
	Err     error
}

func (e *exitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *exitError) Unwrap() error {
	return e.Err
}

func wrapExitError(code int, message string, err error) *exitError {
	return &exitError{Code: code, Message: message, Err: err}
}

// exitCode extracts the exit code from err, defaulting to exitFailure.
func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitFailure
}
