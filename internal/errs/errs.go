// Package errs defines run-level failure categories and their exit codes.
package errs

import (
	"errors"
	"fmt"
	"strconv"
)

// ExitCode is the process exit status reported for a failure category.
type ExitCode int

// Exit codes are stable; callers script against the numbers.
const (
	ExitOK              ExitCode = 0
	ExitGeneric         ExitCode = 1
	ExitMalformedInput  ExitCode = 2
	ExitNamingViolation ExitCode = 3
	ExitAliasCycle      ExitCode = 4
	ExitWarnings        ExitCode = 5
	ExitEmptyOutput     ExitCode = 6
	ExitDeliveryFailed  ExitCode = 7
)

var (
	ErrMalformedInput  = errors.New("malformed input")
	ErrMissingName     = errors.New("missing metric name")
	ErrMissingValue    = errors.New("missing required value")
	ErrNonNumericValue = errors.New("non-numeric value")
	ErrTypeConflict    = errors.New("type conflict")
	ErrNamingViolation = errors.New("naming policy violation")
	ErrWarnings        = errors.New("warnings present")
	ErrEmptyOutput     = errors.New("transform produced no samples")
	ErrInvalidKey      = errors.New("invalid signing key")
)

// Fatal marks an error as run-aborting and attaches its exit category.
type Fatal struct {
	Code ExitCode
	Err  error
}

func (f *Fatal) Error() string { return f.Err.Error() }
func (f *Fatal) Unwrap() error { return f.Err }

// NewFatal wraps err with the given exit code.
func NewFatal(code ExitCode, err error) *Fatal {
	return &Fatal{Code: code, Err: err}
}

// AliasCycleError reports a self-alias or a mutual alias pair.
type AliasCycleError struct {
	From string
	To   string
}

func (e *AliasCycleError) Error() string {
	if e.From == e.To {
		return fmt.Sprintf("alias cycle: %q aliases itself", e.From)
	}
	return fmt.Sprintf("alias cycle: %q and %q alias each other", e.From, e.To)
}

// DeliveryError is returned when every delivery attempt failed.
// LastStatus is zero when no response was ever received.
type DeliveryError struct {
	Attempts   int
	LastStatus int
	Err        error
}

func (e *DeliveryError) Error() string {
	status := "none"
	if e.LastStatus != 0 {
		status = strconv.Itoa(e.LastStatus)
	}
	return fmt.Sprintf("delivery failed after %d attempts (last status: %s)", e.Attempts, status)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// CodeOf maps err to the exit code the process should report.
func CodeOf(err error) ExitCode {
	if err == nil {
		return ExitOK
	}
	var cycle *AliasCycleError
	if errors.As(err, &cycle) {
		return ExitAliasCycle
	}
	var delivery *DeliveryError
	if errors.As(err, &delivery) {
		return ExitDeliveryFailed
	}
	var fatal *Fatal
	if errors.As(err, &fatal) {
		return fatal.Code
	}
	return ExitGeneric
}
