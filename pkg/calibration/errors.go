package calibration

import (
	"errors"
	"fmt"

	"github.com/charlie0129/vnacal/pkg/standard"
)

var (
	// ErrNotRun is returned when results are published before a successful Run.
	ErrNotRun = errors.New("calibration has not been run")

	// ErrUnmappedKey marks a result key that names no error term.
	ErrUnmappedKey = errors.New("result key does not name an error term")
)

// UnknownMethodError is returned when a description selects a method that is
// not registered.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unsupported calibration method %q", e.Method)
}

// ValidationError reports a missing required file, or a standard set the
// method cannot work with.
type ValidationError struct {
	Kind standard.Kind
	Side Side
	// Msg replaces the default message for structural problems.
	Msg string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("%s %s SNP file not exist", e.Kind, e.Side)
}

// AlgorithmError wraps a failure while loading standards or solving.
type AlgorithmError struct {
	Method string
	Err    error
}

func (e *AlgorithmError) Error() string {
	return fmt.Sprintf("%s calibration failed: %v", e.Method, e.Err)
}

func (e *AlgorithmError) Unwrap() error { return e.Err }

// PublishWarning reports one result that could not be published. It never
// aborts the remaining writes.
type PublishWarning struct {
	Key  string
	Path string
	Err  error
}

func (w *PublishWarning) Error() string {
	if w.Path == "" {
		return fmt.Sprintf("result %q: %v", w.Key, w.Err)
	}
	return fmt.Sprintf("result %q to %s: %v", w.Key, w.Path, w.Err)
}

func (w *PublishWarning) Unwrap() error { return w.Err }
