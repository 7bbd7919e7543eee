package extapi

import (
	"errors"
	"fmt"
)

// Load failures. A LoadError always wraps one of these.
var (
	// ErrEngineNotFound indicates the engine binary could not be located.
	ErrEngineNotFound = errors.New("engine binary not found")
	// ErrEngineFailed indicates the engine binary ran but did not produce a description.
	ErrEngineFailed = errors.New("engine binary failed")
	// ErrMalformed indicates the description is not well-formed structured data.
	ErrMalformed = errors.New("malformed API description")
	// ErrMissingSection indicates a required top-level section is absent.
	ErrMissingSection = errors.New("missing required section")
)

// Model consistency failures. A ModelError always wraps one of these.
var (
	// ErrCyclicInheritance indicates a class is its own ancestor.
	ErrCyclicInheritance = errors.New("cyclic inheritance")
	// ErrUnresolvedType indicates a type name that matches nothing in the description.
	ErrUnresolvedType = errors.New("unresolved type reference")
	// ErrMissingLayout indicates the size table lacks the targeted build configuration.
	ErrMissingLayout = errors.New("missing builtin layout")
	// ErrInvalidMethod indicates a method definition breaks a structural rule.
	ErrInvalidMethod = errors.New("invalid method definition")
)

// LoadError reports a failure to obtain or parse the API description.
type LoadError struct {
	Source string // file path or engine binary the description came from
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ModelError reports an API description that parsed but is not internally consistent.
type ModelError struct {
	Name   string // offending class, method or type name
	Detail string
	Err    error
}

func (e *ModelError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("model: %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("model: %s: %v (%s)", e.Name, e.Err, e.Detail)
}

func (e *ModelError) Unwrap() error { return e.Err }

func loadErr(source string, err error, format string, args ...any) *LoadError {
	return &LoadError{Source: source, Err: fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))}
}
