package fcheck

import (
	"errors"
	"fmt"
)

// Configuration errors
var (
	ErrUndefinedCapture  = errors.New("undefined capture")
	ErrUndefinedConstant = errors.New("undefined constant")
	ErrDuplicateCapture  = errors.New("capture declared twice")
	ErrCaptureReuse      = errors.New("capture declared and used in the same directive")
	ErrBadRegexp         = errors.New("invalid regular expression")
)

// Matching errors
var (
	ErrPatternNotFound = errors.New("pattern not found")
	ErrUnexpectedMatch = errors.New("unexpected match")
)

// ConfigError is a problem with the directives or the constants rather than
// with the checked output.
type ConfigError struct {
	Name string
	// Defined lists the names that were defined when Name was not
	Defined []string
	err     error
}

func (e ConfigError) Error() string {
	if e.Name == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%s '%s'", e.err, e.Name)
}

func (e ConfigError) Unwrap() error { return e.err }

// DirectiveError reports the directive that terminated a run.
type DirectiveError struct {
	Source    string
	Directive *Directive
	// Expr is the compiled regular expression, if compilation got that far
	Expr string
	err  error
}

func (e DirectiveError) Error() string {
	return fmt.Sprintf("%s:%d:%s: %s", e.Source, e.Directive.Line, e.Directive.Kind, e.err)
}

func (e DirectiveError) Unwrap() error { return e.err }

// Verb returns how a test report describes the failure.
func (e DirectiveError) Verb() string {
	switch {
	case errors.Is(e.err, ErrUnexpectedMatch):
		return "Found"
	case errors.Is(e.err, ErrPatternNotFound):
		return "Failed to find"
	}
	return "Invalid"
}

// IsConfig reports whether err is caused by a configuration problem.
func IsConfig(err error) bool {
	var cerr ConfigError
	return errors.As(err, &cerr)
}
