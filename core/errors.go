package core

import (
	"errors"
	"fmt"
)

// ConfigError reports an out-of-range or inconsistent parameter. It is
// surfaced at validation time, before any simulation work begins, and is
// fatal for the run.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CoverageError reports that the spot population could not reach the target
// fill factor without violating the never-above-1 guarantee. Unless strict
// mode is requested it is a warning: the run proceeds with the achieved
// coverage.
type CoverageError struct {
	Target   float64
	Achieved float64
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("coverage: achieved fill factor %.6g of target %.6g", e.Achieved, e.Target)
}

// ErrDegenerateSample marks a sample with zero total visible flux. The
// simulation continues for other samples; the record carries Valid=false.
var ErrDegenerateSample = errors.New("degenerate sample: zero visible flux")
