package pipeline

import (
	"errors"
	"fmt"

	"github.com/aotc-build/aotc/internal/diag"
)

// ErrCancelled marks a build stopped by a cancellation request. It is a
// distinct outcome from failure: nothing went wrong, the caller asked to stop
// before the external process was spawned.
var ErrCancelled = errors.New("build cancelled")

// ConfigError reports invalid or contradictory configuration. Always raised
// before any process spawn.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ProcessError reports a nonzero exit from an external tool, carrying the
// diagnostics captured while it ran.
type ProcessError struct {
	Tool        string
	ExitCode    int
	Diagnostics []diag.Diagnostic
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

// StripError reports a failure from the stripping collaborator; stripping
// failures are fatal to the build.
type StripError struct {
	Dir string
	Err error
}

func (e *StripError) Error() string {
	return fmt.Sprintf("failed to strip managed assemblies in %s: %v", e.Dir, e.Err)
}

func (e *StripError) Unwrap() error { return e.Err }
