package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/aotc-build/aotc/internal/msg"
)

// ProcessSpec describes one external tool invocation.
type ProcessSpec struct {
	Exe    string
	Args   []string
	Dir    string   // working directory, normally the build cache directory
	Env    []string // extra KEY=VALUE entries appended to the inherited environment
	Stdout io.Writer
	Stderr io.Writer
}

// Launcher spawns external processes. Abstracted so tests can verify that
// cancellation prevents a spawn without ever running anything.
type Launcher interface {
	Launch(ctx context.Context, spec ProcessSpec) error
}

// ExecLauncher runs processes with os/exec. A nonzero exit surfaces as a
// *ProcessError; spawn problems surface as-is.
type ExecLauncher struct{}

func (ExecLauncher) Launch(ctx context.Context, spec ProcessSpec) error {
	msg.Step("Running", "%s %s", spec.Exe, strings.Join(spec.Args, " "))

	cmd := exec.CommandContext(ctx, spec.Exe, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ProcessError{Tool: spec.Exe, ExitCode: exitErr.ExitCode()}
	}
	return err
}
