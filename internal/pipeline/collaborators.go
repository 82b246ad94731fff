package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/aotc-build/aotc/internal/config"
	"github.com/aotc-build/aotc/internal/msg"
)

// StripOptions carries what the stripping collaborator needs beyond the
// managed directory itself.
type StripOptions struct {
	LinkerTool    string
	Platform      string
	ClassRegistry []string // extra types the stripper must preserve
	Level         config.StripLevel
}

// Stripper removes unused managed code and metadata prior to conversion.
type Stripper interface {
	Strip(managedDir string, opts StripOptions) error
}

// BuildContext is what a native-code builder sees when asked for its
// compiler/linker arguments.
type BuildContext struct {
	CacheDir       string
	NativeDir      string
	CppOutputDir   string
	AdditionalDir  string
	TargetPlatform string
	TargetArch     string
	Development    bool
}

// NativeBuilder is the optional compile+link collaborator. Platforms that
// ship the generated source directly never supply one.
type NativeBuilder interface {
	// PrepareArguments assembles the compiler/linker argument list.
	PrepareArguments(bc BuildContext) ([]string, error)

	// SetupProcess points the spec at the right executable and adjusts its
	// environment.
	SetupProcess(spec *ProcessSpec) error
}

// ExtraTypesProvider yields additional managed types to preserve through
// stripping and conversion. May be nil.
type ExtraTypesProvider func() []string

// CommandStripper shells out to a configured IL linker tool. The tool is
// expected to rewrite the assemblies in place.
type CommandStripper struct {
	Tool     string
	Launcher Launcher
}

func (s CommandStripper) Strip(managedDir string, opts StripOptions) error {
	a := []string{
		"--directory=" + managedDir,
		"--level=" + string(opts.Level),
		"--platform=" + opts.Platform,
	}
	for _, typeName := range opts.ClassRegistry {
		a = append(a, "--preserve="+typeName)
	}
	return s.Launcher.Launch(context.Background(), ProcessSpec{
		Exe:    s.Tool,
		Args:   a,
		Dir:    managedDir,
		Stdout: &msg.IndentWriter{Indent: "    ", W: os.Stdout},
		Stderr: &msg.IndentWriter{Indent: "    ", W: os.Stderr},
	})
}

// NopStripper is used when no linker tool is configured. The converter still
// requires stripped input, so the assemblies must already be minimal; a note
// is logged so silent misconfiguration doesn't masquerade as success.
type NopStripper struct{}

func (NopStripper) Strip(managedDir string, opts StripOptions) error {
	msg.Warn("no linker tool configured, assuming %s is already stripped", managedDir)
	return nil
}

// writeExtraTypesFile persists the provider's type list to a scratch file the
// converter can consume. Returns "" when there is nothing to preserve.
func writeExtraTypesFile(path string, types []string) (string, error) {
	if len(types) == 0 {
		return "", nil
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create extra types file %s: %w", path, err)
	}
	defer f.Close()
	for _, typeName := range types {
		if _, err := fmt.Fprintln(f, typeName); err != nil {
			return "", fmt.Errorf("failed to write extra types file %s: %w", path, err)
		}
	}
	return path, f.Close()
}
