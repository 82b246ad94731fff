// Package pipeline orchestrates a single AOT build: stripping managed input,
// invoking the external bytecode-to-C++ converter, optionally compiling and
// linking the result, and staging artifacts for the downstream packager.
//
// A build runs the phases Init → Strip → Prepare → Generate → Compile+Link →
// Stage. Any failure aborts the remaining phases. Cancellation is cooperative
// and polled at phase boundaries only: once an external process is spawned it
// runs to completion.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aotc-build/aotc/internal/args"
	"github.com/aotc-build/aotc/internal/cache"
	"github.com/aotc-build/aotc/internal/config"
	"github.com/aotc-build/aotc/internal/diag"
	"github.com/aotc-build/aotc/internal/msg"
	"github.com/aotc-build/aotc/internal/toolchain"
)

// EnvExtraArgs holds space-separated arguments appended verbatim to the
// converter command line.
const EnvExtraArgs = "AOTC_EXTRA_ARGS"

// Invocation is one build of one target. Construct it, inject collaborators,
// call Run once. The settings snapshot is never mutated.
type Invocation struct {
	Paths     BuildPaths
	Settings  config.Settings
	Target    toolchain.Target
	Toolchain toolchain.Toolchain // nil when the target needs no sysroot arguments
	Converter string              // path to the converter executable

	Stripper   Stripper
	Native     NativeBuilder // nil when the platform ships generated source directly
	ExtraTypes ExtraTypesProvider
	Launcher   Launcher
	Sink       diag.Sink

	// PostGenerate runs after code generation succeeds, rooted at the
	// generated-source directory. Optional.
	PostGenerate func(cppOutputDir string) error

	Hasher *cache.Hasher
}

// Run drives the build state machine. The caller must serialize builds per
// build cache directory; Run only enforces the single-invocation path check.
func (b *Invocation) Run(ctx context.Context) error {
	// Init
	if err := b.Paths.Validate(); err != nil {
		return err
	}
	if b.Converter == "" {
		return &ConfigError{Reason: "converter executable not set"}
	}
	if b.Stripper == nil {
		return &ConfigError{Reason: "no stripping collaborator supplied"}
	}
	if b.Launcher == nil {
		b.Launcher = ExecLauncher{}
	}
	if b.Hasher == nil {
		b.Hasher = cache.NewHasher()
	}
	sink := &diag.Collector{Inner: b.Sink}

	// Strip
	if err := b.strip(); err != nil {
		return err
	}

	// Prepare
	if err := b.prepare(); err != nil {
		return err
	}

	// Code generation is the long phase; honor a pending cancellation before
	// spawning anything.
	if ctx.Err() != nil {
		return ErrCancelled
	}

	// Generate
	buildingArgs := args.BuildingArguments(b.Settings)
	if err := b.generate(ctx, sink, buildingArgs); err != nil {
		return err
	}

	if b.PostGenerate != nil {
		if err := b.PostGenerate(b.Paths.cppOutputDir()); err != nil {
			return fmt.Errorf("post-generate hook: %w", err)
		}
	}

	// Compile+Link
	if b.Native != nil {
		if ctx.Err() != nil {
			return ErrCancelled
		}
		if err := b.compile(ctx, sink, buildingArgs); err != nil {
			return err
		}
	}

	// Stage
	return b.stage()
}

func (b *Invocation) strip() error {
	managed := b.Paths.managedDir()
	if err := cache.ClearReadOnly(managed); err != nil {
		return err
	}

	level := b.Settings.Stripping
	if level == config.StripDisabled {
		// the converter cannot consume unstripped assemblies
		msg.Info("stripping disabled, coercing to minimal")
		level = config.StripMinimal
	}

	registry := slices.Clone(b.Settings.PreservedTypes)
	if b.ExtraTypes != nil {
		registry = append(registry, b.ExtraTypes()...)
	}

	opts := StripOptions{
		LinkerTool:    b.Settings.LinkerTool,
		Platform:      b.Target.Platform,
		ClassRegistry: registry,
		Level:         level,
	}
	if err := b.Stripper.Strip(managed, opts); err != nil {
		return &StripError{Dir: managed, Err: err}
	}
	return nil
}

func (b *Invocation) prepare() error {
	if err := cache.Ensure(b.Paths.TempFolder); err != nil {
		return err
	}
	if err := cache.Ensure(b.Paths.cppOutputDir()); err != nil {
		return err
	}
	// Platform extensions may have dropped arbitrary files here on a prior
	// run, so the directory is always recreated. Contents are hash-checked by
	// the build state, so this alone never forces a recompile.
	return cache.CreateOrClean(b.Paths.additionalDir())
}

func (b *Invocation) generate(ctx context.Context, sink *diag.Collector, buildingArgs []string) error {
	cmdArgs, err := b.generateArguments(buildingArgs)
	if err != nil {
		return err
	}

	diagPath := filepath.Join(b.Paths.cppOutputDir(), diag.ToolDataFilename)
	if err := os.Remove(diagPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale diagnostics file %s: %w", diagPath, err)
	}

	msg.Step("Generating", "%s", b.Paths.cppOutputDir())

	// The converter writes diagnostics while it runs; tail them concurrently
	// with the process so the reporting surface sees progress in real time
	// and full pipe buffers can't deadlock the child.
	tailCtx, stopTail := context.WithCancel(context.Background())
	var eg errgroup.Group
	tailer := &diag.Tailer{}
	eg.Go(func() error {
		return tailer.Tail(tailCtx, diagPath, sink)
	})

	runErr := b.Launcher.Launch(ctx, ProcessSpec{
		Exe:    b.Converter,
		Args:   cmdArgs,
		Dir:    b.Paths.BuildCacheDir,
		Stdout: &msg.IndentWriter{Indent: "    ", W: os.Stdout},
		Stderr: &msg.IndentWriter{Indent: "    ", W: os.Stderr},
	})

	stopTail()
	if err := eg.Wait(); err != nil {
		msg.Warn("diagnostics tail stopped early: %v", err)
	}

	return attachDiagnostics(runErr, sink)
}

// generateArguments assembles the full converter command line for this
// invocation.
func (b *Invocation) generateArguments(buildingArgs []string) ([]string, error) {
	cfg := b.Settings
	a := []string{"--convert-to-cpp"}

	if cfg.EmitNullChecks {
		a = append(a, "--emit-null-checks")
	}
	if cfg.EnableStacktrace {
		a = append(a, "--enable-stacktrace")
	}
	if cfg.ArrayBoundsChecks {
		a = append(a, "--enable-array-bounds-check")
	}
	if cfg.DivideByZeroChecks {
		a = append(a, "--enable-divide-by-zero-check")
	}
	if cfg.Development && cfg.DeepProfiling {
		a = append(a, "--enable-deep-profiler")
	}
	if cfg.MonoFallback {
		a = append(a, "--mono-runtime")
	}
	if cfg.Codegen == config.CodegenSize {
		a = append(a, "--generics-option=EnableFullSharing")
	}
	if cfg.CrashReporting {
		a = append(a, "--emit-source-mapping")
	}

	profileArg, err := args.ProfileArgument(cfg.Profile)
	if err != nil {
		return nil, &ConfigError{Reason: "managed profile", Err: err}
	}
	a = append(a, profileArg)

	for _, define := range args.Defines(cfg, b.Target) {
		a = append(a, "--additional-defines="+define)
	}
	a = append(a, args.DebuggerArguments(cfg)...)
	a = append(a, buildingArgs...)
	if b.Toolchain != nil {
		a = append(a, b.Toolchain.CodegenArguments()...)
	}

	if b.ExtraTypes != nil {
		scratch := filepath.Join(b.Paths.TempFolder, "extra-types-"+uuid.NewString()+".txt")
		path, err := writeExtraTypesFile(scratch, b.ExtraTypes())
		if err != nil {
			return nil, err
		}
		if path != "" {
			a = append(a, "--extra-types-file="+cache.ShortPath(path))
		}
	}

	a = append(a,
		"--directory="+cache.ShortPath(b.Paths.managedDir()),
		"--generatedcppdir="+cache.ShortPath(b.Paths.cppOutputDir()),
	)

	a = append(a, cfg.ExtraArgs...)
	if extra := os.Getenv(EnvExtraArgs); extra != "" {
		a = append(a, strings.Fields(extra)...)
	}
	return a, nil
}

func (b *Invocation) compile(ctx context.Context, sink *diag.Collector, buildingArgs []string) error {
	bc := BuildContext{
		CacheDir:       b.Paths.BuildCacheDir,
		NativeDir:      b.Paths.nativeDir(),
		CppOutputDir:   b.Paths.cppOutputDir(),
		AdditionalDir:  b.Paths.additionalDir(),
		TargetPlatform: b.Target.Platform,
		TargetArch:     b.Target.Arch,
		Development:    b.Settings.Development,
	}
	builderArgs, err := b.Native.PrepareArguments(bc)
	if err != nil {
		return err
	}
	fullArgs := appendUnique(builderArgs, buildingArgs)

	sources, err := cache.CollectSources(b.Paths.BuildCacheDir,
		"il2cppOutput/**/*.{cpp,h}", "additionalCppFiles/**/*")
	if err != nil {
		return err
	}
	current, err := cache.Snapshot(b.Hasher, b.Paths.BuildCacheDir, sources, fullArgs)
	if err != nil {
		return err
	}
	previous, err := cache.LoadState(b.Paths.BuildCacheDir)
	if err != nil {
		msg.Warn("failed to load build state: %v", err)
	}
	if previous.Matches(current) && dirHasEntries(b.Paths.nativeDir()) {
		msg.Step("Skipping", "native compilation, cache is up to date")
		return nil
	}

	if err := cache.CreateOrClean(b.Paths.nativeDir()); err != nil {
		return err
	}

	spec := ProcessSpec{
		Args:   fullArgs,
		Dir:    b.Paths.BuildCacheDir,
		Stdout: &msg.IndentWriter{Indent: "    ", W: os.Stdout},
		Stderr: &msg.IndentWriter{Indent: "    ", W: os.Stderr},
	}
	if err := b.Native.SetupProcess(&spec); err != nil {
		return err
	}

	msg.Step("Compiling", "%s", b.Paths.nativeDir())
	if err := attachDiagnostics(b.Launcher.Launch(ctx, spec), sink); err != nil {
		return err
	}

	if err := cache.SaveState(b.Paths.BuildCacheDir, current); err != nil {
		msg.Warn("failed to save build state: %v", err)
	}
	return nil
}

// stage copies the consistent post-build cache contents into the staging
// area. Both copies are idempotent: unchanged cache contents re-stage to a
// byte-identical tree.
func (b *Invocation) stage() error {
	msg.Step("Staging", "%s", b.Paths.StagingAreaData)

	if dirHasEntries(b.Paths.nativeDir()) {
		if err := cache.Ensure(b.Paths.stagedNativeDir()); err != nil {
			return err
		}
		if err := cache.CopyTree(b.Paths.nativeDir(), b.Paths.stagedNativeDir(), true); err != nil {
			return err
		}
	}

	if err := cache.CreateOrClean(b.Paths.stagedCppDir()); err != nil {
		return err
	}
	return cache.CopyTree(b.Paths.cppOutputDir(), b.Paths.stagedCppDir(), true)
}

// attachDiagnostics moves collected diagnostics onto a process failure so the
// caller gets them with the exit code.
func attachDiagnostics(runErr error, sink *diag.Collector) error {
	if runErr == nil {
		return nil
	}
	var perr *ProcessError
	if errors.As(runErr, &perr) {
		perr.Diagnostics = slices.Clone(sink.Seen)
		return perr
	}
	return runErr
}

// appendUnique appends src entries not already present in dst, deduplicating
// by value rather than position.
func appendUnique(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if !seen[s] {
			seen[s] = true
			dst = append(dst, s)
		}
	}
	return dst
}

func dirHasEntries(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}
