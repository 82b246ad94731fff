// Package args computes the preprocessor defines and command-line arguments
// for a native code generation run. Everything here is a pure function of the
// build settings and the target: no side effects, no process I/O, so two
// calls with equal inputs produce byte-identical sequences.
//
// Coupling invariant: any conditional flag that changes the ABI of generated
// code must appear in BOTH Defines and BuildingArguments (write barriers and
// incremental GC below are the template). Adding one side without the other
// produces binaries that disagree with their generated headers.
package args

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aotc-build/aotc/internal/config"
	"github.com/aotc-build/aotc/internal/toolchain"
)

// ErrUnsupportedProfile reports a profile outside the fixed mapping table.
// This is a fatal configuration error, never a silent default.
var ErrUnsupportedProfile = errors.New("unsupported managed profile")

// Base defines active for every build.
var baseDefines = []string{
	"AOT",
	"ENABLE_IL2CPP",
	"RUNTIME_IL2CPP",
}

// Superset added for the modern API profile.
var modernDefines = []string{
	"NET_4_6",
	"NET_STANDARD_2_0",
}

// Targets that get the Windows define block.
var windowsFamilyTargets = map[string]bool{
	"windows": true,
	"winrt":   true,
}

// Profiles under which the managed debugger may be attached.
var debuggerProfiles = map[config.Profile]bool{
	config.ProfileModern: true,
}

// Profiles under which incremental GC time slicing is honored.
var incrementalGCProfiles = map[config.Profile]bool{
	config.ProfileModern: true,
}

// Fixed profile -> converter argument table.
var profileArguments = map[config.Profile]string{
	config.ProfileLegacy: "--dotnetprofile=net20",
	config.ProfileModern: "--dotnetprofile=net46",
}

const incrementalGCTimeSlice = 3

func debuggerEnabled(cfg config.Settings) bool {
	return cfg.AllowDebugging && cfg.Development && debuggerProfiles[cfg.Profile]
}

func incrementalGCEnabled(cfg config.Settings) bool {
	return cfg.IncrementalGC && incrementalGCProfiles[cfg.Profile]
}

// Defines returns the ordered preprocessor define list for a build.
func Defines(cfg config.Settings, tgt toolchain.Target) []string {
	defines := slices.Clone(baseDefines)

	if cfg.Profile == config.ProfileModern {
		defines = append(defines, modernDefines...)
	}

	if windowsFamilyTargets[tgt.Platform] {
		defines = append(defines, "WIN32", "WINDOWS", "_UNICODE", "UNICODE")
		if tgt.Platform == "winrt" {
			if cfg.AppContainer {
				defines = append(defines, "WINAPI_FAMILY=WINAPI_FAMILY_APP")
			} else {
				defines = append(defines, "WINAPI_FAMILY=WINAPI_FAMILY_DESKTOP_APP")
			}
		}
	}

	if debuggerEnabled(cfg) {
		defines = append(defines, "IL2CPP_MONO_DEBUGGER")
	}

	validation := cfg.WriteBarrierValidation
	slicing := incrementalGCEnabled(cfg)
	if validation {
		defines = append(defines, "IL2CPP_ENABLE_WRITE_BARRIER_VALIDATION")
	}
	if validation || slicing {
		slice := 0
		if slicing {
			slice = incrementalGCTimeSlice
		}
		defines = append(defines,
			"IL2CPP_ENABLE_WRITE_BARRIERS",
			fmt.Sprintf("IL2CPP_INCREMENTAL_TIME_SLICE=%d", slice),
		)
	}

	return defines
}

// BuildingArguments returns the ordered converter arguments shared by the
// Generate and Compile+Link phases.
func BuildingArguments(cfg config.Settings) []string {
	var a []string

	if cfg.WriteBarrierValidation {
		a = append(a, "--write-barrier-validation")
	}
	if incrementalGCEnabled(cfg) {
		a = append(a, fmt.Sprintf("--incremental-g-c-time-slice=%d", incrementalGCTimeSlice))
	}
	if cfg.BaselibDir != "" {
		a = append(a, fmt.Sprintf("--baselib-directory=%q", cfg.BaselibDir))
	}

	a = append(a,
		"--avoid-dynamic-library-copy",
		"--dont-deploy-baselib",
		"--profiler-report",
	)
	return a
}

// DebuggerArguments mirrors the IL2CPP_MONO_DEBUGGER define.
func DebuggerArguments(cfg config.Settings) []string {
	if debuggerEnabled(cfg) {
		return []string{"--enable-debugger"}
	}
	return nil
}

// ProfileArgument maps the managed profile to its converter argument.
func ProfileArgument(p config.Profile) (string, error) {
	arg, ok := profileArguments[p]
	if !ok {
		return "", fmt.Errorf("%w: %q (known: %s)", ErrUnsupportedProfile, p, config.ProfileNames())
	}
	return arg, nil
}
