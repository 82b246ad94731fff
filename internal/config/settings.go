package config

import (
	"fmt"
	"strings"
)

// Profile selects the managed API-compatibility/runtime surface.
type Profile string

const (
	ProfileLegacy Profile = "legacy"
	ProfileModern Profile = "modern"
)

// StripLevel controls how aggressively unused managed code is removed before
// conversion.
type StripLevel string

const (
	StripDisabled StripLevel = "disabled"
	StripMinimal  StripLevel = "minimal"
	StripLow      StripLevel = "low"
	StripMedium   StripLevel = "medium"
	StripHigh     StripLevel = "high"
)

// Codegen selects the converter's optimization mode.
type Codegen string

const (
	CodegenSpeed Codegen = "speed"
	CodegenSize  Codegen = "size"
)

// Settings is the immutable per-invocation snapshot of every build option
// relevant to native code generation. Parsed from the [build] section of
// aotc.toml; conditional sub-sections merge in before the snapshot is taken.
type Settings struct {
	Development            bool       `toml:"development"`
	AllowDebugging         bool       `toml:"allow-debugging"`
	Profile                Profile    `toml:"profile"`
	Stripping              StripLevel `toml:"stripping"`
	Codegen                Codegen    `toml:"codegen"`
	EmitNullChecks         bool       `toml:"emit-null-checks"`
	EnableStacktrace       bool       `toml:"enable-stacktrace"`
	ArrayBoundsChecks      bool       `toml:"array-bounds-checks"`
	DivideByZeroChecks     bool       `toml:"divide-by-zero-checks"`
	DeepProfiling          bool       `toml:"deep-profiling"`
	WriteBarrierValidation bool       `toml:"write-barrier-validation"`
	IncrementalGC          bool       `toml:"incremental-gc"`
	MonoFallback           bool       `toml:"mono-fallback"`
	CrashReporting         bool       `toml:"crash-reporting"`
	AppContainer           bool       `toml:"app-container"`
	BaselibDir             string     `toml:"baselib-dir"`
	LinkerTool             string     `toml:"linker-tool"`
	ExtraArgs              []string   `toml:"extra-args"`
	PreservedTypes         []string   `toml:"preserved-types"`
}

func defaultSettings() Settings {
	return Settings{
		Profile:           ProfileModern,
		Stripping:         StripLow,
		Codegen:           CodegenSpeed,
		EmitNullChecks:    true,
		EnableStacktrace:  true,
		ArrayBoundsChecks: true,
	}
}

// Validate rejects enum values outside their domain early, before any
// directory is touched or process spawned.
func (s Settings) Validate() error {
	switch s.Profile {
	case ProfileLegacy, ProfileModern:
	default:
		return fmt.Errorf("unsupported profile %q, expected one of: legacy, modern", s.Profile)
	}
	switch s.Stripping {
	case StripDisabled, StripMinimal, StripLow, StripMedium, StripHigh:
	default:
		return fmt.Errorf("unknown stripping level %q", s.Stripping)
	}
	switch s.Codegen {
	case CodegenSpeed, CodegenSize:
	default:
		return fmt.Errorf("unknown codegen mode %q", s.Codegen)
	}
	return nil
}

// ProfileNames lists valid profiles for CLI help.
func ProfileNames() string {
	return strings.Join([]string{string(ProfileLegacy), string(ProfileModern)}, ", ")
}
