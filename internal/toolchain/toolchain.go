// Package toolchain discovers and indexes cross-compilation sysroots by
// (host platform, host arch, target platform, target arch).
package toolchain

import (
	"strings"
)

// Toolchain is the capability every registered sysroot provides.
type Toolchain interface {
	Name() string

	// Initialize probes for the tools this sysroot needs (compilers, SDKs).
	// A false return means the sysroot is unusable on this machine; the
	// registry treats it as not found.
	Initialize() bool

	HostPlatform() string
	HostArch() string
	TargetPlatform() string
	TargetArch() string

	// CodegenArguments are sysroot-specific flags appended to the converter
	// command line.
	CodegenArguments() []string
}

// Target names the platform/arch pair a build produces output for.
type Target struct {
	Platform string
	Arch     string
}

// Display names used in triples differ from probe names for two platforms.
var platformAliases = map[string]string{
	"darwin":  "macos",
	"windows": "win",
}

func aliasPlatform(p string) string {
	if alias, ok := platformAliases[strings.ToLower(p)]; ok {
		return alias
	}
	return p
}

// Triple renders a human-readable host-target identifier. When host and
// target coincide the host half is omitted: "linux-x86_64" rather than
// "linux-x86_64-linux-x86_64". An empty target arch stays empty, so a webgl
// target from a mac yields "macos-arm64-webgl-".
func Triple(host HostEnvironment, t Target) string {
	if strings.EqualFold(host.Platform, t.Platform) && strings.EqualFold(host.Arch, t.Arch) {
		return aliasPlatform(t.Platform) + "-" + t.Arch
	}
	return aliasPlatform(host.Platform) + "-" + host.Arch + "-" + aliasPlatform(t.Platform) + "-" + t.Arch
}

// Sysroot is the common Toolchain implementation: identity plus a probe
// function run (and memoized) by Initialize.
type Sysroot struct {
	name           string
	hostPlatform   string
	hostArch       string
	targetPlatform string
	targetArch     string
	args           []string
	probe          func() bool

	probed bool
	ready  bool
}

func NewSysroot(name, hostPlatform, hostArch, targetPlatform, targetArch string, probe func() bool, args ...string) *Sysroot {
	return &Sysroot{
		name:           name,
		hostPlatform:   hostPlatform,
		hostArch:       hostArch,
		targetPlatform: targetPlatform,
		targetArch:     targetArch,
		args:           args,
		probe:          probe,
	}
}

func (s *Sysroot) Name() string           { return s.name }
func (s *Sysroot) HostPlatform() string   { return s.hostPlatform }
func (s *Sysroot) HostArch() string       { return s.hostArch }
func (s *Sysroot) TargetPlatform() string { return s.targetPlatform }
func (s *Sysroot) TargetArch() string     { return s.targetArch }

func (s *Sysroot) Initialize() bool {
	if !s.probed {
		s.probed = true
		s.ready = s.probe == nil || s.probe()
	}
	return s.ready
}

func (s *Sysroot) CodegenArguments() []string {
	return s.args
}
