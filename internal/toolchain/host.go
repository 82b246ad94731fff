package toolchain

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Environment variables that force the resolved host identity. Applied last,
// unconditionally: an override wins even when probing succeeded.
const (
	EnvHostPlatform = "AOTC_HOST_PLATFORM"
	EnvHostArch     = "AOTC_HOST_ARCH"
)

// HostEnvironment identifies the machine running the build.
type HostEnvironment struct {
	Platform string
	Arch     string
}

// Machine architecture names as reported by uname/PROCESSOR_ARCHITECTURE,
// normalized to the names toolchains register under.
var archAliases = map[string]string{
	"amd64":   "x86_64",
	"x64":     "x86_64",
	"x86_64":  "x86_64",
	"i386":    "x86",
	"i486":    "x86",
	"i586":    "x86",
	"i686":    "x86",
	"x86":     "x86",
	"aarch64": "arm64",
	"arm64":   "arm64",
}

// NormalizeArch maps a raw machine-architecture name through the alias table.
// Unknown names pass through lowercased.
func NormalizeArch(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := archAliases[lower]; ok {
		return alias
	}
	return lower
}

var errHostUnresolved = errors.New("could not determine host platform and architecture")

// HostResolver probes the host environment once and memoizes the result.
// It replaces a hidden process-wide static: construct one and pass it to the
// registry (or anything else that needs host identity).
type HostResolver struct {
	cached *HostEnvironment
}

func NewHostResolver() *HostResolver {
	return &HostResolver{}
}

// Resolve returns the host environment, probing the OS on first use.
// The AOTC_HOST_PLATFORM / AOTC_HOST_ARCH overrides are applied after probing
// and always win. The result is memoized only once both fields are known, so
// a partial failure is retried on the next call.
func (r *HostResolver) Resolve() (HostEnvironment, error) {
	if r.cached != nil {
		return *r.cached, nil
	}

	he, probeErr := probeHost()

	if v := os.Getenv(EnvHostPlatform); v != "" {
		he.Platform = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvHostArch); v != "" {
		he.Arch = NormalizeArch(v)
	}

	if he.Platform == "" || he.Arch == "" {
		if probeErr != nil {
			return HostEnvironment{}, probeErr
		}
		return HostEnvironment{}, errHostUnresolved
	}

	r.cached = &he
	return he, nil
}

// probeHost asks the OS for its identity. On the POSIX family this shells out
// to uname for kernel name and machine architecture; on Windows the platform
// is fixed and the architecture comes from the environment.
func probeHost() (HostEnvironment, error) {
	if runtime.GOOS == "windows" {
		return HostEnvironment{
			Platform: "windows",
			Arch:     NormalizeArch(os.Getenv("PROCESSOR_ARCHITECTURE")),
		}, nil
	}

	out, err := exec.Command("uname", "-sm").Output()
	if err != nil {
		return HostEnvironment{}, err
	}
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return HostEnvironment{}, errHostUnresolved
	}
	return HostEnvironment{
		Platform: strings.ToLower(fields[0]),
		Arch:     NormalizeArch(fields[1]),
	}, nil
}
