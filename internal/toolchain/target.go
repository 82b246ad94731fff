package toolchain

import "strings"

// Externally-supplied build platform identifiers mapped to target
// platform/arch pairs. A single lookup table so a new platform is a one-line
// change.
var buildTargets = map[string]Target{
	"linux64":       {Platform: "linux", Arch: "x86_64"},
	"linux-arm64":   {Platform: "linux", Arch: "arm64"},
	"win64":         {Platform: "windows", Arch: "x86_64"},
	"win32":         {Platform: "windows", Arch: "x86"},
	"winrt":         {Platform: "winrt", Arch: "x86_64"},
	"macos":         {Platform: "macos", Arch: "arm64"},
	"macos-x64":     {Platform: "macos", Arch: "x86_64"},
	"android-arm64": {Platform: "android", Arch: "arm64"},
	"ios":           {Platform: "ios", Arch: "arm64"},
	"webgl":         {Platform: "webgl", Arch: ""},
}

// TargetForPlatform maps a build platform identifier to its target pair.
// Unsupported identifiers yield ok=false rather than an error: "no toolchain"
// is an expected outcome, not a failure.
func TargetForPlatform(id string) (Target, bool) {
	t, ok := buildTargets[strings.ToLower(strings.TrimSpace(id))]
	return t, ok
}

// BuildTargetNames lists the supported platform identifiers, for CLI help.
func BuildTargetNames() []string {
	names := make([]string, 0, len(buildTargets))
	for name := range buildTargets {
		names = append(names, name)
	}
	return names
}
