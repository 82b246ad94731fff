package toolchain

import (
	"os"
	"os/exec"
	"path/filepath"
)

func probeTool(names ...string) func() bool {
	return func() bool {
		for _, name := range names {
			if _, err := exec.LookPath(name); err != nil {
				return false
			}
		}
		return true
	}
}

func probeNDK() bool {
	root := os.Getenv("ANDROID_NDK_ROOT")
	if root == "" {
		return false
	}
	stat, err := os.Stat(filepath.Join(root, "toolchains"))
	return err == nil && stat.IsDir()
}

func probeMSBuild() bool {
	_, err := findMSBuild()
	return err == nil
}

// DefaultRegistry registers the built-in sysroots. Each registration is an
// explicit call made here at startup; nothing is discovered by scanning.
func DefaultRegistry() *Registry {
	r := NewRegistry(NewHostResolver())

	// native desktop sysroots
	r.Register(NewSysroot("linux-clang", "linux", "x86_64", "linux", "x86_64",
		probeTool("clang++"), "--platform=Linux", "--architecture=x64"))
	r.Register(NewSysroot("linux-clang-arm64", "linux", "arm64", "linux", "arm64",
		probeTool("clang++"), "--platform=Linux", "--architecture=ARM64"))
	r.Register(NewSysroot("macos-clang", "darwin", "arm64", "macos", "arm64",
		probeTool("clang++"), "--platform=MacOSX", "--architecture=ARM64"))
	r.Register(NewSysroot("macos-clang-x64", "darwin", "x86_64", "macos", "x86_64",
		probeTool("clang++"), "--platform=MacOSX", "--architecture=x64"))
	r.Register(NewSysroot("windows-msvc", "windows", "x86_64", "windows", "x86_64",
		probeMSBuild, "--platform=WindowsDesktop", "--architecture=x64"))
	r.Register(NewSysroot("winrt-msvc", "windows", "x86_64", "winrt", "x86_64",
		probeMSBuild, "--platform=WinRT", "--architecture=x64"))

	// cross sysroots: webgl builds from linux and mac hosts via emscripten
	for _, host := range []HostEnvironment{
		{Platform: "linux", Arch: "x86_64"},
		{Platform: "darwin", Arch: "arm64"},
		{Platform: "darwin", Arch: "x86_64"},
	} {
		r.Register(NewSysroot("webgl-emscripten", host.Platform, host.Arch, "webgl", "",
			probeTool("emcc"), "--platform=WebGL", "--emit-source-mapping"))
		r.Register(NewSysroot("android-ndk", host.Platform, host.Arch, "android", "arm64",
			probeNDK, "--platform=Android", "--architecture=ARM64"))
	}

	return r
}
