// Package dist resolves and provisions the external bytecode-to-C++
// converter distribution.
package dist

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aotc-build/aotc/internal/cache"
)

// EnvToolPath overrides where the converter is installed. It may point at the
// executable itself or at its install directory.
const EnvToolPath = "AOTC_IL2CPP_PATH"

const toolDirName = "il2cpp"

var errIllegalSource = errors.New("empty or illegal distribution source")

func exeName() string {
	if runtime.GOOS == "windows" {
		return "il2cpp.exe"
	}
	return "il2cpp"
}

// Converter locates the il2cpp executable: the environment override wins,
// then the fetched distribution under root.
func Converter(root string) (string, error) {
	if override := os.Getenv(EnvToolPath); override != "" {
		stat, err := os.Stat(override)
		if err != nil {
			return "", fmt.Errorf("%s points at %s: %w", EnvToolPath, override, err)
		}
		if stat.IsDir() {
			return filepath.Join(override, exeName()), nil
		}
		return override, nil
	}

	candidate := filepath.Join(root, toolDirName, exeName())
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("converter not found under %s: set %s or run `aotc fetch <source>`", root, EnvToolPath)
}

// InstallDir is where Fetch places the distribution.
func InstallDir(root string) string {
	return filepath.Join(root, toolDirName)
}

var sourceShortcuts = map[string]string{
	"gh:": "https://github.com/",
	"gl:": "https://gitlab.com/",
	"bb:": "https://bitbucket.org/",
	"sr:": "https://sr.ht/",
	"cb:": "https://codeberg.org/",
}

const gitPrefix = "git:"

// Fetch provisions a converter distribution into toWhere. Accepted forms:
// an explicit git URL (`git:https://...`), a forge shortcut (`gh:org/repo`,
// optionally with `@branch` and `#revision`), an archive URL (.tar.gz, .tgz,
// .tar.xz), or a local directory to copy.
func Fetch(source, toWhere string) error {
	if source == "" {
		return errIllegalSource
	}

	if rest, ok := strings.CutPrefix(source, gitPrefix); ok {
		return cloneRepo(rest, toWhere)
	}

	for shortcut, base := range sourceShortcuts {
		if rest, ok := strings.CutPrefix(source, shortcut); ok {
			return cloneRepo(base+rest, toWhere)
		}
	}

	if isURL(source) {
		return downloadAndExtractArchive(source, toWhere)
	}

	// local path
	stat, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("distribution source %s: %w", source, err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("distribution source %s is not a directory", source)
	}
	return cache.CopyTree(source, toWhere, true)
}

func isURL(maybeURL string) bool {
	u, err := url.Parse(maybeURL)
	return err == nil && u.Scheme != "" && u.Host != ""
}
