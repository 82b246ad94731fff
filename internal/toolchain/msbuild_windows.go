//go:build windows

package toolchain

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/heaths/go-vssetup"
)

// findMSBuild locates MSBuild.exe through the Visual Studio setup
// configuration API, falling back to PATH.
func findMSBuild() (string, error) {
	instances, err := vssetup.Instances(false)
	if err == nil {
		for _, instance := range instances {
			root, err := instance.InstallationPath()
			if err != nil {
				continue
			}
			candidate := filepath.Join(root, "MSBuild", "Current", "Bin", "MSBuild.exe")
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	if path, err := exec.LookPath("msbuild"); err == nil {
		return path, nil
	}
	return "", errors.New("MSBuild not found: install Visual Studio 2022 with the C++ workload")
}
