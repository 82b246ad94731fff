//go:build !windows

package toolchain

import "errors"

func findMSBuild() (string, error) {
	return "", errors.New("MSBuild is only available on Windows hosts")
}
