//go:build windows

package cache

import (
	"golang.org/x/sys/windows"
)

// ShortPath converts a path to its 8.3 short form when it contains characters
// outside single-byte encoding, which some external tools cannot consume on
// Windows. ASCII-only paths pass through untouched.
func ShortPath(path string) string {
	if isSingleByte(path) {
		return path
	}

	long, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return path
	}

	n, err := windows.GetShortPathName(long, nil, 0)
	if err != nil || n == 0 {
		return path
	}
	buf := make([]uint16, n)
	n, err = windows.GetShortPathName(long, &buf[0], uint32(len(buf)))
	if err != nil || n == 0 {
		return path
	}
	return windows.UTF16ToString(buf[:n])
}
