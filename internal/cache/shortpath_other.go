//go:build !windows

package cache

// ShortPath is a Windows quirk; elsewhere paths pass through unchanged.
func ShortPath(path string) string {
	return path
}
