package pipeline

import (
	"path/filepath"
	"strings"
)

// BuildPaths names the three directory roles of a build invocation.
type BuildPaths struct {
	// TempFolder is per-invocation scratch, wiped freely.
	TempFolder string
	// BuildCacheDir persists across invocations, keyed by target, and enables
	// incremental native rebuilds.
	BuildCacheDir string
	// StagingAreaData is the final managed+native output tree the downstream
	// packager consumes.
	StagingAreaData string
}

// Validate fails fast when temp and cache point at the same directory: temp
// is wiped per invocation while the cache must survive, so sharing the path
// would corrupt the cache. The comparison is case-insensitive since the
// filesystems this runs against commonly are.
func (p BuildPaths) Validate() error {
	if p.TempFolder == "" || p.BuildCacheDir == "" || p.StagingAreaData == "" {
		return &ConfigError{Reason: "temp, cache and staging directories must all be set"}
	}
	temp := filepath.Clean(p.TempFolder)
	cache := filepath.Clean(p.BuildCacheDir)
	if strings.EqualFold(temp, cache) {
		return &ConfigError{Reason: "temp folder and build cache directory must not be the same path: " + temp}
	}
	return nil
}

func (p BuildPaths) cppOutputDir() string {
	return filepath.Join(p.BuildCacheDir, "il2cppOutput")
}

func (p BuildPaths) nativeDir() string {
	return filepath.Join(p.BuildCacheDir, "Native")
}

func (p BuildPaths) additionalDir() string {
	return filepath.Join(p.BuildCacheDir, "additionalCppFiles")
}

func (p BuildPaths) managedDir() string {
	return filepath.Join(p.StagingAreaData, "Managed")
}

func (p BuildPaths) stagedNativeDir() string {
	return filepath.Join(p.StagingAreaData, "Native")
}

func (p BuildPaths) stagedCppDir() string {
	return filepath.Join(p.StagingAreaData, "il2cppOutput")
}
