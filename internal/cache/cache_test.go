package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestEnsureIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, Ensure(dir))
	require.NoError(t, Ensure(dir))
	assert.DirExists(t, dir)
}

func TestCreateOrCleanWipesExistingContents(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.obj")
	writeFile(t, stale, "old")

	require.NoError(t, CreateOrClean(dir))
	assert.NoFileExists(t, stale)
	assert.DirExists(t, dir)
}

func TestClearReadOnlyFlipsRegularFilesOnly(t *testing.T) {
	dir := t.TempDir()
	locked := filepath.Join(dir, "Game.dll")
	writeFile(t, locked, "assembly")
	require.NoError(t, os.Chmod(locked, 0444))

	nested := filepath.Join(dir, "sub", "Nested.dll")
	writeFile(t, nested, "assembly")
	require.NoError(t, os.Chmod(nested, 0444))

	require.NoError(t, ClearReadOnly(dir))

	info, err := os.Stat(locked)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0200, "read-only bit cleared")

	info, err = os.Stat(nested)
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0200, "non-recursive: nested files untouched")
}

func TestCopyTreeOverwrite(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "Native", "game.so"), "v2")
	writeFile(t, filepath.Join(dst, "Native", "game.so"), "v1")

	require.NoError(t, CopyTree(src, dst, false))
	data, err := os.ReadFile(filepath.Join(dst, "Native", "game.so"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data), "without overwrite existing files stay")

	require.NoError(t, CopyTree(src, dst, true))
	data, err = os.ReadFile(filepath.Join(dst, "Native", "game.so"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestCopyTreeIsIdempotent(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a", "one.cpp"), "one")
	writeFile(t, filepath.Join(src, "two-metadata.dat"), "two")

	require.NoError(t, CopyTree(src, dst, true))
	require.NoError(t, CopyTree(src, dst, true))

	var files []string
	require.NoError(t, filepath.Walk(dst, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		if !info.IsDir() {
			rel, _ := filepath.Rel(dst, path)
			files = append(files, rel)
		}
		return nil
	}))
	assert.ElementsMatch(t, []string{filepath.Join("a", "one.cpp"), "two-metadata.dat"}, files)
}

func TestFileHashIsStableAndCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gen.cpp")
	writeFile(t, path, "int main() {}")

	h := NewHasher()
	first, err := h.FileHash(path)
	require.NoError(t, err)
	require.Len(t, first, 64)

	// rewriting the file does not bust the per-invocation cache
	writeFile(t, path, "changed")
	second, err := h.FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	fresh, err := NewHasher().FileHash(path)
	require.NoError(t, err)
	assert.NotEqual(t, first, fresh)
}

func TestCollectSourcesSortedAndDeduplicated(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "il2cppOutput", "b.cpp"), "b")
	writeFile(t, filepath.Join(root, "il2cppOutput", "a.cpp"), "a")
	writeFile(t, filepath.Join(root, "il2cppOutput", "a.h"), "h")
	writeFile(t, filepath.Join(root, "il2cppOutput", "notes.txt"), "skip")

	sources, err := CollectSources(root, "il2cppOutput/**/*.{cpp,h}", "il2cppOutput/**/*.cpp")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"il2cppOutput/a.cpp",
		"il2cppOutput/a.h",
		"il2cppOutput/b.cpp",
	}, sources)
}

func TestBuildStateRoundTripAndMatching(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "il2cppOutput", "a.cpp"), "a")

	h := NewHasher()
	sources, err := CollectSources(root, "il2cppOutput/**/*.cpp")
	require.NoError(t, err)

	state, err := Snapshot(h, root, sources, []string{"--compile"})
	require.NoError(t, err)
	require.NoError(t, SaveState(root, state))

	loaded, err := LoadState(root)
	require.NoError(t, err)
	assert.True(t, loaded.Matches(state))

	changed, err := Snapshot(h, root, sources, []string{"--compile", "--lto"})
	require.NoError(t, err)
	assert.False(t, loaded.Matches(changed), "argument change invalidates the state")

	missing, err := LoadState(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.False(t, missing.Matches(state), "no previous state never matches")
}
