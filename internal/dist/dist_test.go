package dist

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitURL(t *testing.T) {
	cases := []struct {
		raw  string
		want gitURL
	}{
		{"https://github.com/org/il2cpp", gitURL{cleanURL: "https://github.com/org/il2cpp.git"}},
		{"https://github.com/org/il2cpp.git", gitURL{cleanURL: "https://github.com/org/il2cpp.git"}},
		{"https://github.com/org/il2cpp@stable", gitURL{
			cleanURL: "https://github.com/org/il2cpp.git", branch: "stable"}},
		{"https://github.com/org/il2cpp#v2.1.0", gitURL{
			cleanURL: "https://github.com/org/il2cpp.git", commitOrTag: "v2.1.0"}},
		{"https://github.com/org/il2cpp@stable#12345abc", gitURL{
			cleanURL: "https://github.com/org/il2cpp.git", branch: "stable", commitOrTag: "12345abc"}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parseGitURL(c.raw), "parsing %q", c.raw)
	}
}

func TestArchiveKind(t *testing.T) {
	assert.Equal(t, "gzip", archiveKind("https://example.com/il2cpp-linux.tar.gz"))
	assert.Equal(t, "gzip", archiveKind("https://example.com/il2cpp-linux.tgz"))
	assert.Equal(t, "xz", archiveKind("https://example.com/il2cpp-linux.tar.xz"))
	assert.Equal(t, "", archiveKind("https://example.com/il2cpp-linux.zip"))
	assert.Equal(t, "", archiveKind("https://example.com/il2cpp"))
}

func TestFetchRejectsEmptySource(t *testing.T) {
	require.ErrorIs(t, Fetch("", t.TempDir()), errIllegalSource)
}

func TestFetchRejectsMissingLocalSource(t *testing.T) {
	err := Fetch(filepath.Join(t.TempDir(), "no-such-dir"), t.TempDir())
	require.Error(t, err)
}

func TestFetchCopiesLocalDirectory(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "il2cpp"), []byte("#!"), 0755))

	require.NoError(t, Fetch(src, dst))
	assert.FileExists(t, filepath.Join(dst, "il2cpp"))
}

func TestConverterPrefersEnvOverride(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "custom-il2cpp")
	require.NoError(t, os.WriteFile(exe, []byte("#!"), 0755))

	t.Setenv(EnvToolPath, exe)
	got, err := Converter(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, exe, got)

	// pointing at a directory appends the executable name
	t.Setenv(EnvToolPath, dir)
	got, err = Converter(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, exeName()), got)

	t.Setenv(EnvToolPath, filepath.Join(dir, "missing"))
	_, err = Converter(t.TempDir())
	require.Error(t, err)
}

func TestConverterFindsFetchedDistribution(t *testing.T) {
	t.Setenv(EnvToolPath, "")
	root := t.TempDir()
	exe := filepath.Join(InstallDir(root), exeName())
	require.NoError(t, os.MkdirAll(filepath.Dir(exe), 0755))
	require.NoError(t, os.WriteFile(exe, []byte("#!"), 0755))

	got, err := Converter(root)
	require.NoError(t, err)
	assert.Equal(t, exe, got)

	_, err = Converter(t.TempDir())
	require.ErrorContains(t, err, "converter not found")
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.com/dist.tar.gz"))
	assert.False(t, isURL("/opt/il2cpp"))
	assert.False(t, isURL("relative/path"))
}

func tarball(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name, Mode: 0644, Size: int64(len(content)), Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestUntarExtractsRegularFiles(t *testing.T) {
	data := tarball(t, map[string]string{
		"il2cpp":               "#!",
		"libil2cpp/il2cpp.h":   "// api",
		"libil2cpp/il2cpp.cpp": "// impl",
	})
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	dest := t.TempDir()
	require.NoError(t, untar(gz, dest))
	assert.FileExists(t, filepath.Join(dest, "il2cpp"))
	assert.FileExists(t, filepath.Join(dest, "libil2cpp", "il2cpp.h"))
	assert.FileExists(t, filepath.Join(dest, "libil2cpp", "il2cpp.cpp"))
}

func TestUntarRejectsEscapingEntries(t *testing.T) {
	data := tarball(t, map[string]string{"../evil": "nope"})
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	err = untar(gz, t.TempDir())
	require.ErrorContains(t, err, "escapes destination")
}
