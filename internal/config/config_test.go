package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T, targetOS, targetArch string) Env {
	t.Helper()
	return NewEnv(t.TempDir(), targetOS, targetArch)
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
[app]
name = "demo"
`), testEnv(t, "linux", "x86_64"))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.App.Name)
	assert.Equal(t, ProfileModern, cfg.Build.Profile)
	assert.Equal(t, StripLow, cfg.Build.Stripping)
	assert.Equal(t, CodegenSpeed, cfg.Build.Codegen)
	assert.True(t, cfg.Build.EmitNullChecks)
	assert.True(t, cfg.Build.EnableStacktrace)
	assert.True(t, cfg.Build.ArrayBoundsChecks)
	assert.False(t, cfg.Build.Development)
}

func TestParseBuildSection(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
[build]
development = true
profile = "legacy"
stripping = "high"
codegen = "size"
linker-tool = "ilstrip"
extra-args = ["--verbose"]
preserved-types = ["Game.SaveData"]
`), testEnv(t, "linux", "x86_64"))
	require.NoError(t, err)

	assert.True(t, cfg.Build.Development)
	assert.Equal(t, ProfileLegacy, cfg.Build.Profile)
	assert.Equal(t, StripHigh, cfg.Build.Stripping)
	assert.Equal(t, CodegenSize, cfg.Build.Codegen)
	assert.Equal(t, "ilstrip", cfg.Build.LinkerTool)
	assert.Equal(t, []string{"--verbose"}, cfg.Build.ExtraArgs)
	assert.Equal(t, []string{"Game.SaveData"}, cfg.Build.PreservedTypes)
}

func TestConditionalSectionsMergeWhenMatched(t *testing.T) {
	src := `
[build]
extra-args = ["--base"]

[build."target_os == 'webgl'"]
codegen = "size"
extra-args = ["--emit-wasm"]

[build."target_os == 'windows'"]
app-container = true
`
	cfg, err := Parse(strings.NewReader(src), testEnv(t, "webgl", ""))
	require.NoError(t, err)

	assert.Equal(t, CodegenSize, cfg.Build.Codegen)
	assert.Equal(t, []string{"--base", "--emit-wasm"}, cfg.Build.ExtraArgs, "matched slices append to the base")
	assert.False(t, cfg.Build.AppContainer, "unmatched sections are ignored")

	cfg, err = Parse(strings.NewReader(src), testEnv(t, "windows", "x86_64"))
	require.NoError(t, err)
	assert.True(t, cfg.Build.AppContainer)
	assert.Equal(t, CodegenSpeed, cfg.Build.Codegen)
	assert.Equal(t, []string{"--base"}, cfg.Build.ExtraArgs)
}

func TestConditionalBoolsNeverTurnOff(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
[build]
development = true

[build."target_os == 'linux'"]
development = false
incremental-gc = true
`), testEnv(t, "linux", "x86_64"))
	require.NoError(t, err)

	assert.True(t, cfg.Build.Development, "merging ORs booleans, it cannot unset them")
	assert.True(t, cfg.Build.IncrementalGC)
}

func TestStringInterpolation(t *testing.T) {
	t.Setenv("AOTC_TEST_LINKER", "ilstrip-ci")
	cfg, err := Parse(strings.NewReader(`
[app]
name = "demo-{{ target_os }}-{{ target_arch }}"

[build]
linker-tool = "{{ environ.AOTC_TEST_LINKER }}"
`), testEnv(t, "linux", "x86_64"))
	require.NoError(t, err)

	assert.Equal(t, "demo-linux-x86_64", cfg.App.Name)
	assert.Equal(t, "ilstrip-ci", cfg.Build.LinkerTool)
}

func TestParseRejectsInvalidEnums(t *testing.T) {
	env := testEnv(t, "linux", "x86_64")

	_, err := Parse(strings.NewReader("[build]\nprofile = \"netcore\"\n"), env)
	require.ErrorContains(t, err, "unsupported profile")

	_, err = Parse(strings.NewReader("[build]\nstripping = \"maximal\"\n"), env)
	require.ErrorContains(t, err, "unknown stripping level")

	_, err = Parse(strings.NewReader("[build]\ncodegen = \"balanced\"\n"), env)
	require.ErrorContains(t, err, "unknown codegen mode")
}

func TestParseRejectsMalformedToml(t *testing.T) {
	_, err := Parse(strings.NewReader("[build\n"), testEnv(t, "linux", "x86_64"))
	require.Error(t, err)
}

func TestPostGenerateHook(t *testing.T) {
	env := testEnv(t, "linux", "x86_64")

	var cfg Config
	require.NoError(t, cfg.RunPostGenerateHook(env), "absent hook is a no-op")

	cfg.Hooks.PostGenerate = `target_os == "linux"`
	require.NoError(t, cfg.RunPostGenerateHook(env))

	cfg.Hooks.PostGenerate = `target_os == "windows"`
	require.ErrorContains(t, cfg.RunPostGenerateHook(env), "returned false")

	cfg.Hooks.PostGenerate = `nonsense(`
	require.ErrorContains(t, cfg.RunPostGenerateHook(env), "failed to compile")
}

func TestEnvReadFileAndRebase(t *testing.T) {
	base := t.TempDir()
	other := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "a.txt"), []byte("base"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(other, "a.txt"), []byte("other"), 0644))

	env := NewEnv(base, "linux", "x86_64")
	data, err := env.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "base", data)

	data, err = env.Rebase(other).ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "other", data)
}

func TestEnvPatch(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "Bulk.cpp")
	require.NoError(t, os.WriteFile(path, []byte("int answer = 41;\n"), 0644))

	dmp := diffmatchpatch.New()
	patch := dmp.PatchToText(dmp.PatchMake("int answer = 41;\n", "int answer = 42;\n"))

	env := NewEnv(base, "linux", "x86_64")
	assert.True(t, env.Patch("Bulk.cpp", patch))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "int answer = 42;\n", string(data))

	stale := dmp.PatchToText(dmp.PatchMake(
		"completely unrelated original contents\n",
		"completely unrelated replaced contents\n"))
	assert.False(t, env.Patch("Bulk.cpp", stale), "patch against foreign text applies nothing")
}
