package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Env is the expression environment visible to conditional sections, {{ }}
// interpolation and hook scripts.
type Env struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	basedir    string
}

// NewEnv builds the expression environment for a build of the given target.
// basedir anchors the Patch/ReadFile helpers; hook scripts cannot reach
// outside it.
func NewEnv(basedir, targetOS, targetArch string) Env {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	return Env{
		TargetOS:   targetOS,
		TargetArch: targetArch,
		Environ:    environ,
		basedir:    basedir,
	}
}

// Rebase returns a copy of the environment anchored at a different directory.
// The post-generate hook runs rebased onto the generated-source tree.
func (env Env) Rebase(basedir string) Env {
	env.basedir = basedir
	return env
}

// RunPostGenerateHook compiles and runs the [hooks] post-generate script.
// The script must evaluate to true; anything else fails the build.
func (cfg Config) RunPostGenerateHook(env Env) error {
	if cfg.Hooks.PostGenerate == "" {
		return nil
	}

	program, err := expr.Compile(cfg.Hooks.PostGenerate, expr.Env(env))
	if err != nil {
		return fmt.Errorf("failed to compile post-generate hook: %w", err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return fmt.Errorf("failed to run post-generate hook: %w", err)
	}

	if ok, isBool := result.(bool); !isBool || !ok {
		return fmt.Errorf("post-generate hook returned false\n%s", cfg.Hooks.PostGenerate)
	}

	return nil
}

// Patch applies a unified patch to a file under the environment's base
// directory. Returns false when no hunk applied (nothing written).
func (env Env) Patch(path, patchText string) bool {
	fullPath := filepath.Join(env.basedir, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		panic(err)
	}
	origText := string(data)

	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(patchText)
	if err != nil {
		panic(err)
	}
	patchedText, results := dmp.PatchApply(patches, origText)
	applied := false
	for _, ok := range results {
		if ok {
			applied = true
			break
		}
	}
	if !applied {
		return false
	}

	if err := os.WriteFile(fullPath, []byte(patchedText), 0644); err != nil {
		panic(err)
	}

	return true
}

// ReadFile reads a file under the environment's base directory.
func (env Env) ReadFile(path string) (string, error) {
	fullPath := filepath.Join(env.basedir, path)
	if _, err := filepath.Rel(env.basedir, fullPath); err != nil {
		panic(fmt.Sprintf("path %q is outside of directory %q", path, env.basedir))
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		panic(err)
	}

	return string(data), nil
}
