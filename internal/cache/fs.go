// Package cache manages the three directory roles of a build: the scratch
// temp folder, the persistent per-target build cache, and the staging area
// the packager consumes. It also owns the incremental build state that lets
// unchanged native compilation be skipped.
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Ensure creates dir (and parents) if absent. Idempotent.
func Ensure(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// CreateOrClean deletes and recreates dir if it exists, else creates it.
// Used for directories whose stale contents from a prior run must never leak
// into the current one.
func CreateOrClean(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clean directory %s: %w", dir, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	return Ensure(dir)
}

// ClearReadOnly flips the read-only bit off for every regular file directly
// inside dir (non-recursive). Managed assemblies can arrive from a read-only
// source and must be strippable in place.
func ClearReadOnly(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := os.Chmod(path, info.Mode().Perm()|0200); err != nil {
			return fmt.Errorf("failed to clear read-only bit on %s: %w", path, err)
		}
	}
	return nil
}

// CopyTree recursively copies src into dst. With overwrite false, files
// already present in dst are left alone. Directory structure is always
// created. The copy is deterministic, so re-running it over unchanged
// sources yields a byte-identical destination tree.
func CopyTree(src, dst string, overwrite bool) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return Ensure(target)
		}

		if !overwrite {
			if _, err := os.Stat(target); err == nil {
				return nil
			}
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if err := Ensure(filepath.Dir(dst)); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm()|0200)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
