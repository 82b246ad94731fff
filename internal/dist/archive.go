package dist

import (
	"archive/tar"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"

	"github.com/aotc-build/aotc/internal/cache"
	"github.com/aotc-build/aotc/internal/msg"
)

// archiveKind returns the decompressor family for a distribution URL, or ""
// when the suffix is not a supported archive format.
func archiveKind(url string) string {
	switch {
	case strings.HasSuffix(url, ".tar.gz"), strings.HasSuffix(url, ".tgz"):
		return "gzip"
	case strings.HasSuffix(url, ".tar.xz"):
		return "xz"
	default:
		return ""
	}
}

// downloadAndExtractArchive streams a distribution tarball from url into
// toWhere, showing download progress.
func downloadAndExtractArchive(url, toWhere string) error {
	kind := archiveKind(url)
	if kind == "" {
		return fmt.Errorf("unsupported archive format: %s (expected .tar.gz, .tgz or .tar.xz)", url)
	}

	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s failed: %s", url, resp.Status)
	}

	msg.Step("Downloading", "%s", url)
	pb := msg.NewProgressBar(resp.ContentLength, 4, os.Stdout)
	defer pb.Finish()
	body := io.TeeReader(resp.Body, pb)

	var decompressed io.Reader
	switch kind {
	case "gzip":
		gz, err := gzip.NewReader(body)
		if err != nil {
			return fmt.Errorf("bad gzip stream from %s: %w", url, err)
		}
		defer gz.Close()
		decompressed = gz
	case "xz":
		xzr, err := xz.NewReader(body)
		if err != nil {
			return fmt.Errorf("bad xz stream from %s: %w", url, err)
		}
		decompressed = xzr
	}

	return untar(decompressed, toWhere)
}

// untar extracts a tar stream into dest, rejecting entries that would escape
// it.
func untar(r io.Reader, dest string) error {
	if err := cache.Ensure(dest); err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dest, filepath.FromSlash(hdr.Name))
		rel, err := filepath.Rel(dest, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("archive entry %q escapes destination directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := cache.Ensure(target); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := cache.Ensure(filepath.Dir(target)); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return err
			}
		case tar.TypeReg:
			if err := cache.Ensure(filepath.Dir(target)); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode)&0777)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
	}
}
