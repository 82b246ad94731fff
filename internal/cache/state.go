package cache

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"lukechampine.com/blake3"
)

// StateFilename is the incremental build state stored inside the build cache
// directory.
const StateFilename = "aotc_build_state.json"

// BuildState records what the last successful native build consumed: source
// file hashes and the full builder argument list. When both match and the
// native output still exists, Compile+Link can be skipped.
type BuildState struct {
	Sources   map[string]string `json:"sources,omitempty"`
	Arguments []string          `json:"arguments,omitempty"`
}

// Hasher computes blake3 content hashes with a bounded in-memory cache, so
// planning and state updates within one invocation hash each file once.
type Hasher struct {
	cache *lru.Cache[string, string]
}

func NewHasher() *Hasher {
	cache, err := lru.New[string, string](4096)
	if err != nil {
		panic(err) // only fails for size <= 0
	}
	return &Hasher{cache: cache}
}

// FileHash returns the hex blake3 hash of a file's contents.
func (h *Hasher) FileHash(path string) (string, error) {
	if hash, ok := h.cache.Get(path); ok {
		return hash, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := blake3.New(32, nil)
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}

	hexHash := hex.EncodeToString(hasher.Sum(nil))
	h.cache.Add(path, hexHash)
	return hexHash, nil
}

// CollectSources globs the given patterns under root and returns the matching
// file paths relative to root, sorted for deterministic state comparison.
func CollectSources(root string, patterns ...string) ([]string, error) {
	fsys := os.DirFS(root)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to glob %s under %s: %w", pattern, root, err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// Snapshot hashes the given root-relative sources into a fresh BuildState.
func Snapshot(h *Hasher, root string, sources, arguments []string) (*BuildState, error) {
	state := &BuildState{
		Sources:   make(map[string]string, len(sources)),
		Arguments: slices.Clone(arguments),
	}
	for _, rel := range sources {
		hash, err := h.FileHash(filepath.Join(root, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to hash source %s: %w", rel, err)
		}
		state.Sources[rel] = hash
	}
	return state, nil
}

// Matches reports whether the saved state covers exactly the same sources
// with the same hashes and the same argument list.
func (s *BuildState) Matches(other *BuildState) bool {
	if s == nil || other == nil {
		return false
	}
	if !slices.Equal(s.Arguments, other.Arguments) {
		return false
	}
	if len(s.Sources) != len(other.Sources) {
		return false
	}
	for rel, hash := range s.Sources {
		if other.Sources[rel] != hash {
			return false
		}
	}
	return true
}

// LoadState reads the previous build state, returning nil (no error) when no
// state exists yet.
func LoadState(dir string) (*BuildState, error) {
	f, err := os.Open(filepath.Join(dir, StateFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	state := new(BuildState)
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(state); err != nil {
		return nil, err
	}
	return state, nil
}

// SaveState writes the build state into the build cache directory.
func SaveState(dir string, state *BuildState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, StateFilename), data, 0644)
}
