package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/nixplan/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes the workspace input fingerprint recorded in the plan.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// ComputeFingerprint hashes the given files relative to root in sorted order.
// Directories are expanded through the walker. The fingerprint covers both
// the relative path and the content of each file, so a rename changes it.
func (h *Hasher) ComputeFingerprint(root string, paths []string) (string, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	hasher := xxhash.New()
	for _, rel := range sorted {
		path := filepath.Join(root, rel)

		info, err := os.Stat(path)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to stat input"), "path", path)
		}

		if info.IsDir() {
			for filePath := range h.walker.WalkFiles(path, nil) {
				relPath, err := filepath.Rel(root, filePath)
				if err != nil {
					return "", zerr.With(zerr.Wrap(err, "failed to relativize input"), "path", filePath)
				}
				if err := h.hashFile(filePath, relPath, hasher); err != nil {
					return "", err
				}
			}
			continue
		}

		if err := h.hashFile(path, rel, hasher); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// hashFile feeds the root-relative name and the content hash of one file
// into the fingerprint. The name is slash-normalized so the fingerprint is
// identical across workspace locations and platforms.
func (h *Hasher) hashFile(path, rel string, mainHasher io.Writer) error {
	_, _ = mainHasher.Write([]byte(filepath.ToSlash(rel)))
	_, _ = mainHasher.Write([]byte{0})

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}
