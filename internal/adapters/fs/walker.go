// Package fs provides file system adapters for walking and fingerprinting
// workspace inputs.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files under root, skipping .git and ignored entries.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				if w.skipDir(d.Name(), ignores) {
					return filepath.SkipDir
				}
				return nil
			}

			if matchesIgnore(d.Name(), ignores) {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}

			return nil
		})
	}
}

// skipDir checks if a directory should be pruned from the walk.
func (w *Walker) skipDir(name string, ignores []string) bool {
	// Always skip .git and .jj
	if name == ".git" || name == ".jj" {
		return true
	}
	return matchesIgnore(name, ignores)
}

func matchesIgnore(name string, ignores []string) bool {
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
