// Package fileset flattens a mix of files and directories into the flat
// name→path manifest the transfer engine uploads. Directory structure is
// encoded into the names only: "dir/nested/file.txt". The server never
// reconstructs it on download.
package fileset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Flatten maps manifest names to local paths. Top-level files keep their
// bare name; a file found under a directory is named by its slash-separated
// path relative to that directory's parent. Duplicate names across inputs
// overwrite silently, matching server behavior for duplicate manifest
// entries.
func Flatten(paths []string) (map[string]string, error) {
	out := make(map[string]string)

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}

		if !info.IsDir() {
			out[filepath.Base(p)] = p
			continue
		}

		parent := filepath.Dir(p)
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(parent, path)
			if err != nil {
				return err
			}
			out[filepath.ToSlash(rel)] = path
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
	}

	return out, nil
}

// EnsureDir creates dir (and parents) if needed and verifies it is a
// directory.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", dir)
	}
	return nil
}
