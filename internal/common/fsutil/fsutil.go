// Package fsutil holds the small filesystem helpers shared by config,
// staging and the weights registry.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrIsDir is returned by RegularFile for directories.
var ErrIsDir = errors.New("path is a directory")

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// ~/weights/GPT_weights_v2ProPlus
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// PathExists reports whether path exists. Stat errors other than
// not-exist (permissions) count as existing.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// RegularFile returns nil when path names something that can be opened as
// a file: it exists and is not a directory.
func RegularFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrIsDir)
	}
	return nil
}

// EnsureDir creates dir (and parents) with mode 0700 if missing.
func EnsureDir(dir string) error {
	if dir == "" {
		return errors.New("empty directory path")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
