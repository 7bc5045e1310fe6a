// Package dotdir manages the .antfly/ and ~/.antfly directories.
//
// The directory holds config.toml, the local embedding store and recorded
// stream transcripts.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the antfly directory.
	dirName = ".antfly"

	// recordingsDir holds transcripts written by --record.
	recordingsDir = "recordings"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .antfly/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.antfly/ dir
//  3. Home ~/.antfly/ dir, created if missing
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating antfly directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// RecordingPath resolves where a transcript named name is written. Absolute
// paths and paths with a directory component are returned unchanged; bare
// file names land in the recordings/ directory under Target(overrideDir).
func (m *Manager) RecordingPath(overrideDir, name string) (string, error) {
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		return name, nil
	}

	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(target, recordingsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating recordings directory %s: %w", dir, err)
	}

	return filepath.Join(dir, name), nil
}

// localDirExists checks whether a .antfly/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
