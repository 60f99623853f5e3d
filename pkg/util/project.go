package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotDirectory is returned when a project path names a file.
var ErrNotDirectory = errors.New("not a directory")

// ValidateProjectPath validates and cleans a project path
// Returns the cleaned absolute path or an error
func ValidateProjectPath(projectPath string) (string, error) {
	projectPath = filepath.Clean(projectPath)

	info, err := os.Stat(projectPath)
	if err != nil {
		return "", fmt.Errorf("cannot access path '%s': %w", projectPath, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("path '%s' is %w", projectPath, ErrNotDirectory)
	}

	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return projectPath, nil // Return cleaned path if we can't get absolute
	}

	return absPath, nil
}

// ProjectName derives a display name from a project path: the base name of
// the directory, or of its absolute form for "." and "/".
func ProjectName(projectPath string) string {
	name := filepath.Base(filepath.Clean(projectPath))
	if name == "." || name == string(filepath.Separator) {
		if abs, err := filepath.Abs(projectPath); err == nil {
			name = filepath.Base(abs)
		}
	}
	return name
}
