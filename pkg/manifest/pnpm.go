package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PnpmWorkspaceFile declares pnpm workspace packages.
const PnpmWorkspaceFile = "pnpm-workspace.yaml"

type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

// ReadPnpmWorkspace returns the "packages" patterns from dir's
// pnpm-workspace.yaml.
func ReadPnpmWorkspace(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, PnpmWorkspaceFile))
	if err != nil {
		return nil, err
	}
	var ws pnpmWorkspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("parse %s: %w", PnpmWorkspaceFile, err)
	}
	return ws.Packages, nil
}
