package detector

import (
	"io/fs"
	"os"

	"gopkg.in/ini.v1"
)

// Package manager names.
const (
	PackageManagerBun       = "bun"
	PackageManagerYarnBerry = "yarn-berry"
	PackageManagerPnpm      = "pnpm"
	PackageManagerYarn      = "yarn"
	PackageManagerNpm       = "npm"
)

// NpmrcFile is the per-project npm configuration file.
const NpmrcFile = ".npmrc"

// PackageManagerInfo describes the package manager a project uses.
type PackageManagerInfo struct {
	Name string `json:"name"`
	// Lockfile is the file that identified the manager, empty for the npm default.
	Lockfile   string `json:"lockfile,omitempty"`
	Registry   string `json:"registry,omitempty"`
	NodeLinker string `json:"nodeLinker,omitempty"`
}

var packageManagerMarkers = []struct {
	name  string
	files []string
}{
	{PackageManagerBun, []string{"bun.lockb", "bun.lock"}},
	{PackageManagerYarnBerry, []string{".yarnrc.yml"}},
	{PackageManagerPnpm, []string{"pnpm-lock.yaml"}},
	{PackageManagerYarn, []string{"yarn.lock"}},
	{PackageManagerNpm, []string{"package-lock.json"}},
}

// DetectPackageManager detects the JavaScript package manager used in root
func DetectPackageManager(root string) PackageManagerInfo {
	return DetectPackageManagerFS(os.DirFS(root))
}

// DetectPackageManagerFS detects the package manager from lockfiles in fsys
// and reads registry settings from .npmrc when present.
func DetectPackageManagerFS(fsys fs.FS) PackageManagerInfo {
	reader := NewFSReader(fsys)

	info := PackageManagerInfo{Name: PackageManagerNpm}
	for _, m := range packageManagerMarkers {
		if file, ok := reader.First(m.files...); ok {
			info.Name = m.name
			info.Lockfile = file
			break
		}
	}

	if data := reader.Read(NpmrcFile); data != nil {
		info.Registry, info.NodeLinker = parseNpmrc(data)
	}
	return info
}

func parseNpmrc(data []byte) (registry, nodeLinker string) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		KeyValueDelimiters:  "=",
		IgnoreInlineComment: true,
		AllowBooleanKeys:    true,
	}, data)
	if err != nil {
		return "", ""
	}
	section := cfg.Section(ini.DefaultSection)
	return section.Key("registry").String(), section.Key("node-linker").String()
}

// InstallCommand returns the install command for the given package manager
func InstallCommand(pm string) string {
	switch pm {
	case PackageManagerBun:
		return "bun install"
	case PackageManagerPnpm:
		return "pnpm install"
	case PackageManagerYarn, PackageManagerYarnBerry:
		return "yarn install"
	default:
		return "npm install"
	}
}

// RunCommand returns the command that runs a package script
func RunCommand(pm string, script string) string {
	switch pm {
	case PackageManagerYarn, PackageManagerYarnBerry:
		return "yarn " + script
	case PackageManagerBun, PackageManagerPnpm:
		return pm + " run " + script
	default:
		return "npm run " + script
	}
}
