package extractor

import (
	"fmt"
	"os"

	"compass/pkg/manifest"
)

type namedPattern struct {
	name    string
	pkgName string
}

// frameworkPatterns are checked in order; the first one present in the
// dependencies wins.
var frameworkPatterns = []namedPattern{
	{"react", "react"},
	{"vue", "vue"},
	{"svelte", "svelte"},
	{"angular", "@angular/core"},
	{"next", "next"},
	{"nuxt", "nuxt"},
	{"remix", "@remix-run/react"},
	{"gatsby", "gatsby"},
	{"astro", "astro"},
}

var utilityPatterns = []struct {
	category Category
	libs     []namedPattern
}{
	{CategoryStyling, []namedPattern{
		{"tailwindcss", "tailwindcss"},
		{"styled-components", "styled-components"},
		{"emotion", "@emotion/react"},
		{"sass", "sass"},
		{"less", "less"},
		{"postcss", "postcss"},
	}},
	{CategoryUtility, []namedPattern{
		{"clsx", "clsx"},
		{"classnames", "classnames"},
	}},
	{CategoryStateManagement, []namedPattern{
		{"redux", "redux"},
		{"mobx", "mobx"},
		{"zustand", "zustand"},
		{"recoil", "recoil"},
		{"jotai", "jotai"},
	}},
}

// PackageExtractor extracts manifest metadata using exact package names. It
// recognizes meta-frameworks and a fixed list of utility libraries, unlike
// the substring rules applied during project analysis.
type PackageExtractor struct{}

// NewPackageExtractor returns a PackageExtractor.
func NewPackageExtractor() *PackageExtractor {
	return &PackageExtractor{}
}

// Extract reads the manifest at path. Read and parse failures are returned.
func (PackageExtractor) Extract(path string) (PackageDetails, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PackageDetails{}, fmt.Errorf("read manifest: %w", err)
	}
	m, err := manifest.Parse(data)
	if err != nil {
		return PackageDetails{}, err
	}
	return ExtractPackage(m), nil
}

// ExtractPackage applies the exact-name rules to a parsed manifest.
// Versions are reported as declared.
func ExtractPackage(m *manifest.Manifest) PackageDetails {
	all := m.AllDependencies()
	return PackageDetails{
		Dependencies:     m.Dependencies.Clone(),
		DevDependencies:  m.DevDependencies.Clone(),
		Scripts:          m.Scripts.Clone(),
		Version:          m.VersionOrDefault(),
		Framework:        exactFramework(all),
		UtilityLibraries: exactUtilities(all),
	}
}

func exactFramework(deps manifest.OrderedMap) *FrameworkInfo {
	for _, p := range frameworkPatterns {
		if version, ok := deps.Get(p.pkgName); ok {
			return &FrameworkInfo{Name: p.name, Version: version, IsPrimary: true}
		}
	}
	return nil
}

func exactUtilities(deps manifest.OrderedMap) []UtilityLibrary {
	out := []UtilityLibrary{}
	for _, group := range utilityPatterns {
		for _, lib := range group.libs {
			if version, ok := deps.Get(lib.pkgName); ok {
				out = append(out, UtilityLibrary{Name: lib.name, Version: version, Category: group.category})
			}
		}
	}
	return out
}
