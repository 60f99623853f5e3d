package analyzer

import (
	"strings"

	"compass/pkg/extractor"
	"compass/pkg/manifest"
)

// Tool categories reported on ToolInfo.
const (
	ToolBundler    = "bundler"
	ToolTranspiler = "transpiler"
	ToolLinter     = "linter"
	ToolFormatter  = "formatter"
	ToolTesting    = "testing"
	ToolLanguage   = "language"
	ToolOther      = "other"
)

// ToolInfo is a build or development tool found among the dependencies.
type ToolInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Category string `json:"category"`
}

// frameworkHints select the framework dependency by substring.
var frameworkHints = []string{"react", "vue", "angular", "svelte"}

var utilityRules = []struct {
	category extractor.Category
	hints    []string
}{
	{extractor.CategoryStyling, []string{"styled", "css", "sass", "less"}},
	{extractor.CategoryStateManagement, []string{"redux", "mobx", "recoil", "zustand"}},
	{extractor.CategoryUtility, []string{"lodash", "date-fns", "axios"}},
}

// toolHints select which dependencies are reported as tools.
var toolHints = []string{"webpack", "vite", "babel", "eslint", "prettier", "jest", "typescript"}

var toolRules = []struct {
	category string
	hints    []string
}{
	{ToolBundler, []string{"webpack", "vite"}},
	{ToolTranspiler, []string{"babel"}},
	{ToolLinter, []string{"eslint"}},
	{ToolFormatter, []string{"prettier"}},
	{ToolTesting, []string{"jest", "mocha"}},
	{ToolLanguage, []string{"typescript"}},
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// extractMetadata applies the substring rules to one manifest. Every
// dependency becomes a utility library, categorized coarsely.
func extractMetadata(m *manifest.Manifest) extractor.PackageDetails {
	d := extractor.PackageDetails{
		Dependencies:     m.Dependencies.Clone(),
		DevDependencies:  m.DevDependencies.Clone(),
		Scripts:          m.Scripts.Clone(),
		Version:          m.VersionOrDefault(),
		Framework:        frameworkFromDependencies(m.Dependencies),
		UtilityLibraries: []extractor.UtilityLibrary{},
	}
	m.AllDependencies().Each(func(name, version string) {
		d.UtilityLibraries = append(d.UtilityLibraries, extractor.UtilityLibrary{
			Name:     name,
			Version:  manifest.CleanVersion(version),
			Category: CategorizeLibrary(name),
		})
	})
	return d
}

// frameworkFromDependencies returns the first dependency, in declaration
// order, whose name mentions a UI framework. Only react matches are primary.
func frameworkFromDependencies(deps manifest.OrderedMap) *extractor.FrameworkInfo {
	var info *extractor.FrameworkInfo
	deps.Each(func(name, version string) {
		if info != nil || !containsAny(name, frameworkHints) {
			return
		}
		info = &extractor.FrameworkInfo{
			Name:      name,
			Version:   manifest.CleanVersion(version),
			IsPrimary: strings.Contains(name, "react"),
		}
	})
	return info
}

// CategorizeLibrary assigns a utility category by substring.
func CategorizeLibrary(name string) extractor.Category {
	for _, r := range utilityRules {
		if containsAny(name, r.hints) {
			return r.category
		}
	}
	return extractor.CategoryOther
}

// CategorizeTool assigns a tool category by substring.
func CategorizeTool(name string) string {
	for _, r := range toolRules {
		if containsAny(name, r.hints) {
			return r.category
		}
	}
	return ToolOther
}

// usedTools lists the well-known tools among deps, in order.
func usedTools(deps manifest.OrderedMap) []ToolInfo {
	tools := []ToolInfo{}
	deps.Each(func(name, version string) {
		if !containsAny(name, toolHints) {
			return
		}
		tools = append(tools, ToolInfo{
			Name:     name,
			Version:  manifest.CleanVersion(version),
			Category: CategorizeTool(name),
		})
	})
	return tools
}
