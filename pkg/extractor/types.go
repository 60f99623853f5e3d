// Package extractor pulls metadata out of individual component files and
// package manifests.
package extractor

import (
	"compass/pkg/detector"
	"compass/pkg/manifest"
)

// Category classifies a utility library.
type Category string

const (
	CategoryStyling         Category = "styling"
	CategoryUtility         Category = "utility"
	CategoryStateManagement Category = "state-management"
	CategoryOther           Category = "other"
)

// FrameworkInfo names the UI framework a manifest depends on.
type FrameworkInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	IsPrimary bool   `json:"isPrimary"`
}

// UtilityLibrary is a categorized dependency.
type UtilityLibrary struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Category Category `json:"category"`
}

// PackageDetails is the metadata extracted from one manifest.
type PackageDetails struct {
	Dependencies     manifest.OrderedMap `json:"dependencies"`
	DevDependencies  manifest.OrderedMap `json:"devDependencies"`
	Scripts          manifest.OrderedMap `json:"scripts"`
	Version          string              `json:"version"`
	Framework        *FrameworkInfo      `json:"framework,omitempty"`
	UtilityLibraries []UtilityLibrary    `json:"utilityLibraries"`
}

// ErrExtractFailed is the marker carried by metadata for unreadable files.
const ErrExtractFailed = "Failed to extract metadata"

// ComponentMetadata describes one component source file.
type ComponentMetadata struct {
	Name      string             `json:"name"`
	Framework detector.Framework `json:"framework"`
	Size      int                `json:"size,omitempty"`
	Lines     int                `json:"lines,omitempty"`
	Imports   []string           `json:"imports,omitempty"`
	Exports   []string           `json:"exports,omitempty"`
	Hooks     []string           `json:"hooks,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Failed reports whether the metadata carries the extraction error marker.
func (m ComponentMetadata) Failed() bool {
	return m.Error != ""
}
