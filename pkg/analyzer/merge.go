package analyzer

import "compass/pkg/extractor"

// MergeMetadata folds workspace metadata into the root's, in the order given.
//
// Conflict policy:
//   - dependencies, devDependencies and scripts: last writer wins per key; a
//     key keeps the position where it first appeared.
//   - utility libraries: concatenated root first. Duplicates are kept unless
//     dedupe is set, in which case the first entry per (name, category) wins.
//   - framework: the root's if it has one, else the first workspace's that
//     has one.
//   - version: the root's.
func MergeMetadata(root extractor.PackageDetails, workspaces []extractor.PackageDetails, dedupe bool) extractor.PackageDetails {
	out := extractor.PackageDetails{
		Dependencies:     root.Dependencies.Clone(),
		DevDependencies:  root.DevDependencies.Clone(),
		Scripts:          root.Scripts.Clone(),
		Version:          root.Version,
		Framework:        root.Framework,
		UtilityLibraries: append([]extractor.UtilityLibrary{}, root.UtilityLibraries...),
	}

	for _, ws := range workspaces {
		out.Dependencies = out.Dependencies.Merge(ws.Dependencies)
		out.DevDependencies = out.DevDependencies.Merge(ws.DevDependencies)
		out.Scripts = out.Scripts.Merge(ws.Scripts)
		out.UtilityLibraries = append(out.UtilityLibraries, ws.UtilityLibraries...)
		if out.Framework == nil && ws.Framework != nil {
			out.Framework = ws.Framework
		}
	}

	if dedupe {
		out.UtilityLibraries = DedupeLibraries(out.UtilityLibraries)
	}
	return out
}

// DedupeLibraries keeps the first library per (name, category).
func DedupeLibraries(libs []extractor.UtilityLibrary) []extractor.UtilityLibrary {
	type key struct {
		name     string
		category extractor.Category
	}
	seen := make(map[key]bool, len(libs))
	out := make([]extractor.UtilityLibrary, 0, len(libs))
	for _, l := range libs {
		k := key{l.Name, l.Category}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}
	return out
}
