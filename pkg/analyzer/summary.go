package analyzer

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"compass/pkg/detector"
	"compass/pkg/extractor"
	"compass/pkg/finder"
)

// Step names used in Outcome records.
const (
	StepMonorepo   = "monorepo"
	StepManifest   = "manifest"
	StepComponents = "components"
	StepWorkspaces = "workspaces"

	workspaceStepPrefix = "workspace:"
)

// Outcome records how one unit of analysis ended. Defaulted is set when the
// step fell back to its safe default; Err holds the cause, if any. Detail
// says what the step decided.
type Outcome struct {
	Step      string `json:"step"`
	Defaulted bool   `json:"defaulted"`
	Detail    string `json:"detail,omitempty"`
	Err       error  `json:"-"`
	Error     string `json:"error,omitempty"`
}

func newOutcome(step string, err error) Outcome {
	o := Outcome{Step: step, Err: err, Defaulted: err != nil}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// ManifestSummary is the concise projection of a root manifest.
type ManifestSummary struct {
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	Main        string `json:"main,omitempty"`
	Types       string `json:"types,omitempty"`
}

// WorkspaceSummary is the metadata of one declared workspace.
type WorkspaceSummary struct {
	Name string `json:"name"`
	// Path is the workspace path as declared in the root manifest.
	Path        string          `json:"path"`
	PackageJSON json.RawMessage `json:"packageJson,omitempty"`

	extractor.PackageDetails
}

// ProjectSummary is the result of one analysis. It is assembled once and
// owned by the caller.
type ProjectSummary struct {
	RootPath       string                      `json:"rootPath"`
	Monorepo       bool                        `json:"monorepo"`
	MonorepoTool   string                      `json:"monorepoTool,omitempty"`
	PackageManager detector.PackageManagerInfo `json:"packageManager"`
	// PackageJSON is the full root manifest in verbose mode, otherwise a
	// ManifestSummary.
	PackageJSON        json.RawMessage           `json:"packageJson"`
	Components         []finder.FoundComponent   `json:"components"`
	Metadata           extractor.PackageDetails  `json:"metadata"`
	DetectedFrameworks []extractor.FrameworkInfo `json:"detectedFrameworks"`
	UsedTools          []ToolInfo                `json:"usedTools"`
	ComponentCount     int                       `json:"componentCount"`
	Extensions         map[string]bool           `json:"extensions"`
	Workspaces         []WorkspaceSummary        `json:"workspaces"`
	Diagnostics        []Outcome                 `json:"diagnostics,omitempty"`
}

// Outcome returns the recorded outcome of a step.
func (s *ProjectSummary) Outcome(step string) (Outcome, bool) {
	for _, o := range s.Diagnostics {
		if o.Step == step {
			return o, true
		}
	}
	return Outcome{}, false
}

// Degraded lists the outcomes that fell back to a default.
func (s *ProjectSummary) Degraded() []Outcome {
	var out []Outcome
	for _, o := range s.Diagnostics {
		if o.Defaulted {
			out = append(out, o)
		}
	}
	return out
}

// BestComponentFolder returns the folder holding the most components.
func (s *ProjectSummary) BestComponentFolder() (string, bool) {
	return BestComponentFolder(s.Components)
}

// NestedComponentPaths lists components nested below the best folder.
func (s *ProjectSummary) NestedComponentPaths() []string {
	best, ok := s.BestComponentFolder()
	if !ok {
		return nil
	}
	return NestedComponentPaths(best, s.Components)
}

// promotedParents are folder names that group component folders.
var promotedParents = map[string]bool{"components": true, "ui": true}

// BestComponentFolder counts components per containing folder and returns
// the folder with the highest count, ties going to the lexicographically
// smallest path. When that folder sits inside a "components" or "ui" folder,
// the parent is returned instead. It reports false when there are no
// components.
func BestComponentFolder(components []finder.FoundComponent) (string, bool) {
	if len(components) == 0 {
		return "", false
	}

	counts := make(map[string]int)
	for _, c := range components {
		counts[filepath.Dir(c.Path)]++
	}

	best, top := "", 0
	for folder, n := range counts {
		if n > top || (n == top && folder < best) {
			best, top = folder, n
		}
	}

	parent := filepath.Dir(best)
	if promotedParents[filepath.Base(parent)] {
		return parent, true
	}
	return best, true
}

// NestedComponentPaths returns, relative to best, the component paths that
// sit at least one folder below it.
func NestedComponentPaths(best string, components []finder.FoundComponent) []string {
	if best == "" {
		return nil
	}
	var out []string
	for _, c := range components {
		rel, err := filepath.Rel(best, c.Path)
		if err != nil {
			continue
		}
		if len(strings.Split(rel, string(filepath.Separator))) > 1 {
			out = append(out, rel)
		}
	}
	return out
}
