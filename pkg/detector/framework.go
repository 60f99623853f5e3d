package detector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"compass/pkg/logging"
	"compass/pkg/manifest"
)

// Framework is the closed set of UI framework tags.
type Framework string

const (
	React   Framework = "react"
	Vue     Framework = "vue"
	Svelte  Framework = "svelte"
	Angular Framework = "angular"
	Unknown Framework = "unknown"
)

// Frameworks lists the known tags in detection priority order.
var Frameworks = []Framework{React, Vue, Svelte, Angular}

var frameworkExtensions = map[Framework][]string{
	React:   {".jsx", ".tsx"},
	Vue:     {".vue"},
	Svelte:  {".svelte"},
	Angular: {".component.ts", ".component.html"},
	Unknown: {".js", ".jsx", ".ts", ".tsx", ".vue", ".svelte"},
}

// Extensions returns the file extensions associated with a framework. Tags
// outside the closed set get the unknown set.
func Extensions(f Framework) []string {
	exts, ok := frameworkExtensions[f]
	if !ok {
		exts = frameworkExtensions[Unknown]
	}
	out := make([]string, len(exts))
	copy(out, exts)
	return out
}

// ParseFramework maps a string to a tag, returning Unknown for anything
// outside the closed set.
func ParseFramework(s string) Framework {
	switch f := Framework(strings.ToLower(strings.TrimSpace(s))); f {
	case React, Vue, Svelte, Angular:
		return f
	}
	return Unknown
}

// dependencyRules maps manifest dependency names to tags, in priority order.
var dependencyRules = []struct {
	framework Framework
	packages  []string
}{
	{React, []string{"react", "react-dom"}},
	{Vue, []string{"vue"}},
	{Svelte, []string{"svelte"}},
	{Angular, []string{"@angular/core"}},
}

// FrameworkFromDependencies returns the first tag whose package appears in
// deps with a non-empty version.
func FrameworkFromDependencies(deps manifest.OrderedMap) (Framework, bool) {
	for _, rule := range dependencyRules {
		for _, pkg := range rule.packages {
			if deps.Has(pkg) {
				return rule.framework, true
			}
		}
	}
	return Unknown, false
}

// errAbort stops the strategy chain and degrades the result to Unknown.
var errAbort = errors.New("framework detection aborted")

type frameworkStrategy struct {
	name   string
	detect func(ctx context.Context, dir string) (Framework, bool, error)
}

// FrameworkDetector infers the UI framework used in a directory by running
// an ordered list of strategies: path hints, manifest dependencies, then file
// extensions. The first strategy that yields a tag wins. A strategy error
// ends the chain with Unknown.
type FrameworkDetector struct {
	reader     *manifest.Reader
	logger     *log.Logger
	strategies []frameworkStrategy
}

// NewFrameworkDetector builds a detector reading manifests through reader.
// A nil reader gets a private one.
func NewFrameworkDetector(reader *manifest.Reader, logger *log.Logger) *FrameworkDetector {
	if reader == nil {
		reader = manifest.NewReader()
	}
	d := &FrameworkDetector{
		reader: reader,
		logger: logging.OrDiscard(logger),
	}
	d.strategies = []frameworkStrategy{
		{name: "path", detect: d.fromPath},
		{name: "manifest", detect: d.fromManifest},
		{name: "extensions", detect: d.fromExtensions},
	}
	return d
}

// Detect returns the framework tag for dir. It never fails; any I/O problem
// degrades to Unknown.
func (d *FrameworkDetector) Detect(ctx context.Context, dir string) Framework {
	for _, s := range d.strategies {
		if err := ctx.Err(); err != nil {
			return Unknown
		}
		f, ok, err := s.detect(ctx, dir)
		if err != nil {
			d.logger.Debug("framework detection degraded", "dir", dir, "strategy", s.name, "err", err)
			return Unknown
		}
		if ok {
			d.logger.Debug("framework detected", "dir", dir, "strategy", s.name, "framework", f)
			return f
		}
	}
	return Unknown
}

func (d *FrameworkDetector) fromPath(_ context.Context, dir string) (Framework, bool, error) {
	for _, f := range Frameworks {
		if strings.Contains(dir, string(f)) {
			return f, true, nil
		}
	}
	return Unknown, false, nil
}

func (d *FrameworkDetector) fromManifest(ctx context.Context, dir string) (Framework, bool, error) {
	m, err := d.reader.ReadDir(dir)
	if err != nil {
		return Unknown, false, fmt.Errorf("%w: %w", errAbort, err)
	}
	visited := map[string]bool{filepath.Clean(dir): true}
	if f, ok := d.fromWorkspaces(ctx, dir, m, visited); ok {
		return f, true, nil
	}
	f, ok := FrameworkFromDependencies(m.AllDependencies())
	return f, ok, nil
}

// fromWorkspaces checks each concrete workspace manifest declared by m, and
// the workspaces those declare in turn.
func (d *FrameworkDetector) fromWorkspaces(ctx context.Context, dir string, m *manifest.Manifest, visited map[string]bool) (Framework, bool) {
	for _, ws := range m.Workspaces.Concrete() {
		if ctx.Err() != nil {
			return Unknown, false
		}
		wsDir := filepath.Clean(filepath.Join(dir, ws))
		if visited[wsDir] {
			continue
		}
		visited[wsDir] = true

		wm, err := d.reader.ReadDir(wsDir)
		if err != nil {
			continue
		}
		if f, ok := FrameworkFromDependencies(wm.AllDependencies()); ok {
			return f, true
		}
		if f, ok := d.fromWorkspaces(ctx, wsDir, wm, visited); ok {
			return f, true
		}
	}
	return Unknown, false
}

func (d *FrameworkDetector) fromExtensions(_ context.Context, dir string) (Framework, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Unknown, false, fmt.Errorf("%w: %w", errAbort, err)
	}
	for _, e := range entries {
		if f, ok := frameworkForFile(e.Name()); ok {
			return f, true, nil
		}
	}
	return Unknown, false, nil
}

func frameworkForFile(name string) (Framework, bool) {
	for _, f := range Frameworks {
		for _, ext := range frameworkExtensions[f] {
			if strings.HasSuffix(name, ext) {
				return f, true
			}
		}
	}
	return Unknown, false
}
