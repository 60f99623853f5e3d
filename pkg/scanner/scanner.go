// Package scanner finds component files across a project and hands them to
// a Formatter.
package scanner

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"

	"compass/pkg/detector"
	"compass/pkg/finder"
	"compass/pkg/logging"
	"compass/pkg/manifest"
)

// Detector decides whether a path is a monorepo root.
type Detector interface {
	Detect(ctx context.Context, path string) detector.DetectionResult
}

// Finder lists the components under a path.
type Finder interface {
	Find(ctx context.Context, path string) []finder.FoundComponent
}

// Formatter shapes a component list into output. Format must not retain or
// modify components.
type Formatter[T any] interface {
	Format(components []finder.FoundComponent) T
}

// Scanner runs detection, component discovery and formatting.
type Scanner[T any] struct {
	detector  Detector
	finder    Finder
	formatter Formatter[T]
	reader    *manifest.Reader
	logger    *log.Logger
}

// New returns a Scanner. A nil reader or logger gets a private default.
func New[T any](d Detector, f Finder, formatter Formatter[T], reader *manifest.Reader, logger *log.Logger) *Scanner[T] {
	if reader == nil {
		reader = manifest.NewReader()
	}
	return &Scanner[T]{
		detector:  d,
		finder:    f,
		formatter: formatter,
		reader:    reader,
		logger:    logging.OrDiscard(logger),
	}
}

// Scan finds the components of the project at projectPath. A single package
// is searched from its root. For a monorepo, each workspace listed in the
// root manifest's array form is searched in declaration order and the
// results are concatenated; glob entries and the object form contribute
// nothing.
func (s *Scanner[T]) Scan(ctx context.Context, projectPath string) T {
	detection := s.detector.Detect(ctx, projectPath)
	if !detection.IsMonorepo {
		return s.formatter.Format(s.finder.Find(ctx, projectPath))
	}

	m, err := s.reader.ReadDir(projectPath)
	if err != nil {
		s.logger.Warn("cannot read root manifest", "path", projectPath, "err", err)
	}

	var roots []string
	if !m.Workspaces.Object {
		roots = m.Workspaces.Concrete()
	}

	all := []finder.FoundComponent{}
	for _, ws := range roots {
		if ctx.Err() != nil {
			break
		}
		s.logger.Debug("scanning workspace", "workspace", ws)
		all = append(all, s.finder.Find(ctx, filepath.Join(projectPath, ws))...)
	}
	return s.formatter.Format(all)
}
