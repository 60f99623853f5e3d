// Package workspace expands workspace declarations into the package roots of
// a monorepo.
package workspace

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"compass/pkg/logging"
	"compass/pkg/manifest"
)

// IgnorePatterns exclude build output and installed dependencies from glob
// expansion.
var IgnorePatterns = []string{"**/node_modules/**", "**/dist/**", "**/build/**"}

// FallbackDirs are checked, in order, when no declaration yields a workspace.
// Immediate subdirectories of "packages" are included as well.
var FallbackDirs = []string{"packages", "apps", "src"}

// Source records where a resolved workspace list came from.
type Source string

const (
	SourceManifest Source = "manifest"
	SourcePnpm     Source = "pnpm-workspace"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// Resolution is the ordered set of existing workspace directories.
type Resolution struct {
	// Dirs are absolute directory paths, without duplicates.
	Dirs   []string
	Source Source
}

// Resolver expands workspace declarations against the filesystem.
type Resolver struct {
	reader *manifest.Reader
	logger *log.Logger
}

// NewResolver returns a Resolver reading manifests through reader. A nil
// reader gets a private one.
func NewResolver(reader *manifest.Reader, logger *log.Logger) *Resolver {
	if reader == nil {
		reader = manifest.NewReader()
	}
	return &Resolver{reader: reader, logger: logging.OrDiscard(logger)}
}

// Resolve returns the workspace roots of projectPath. Patterns come from the
// package.json "workspaces" field, or from pnpm-workspace.yaml when the
// manifest declares none. Glob patterns expand in filesystem order, literal
// paths are kept when they exist. When nothing resolves, conventional
// directories are used instead.
func (r *Resolver) Resolve(ctx context.Context, projectPath string) Resolution {
	root, err := filepath.Abs(projectPath)
	if err != nil {
		root = filepath.Clean(projectPath)
	}

	patterns, source := r.declarations(root)
	set := newDirSet()
	excluded := map[string]bool{}

	for _, p := range patterns {
		if ctx.Err() != nil {
			return Resolution{Dirs: set.dirs, Source: source}
		}
		switch {
		case strings.HasPrefix(p, "!"):
			for _, dir := range r.expand(root, strings.TrimPrefix(p, "!")) {
				excluded[dir] = true
			}
		case strings.Contains(p, "*"):
			for _, dir := range r.expand(root, p) {
				set.add(dir)
			}
		default:
			dir := filepath.Join(root, filepath.FromSlash(p))
			if isDir(dir) {
				set.add(dir)
			} else {
				r.logger.Warn("workspace path does not exist", "path", dir)
			}
		}
	}
	set.remove(excluded)

	if len(set.dirs) > 0 {
		r.logger.Debug("resolved workspaces", "root", root, "count", len(set.dirs), "source", source)
		return Resolution{Dirs: set.dirs, Source: source}
	}

	for _, name := range FallbackDirs {
		dir := filepath.Join(root, name)
		if !isDir(dir) {
			continue
		}
		set.add(dir)
		if name != "packages" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			r.logger.Warn("cannot list workspace directory", "path", dir, "err", err)
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				set.add(filepath.Join(dir, e.Name()))
			}
		}
	}
	if len(set.dirs) == 0 {
		return Resolution{Source: SourceNone}
	}
	r.logger.Debug("using conventional workspace directories", "root", root, "count", len(set.dirs))
	return Resolution{Dirs: set.dirs, Source: SourceFallback}
}

func (r *Resolver) declarations(root string) ([]string, Source) {
	m, err := r.reader.ReadDir(root)
	if err != nil {
		r.logger.Debug("root manifest unavailable", "root", root, "err", err)
	}
	if m.Workspaces.Declared {
		return m.Workspaces.Patterns, SourceManifest
	}
	patterns, err := manifest.ReadPnpmWorkspace(root)
	if err == nil && len(patterns) > 0 {
		return patterns, SourcePnpm
	}
	return nil, SourceNone
}

// expand matches a glob pattern below root and returns the matching
// directories that are not ignored.
func (r *Resolver) expand(root, pattern string) []string {
	pattern = path.Clean(strings.TrimPrefix(filepath.ToSlash(pattern), "./"))
	if !fs.ValidPath(pattern) || !doublestar.ValidatePattern(pattern) {
		r.logger.Warn("unsupported workspace pattern", "pattern", pattern)
		return nil
	}

	if !strings.ContainsAny(pattern, "*?[{") {
		dir := filepath.Join(root, filepath.FromSlash(pattern))
		if isDir(dir) {
			return []string{dir}
		}
		return nil
	}

	var out []string
	err := doublestar.GlobWalk(os.DirFS(root), pattern, func(p string, d fs.DirEntry) error {
		if !d.IsDir() || ignored(p) {
			return nil
		}
		out = append(out, filepath.Join(root, filepath.FromSlash(p)))
		return nil
	})
	if err != nil {
		r.logger.Error("cannot expand workspace pattern", "pattern", pattern, "err", err)
	}
	return out
}

// ignored reports whether a directory lies inside an ignored tree. A
// directory matches when any path below it would.
func ignored(p string) bool {
	child := path.Join(p, "_")
	for _, pat := range IgnorePatterns {
		if ok, _ := doublestar.Match(pat, child); ok {
			return true
		}
	}
	return false
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

type dirSet struct {
	dirs []string
	seen map[string]bool
}

func newDirSet() *dirSet {
	return &dirSet{seen: map[string]bool{}}
}

func (s *dirSet) add(dir string) {
	if s.seen[dir] {
		return
	}
	s.seen[dir] = true
	s.dirs = append(s.dirs, dir)
}

func (s *dirSet) remove(excluded map[string]bool) {
	if len(excluded) == 0 {
		return
	}
	kept := s.dirs[:0]
	for _, d := range s.dirs {
		if excluded[d] {
			delete(s.seen, d)
			continue
		}
		kept = append(kept, d)
	}
	s.dirs = kept
}
