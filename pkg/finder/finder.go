// Package finder discovers UI component files in single packages and
// monorepos.
package finder

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"compass/pkg/detector"
	"compass/pkg/logging"
	"compass/pkg/manifest"
	"compass/pkg/workspace"
)

// DefaultConcurrency bounds simultaneous filesystem operations when Options
// leaves it unset.
const DefaultConcurrency = 16

// skippedWorkspace matches workspaces that hold no shippable components.
var skippedWorkspace = regexp.MustCompile(`/(playground|examples|demo|sandbox)`)

// Options configures a Finder. Zero values get private defaults; pass shared
// collaborators to reuse their caches within one analysis run.
type Options struct {
	Concurrency int
	Logger      *log.Logger
	Reader      *manifest.Reader
	Frameworks  *detector.FrameworkDetector
	Resolver    *workspace.Resolver
	Extractor   Extractor
}

// Finder locates component files under a project, walking each workspace
// of a monorepo with the framework detected for it.
type Finder struct {
	logger     *log.Logger
	reader     *manifest.Reader
	frameworks *detector.FrameworkDetector
	resolver   *workspace.Resolver
	walker     *Walker
}

// New builds a Finder from opts.
func New(opts Options) *Finder {
	logger := logging.OrDiscard(opts.Logger)
	reader := opts.Reader
	if reader == nil {
		reader = manifest.NewReader()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	f := &Finder{
		logger:     logger,
		reader:     reader,
		frameworks: opts.Frameworks,
		resolver:   opts.Resolver,
		walker:     NewWalker(opts.Extractor, opts.Concurrency, logger),
	}
	if f.frameworks == nil {
		f.frameworks = detector.NewFrameworkDetector(reader, logger)
	}
	if f.resolver == nil {
		f.resolver = workspace.NewResolver(reader, logger)
	}
	return f
}

// Result is the outcome of one discovery run.
type Result struct {
	Components []FoundComponent
	// Workspaces is the number of workspace directories walked; zero when
	// the project was walked from its root.
	Workspaces int
	Source     workspace.Source
	// Err joins the failures of directories that could not be listed.
	Err error
}

// Find returns every component under projectPath, ordered react first, then
// vue, then the rest, each group sorted by path.
func (f *Finder) Find(ctx context.Context, projectPath string) []FoundComponent {
	return f.Discover(ctx, projectPath).Components
}

// Discover is Find with the provenance of the walk. Workspaces are walked
// one by one only when the root declares them, through the manifest
// "workspaces" field or pnpm-workspace.yaml. Anything else, including a
// declaration that resolves to no directory, is walked from the root.
func (f *Finder) Discover(ctx context.Context, projectPath string) Result {
	if !f.declaresWorkspaces(projectPath) {
		found, err := f.FindIn(ctx, projectPath)
		return Result{Components: SortByPriority(found), Err: err}
	}

	resolution := f.resolver.Resolve(ctx, projectPath)
	if resolution.Source == workspace.SourceNone {
		f.logger.Info("declared workspaces resolve to nothing, walking project root", "path", projectPath)
		found, err := f.FindIn(ctx, projectPath)
		return Result{Components: SortByPriority(found), Source: resolution.Source, Err: err}
	}
	f.logger.Info("found workspaces in monorepo", "count", len(resolution.Dirs), "source", resolution.Source)

	var (
		mu   sync.Mutex
		all  []FoundComponent
		errs []error
		n    int
	)
	var g errgroup.Group
	for _, ws := range resolution.Dirs {
		ws := ws
		if skippedWorkspace.MatchString(filepath.ToSlash(ws)) {
			f.logger.Debug("skipping non-component workspace", "workspace", ws)
			continue
		}
		n++
		nested := nestedWorkspaces(ws, resolution.Dirs)
		g.Go(func() error {
			found, err := f.findIn(ctx, ws, nested)
			mu.Lock()
			all = append(all, found...)
			if err != nil {
				errs = append(errs, err)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return Result{
		Components: SortByPriority(all),
		Workspaces: n,
		Source:     resolution.Source,
		Err:        errors.Join(errs...),
	}
}

// FindIn walks a single package directory with its detected framework. The
// result is sorted by path.
func (f *Finder) FindIn(ctx context.Context, dir string) ([]FoundComponent, error) {
	return f.findIn(ctx, dir, nil)
}

func (f *Finder) declaresWorkspaces(projectPath string) bool {
	m, err := f.reader.ReadDir(projectPath)
	if err != nil {
		f.logger.Debug("root manifest unavailable", "path", projectPath, "err", err)
	}
	if m.Workspaces.Declared {
		return true
	}
	return detector.NewDirReader(projectPath).Has(manifest.PnpmWorkspaceFile)
}

func (f *Finder) findIn(ctx context.Context, dir string, except []string) ([]FoundComponent, error) {
	if _, err := os.Stat(dir); err != nil {
		f.logger.Warn("directory does not exist or cannot be accessed", "dir", dir, "err", err)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	framework := f.frameworks.Detect(ctx, dir)
	f.logger.Debug("walking package", "dir", dir, "framework", framework)
	return f.walker.WalkExcept(ctx, dir, framework, except)
}

// nestedWorkspaces returns the workspaces located below dir. Each of them is
// walked on its own, so dir's walk leaves them out.
func nestedWorkspaces(dir string, all []string) []string {
	prefix := dir + string(filepath.Separator)
	var out []string
	for _, other := range all {
		if strings.HasPrefix(other, prefix) {
			out = append(out, other)
		}
	}
	return out
}

// SortByPriority orders components react first, vue second and everything
// else last, by path within each group. The input is not modified.
func SortByPriority(components []FoundComponent) []FoundComponent {
	out := make([]FoundComponent, len(components))
	copy(out, components)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := priorityRank(out[i].Framework), priorityRank(out[j].Framework)
		if ri != rj {
			return ri < rj
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func priorityRank(f detector.Framework) int {
	switch f {
	case detector.React:
		return 0
	case detector.Vue:
		return 1
	default:
		return 2
	}
}
