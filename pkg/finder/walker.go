package finder

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"compass/pkg/detector"
	"compass/pkg/extractor"
	"compass/pkg/logging"
)

// ComponentsDir is the conventional directory walked in priority mode.
const ComponentsDir = "components"

const classificationCacheSize = 8192

// FoundComponent is one component file discovered by a walk.
type FoundComponent struct {
	Path      string                       `json:"path"`
	Framework detector.Framework           `json:"framework"`
	Metadata  *extractor.ComponentMetadata `json:"metadata,omitempty"`
}

// Extractor produces per-file metadata. On failure it returns metadata
// carrying an error marker together with the error.
type Extractor interface {
	Extract(path string, framework detector.Framework) (extractor.ComponentMetadata, error)
}

type fileKey struct {
	name      string
	framework detector.Framework
}

// Walker recursively discovers component files below a root directory.
// Sibling entries are processed concurrently; directory listings and
// extractions are bounded by a shared semaphore. Classification decisions
// are cached for the walker's lifetime.
type Walker struct {
	extractor Extractor
	logger    *log.Logger
	sem       *semaphore.Weighted

	dirCache  *lru.Cache[string, bool]
	fileCache *lru.Cache[fileKey, bool]
}

// NewWalker returns a walker running at most concurrency filesystem
// operations at a time. A nil extractor gets a fresh ComponentExtractor.
func NewWalker(ext Extractor, concurrency int, logger *log.Logger) *Walker {
	if ext == nil {
		ext = extractor.NewComponentExtractor(0)
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	dirCache, _ := lru.New[string, bool](classificationCacheSize)
	fileCache, _ := lru.New[fileKey, bool](classificationCacheSize)
	return &Walker{
		extractor: ext,
		logger:    logging.OrDiscard(logger),
		sem:       semaphore.NewWeighted(int64(concurrency)),
		dirCache:  dirCache,
		fileCache: fileCache,
	}
}

// Walk returns the component files below root for the given framework,
// sorted by path. Unreadable directories contribute nothing; a missing root
// yields an empty result.
func (w *Walker) Walk(ctx context.Context, root string, framework detector.Framework) []FoundComponent {
	found, _ := w.WalkExcept(ctx, root, framework, nil)
	return found
}

// WalkExcept is Walk without descending into the given directories, which
// are walked separately by the caller. The error joins the failures of the
// directories that could not be listed; missing directories and
// cancellation are not reported.
func (w *Walker) WalkExcept(ctx context.Context, root string, framework detector.Framework, except []string) ([]FoundComponent, error) {
	st := &walkState{framework: framework, skip: make(map[string]bool, len(except))}
	for _, dir := range except {
		st.skip[filepath.Clean(dir)] = true
	}

	w.walkDir(ctx, st, root, strings.EqualFold(filepath.Base(root), ComponentsDir))

	sort.Slice(st.found, func(i, j int) bool { return st.found[i].Path < st.found[j].Path })
	return st.found, errors.Join(st.errs...)
}

type walkState struct {
	framework detector.Framework
	skip      map[string]bool

	mu    sync.Mutex
	found []FoundComponent
	errs  []error
}

func (st *walkState) emit(c FoundComponent) {
	st.mu.Lock()
	st.found = append(st.found, c)
	st.mu.Unlock()
}

func (st *walkState) fail(err error) {
	st.mu.Lock()
	st.errs = append(st.errs, err)
	st.mu.Unlock()
}

// walkDir lists dir and handles its entries. In priority mode, entered at a
// components directory, symlinks to regular files are accepted as candidates
// too. Components subdirectories are scheduled ahead of their siblings.
func (w *Walker) walkDir(ctx context.Context, st *walkState, dir string, priority bool) {
	entries, err := w.readDir(ctx, dir)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case ctx.Err() != nil:
		default:
			w.logger.Error("cannot read directory", "dir", dir, "err", err)
			st.fail(err)
		}
		return
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return isComponentsDir(entries[i]) && !isComponentsDir(entries[j])
	})

	var g errgroup.Group
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if IsIgnoredPath(filepath.ToSlash(full)) {
			continue
		}

		if entry.IsDir() {
			if w.ignoredDir(entry.Name()) || st.skip[full] {
				continue
			}
			childPriority := priority || isComponentsDir(entry)
			if childPriority && !priority {
				w.logger.Debug("walking components directory", "dir", full)
			}
			g.Go(func() error {
				w.walkDir(ctx, st, full, childPriority)
				return nil
			})
			continue
		}

		if !w.isCandidate(entry, full, priority) || !w.componentFile(entry.Name(), st.framework) {
			continue
		}
		g.Go(func() error {
			if c, ok := w.process(ctx, full, st.framework); ok {
				st.emit(c)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (w *Walker) readDir(ctx context.Context, dir string) ([]os.DirEntry, error) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer w.sem.Release(1)
	return os.ReadDir(dir)
}

func (w *Walker) process(ctx context.Context, path string, framework detector.Framework) (FoundComponent, bool) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return FoundComponent{}, false
	}
	md, err := w.extractor.Extract(path, framework)
	w.sem.Release(1)
	if err != nil {
		w.logger.Warn("component metadata unavailable", "path", path, "err", err)
		if !md.Failed() {
			md = extractor.FailedMetadata(path, framework)
		}
	}
	return FoundComponent{Path: path, Framework: framework, Metadata: &md}, true
}

func (w *Walker) isCandidate(entry os.DirEntry, full string, priority bool) bool {
	if entry.Type().IsRegular() {
		return true
	}
	if !priority || entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(full)
	return err == nil && fi.Mode().IsRegular()
}

func (w *Walker) ignoredDir(name string) bool {
	if v, ok := w.dirCache.Get(name); ok {
		return v
	}
	v := IsIgnoredDir(name)
	w.dirCache.Add(name, v)
	return v
}

func (w *Walker) componentFile(name string, framework detector.Framework) bool {
	key := fileKey{name: name, framework: framework}
	if v, ok := w.fileCache.Get(key); ok {
		return v
	}
	v := IsComponentFile(name, framework)
	w.fileCache.Add(key, v)
	return v
}

func isComponentsDir(entry os.DirEntry) bool {
	return entry.IsDir() && strings.EqualFold(entry.Name(), ComponentsDir)
}
