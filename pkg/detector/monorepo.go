package detector

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"compass/pkg/logging"
	"compass/pkg/manifest"
)

// MarkerFiles are root-level files that identify a monorepo on their own.
var MarkerFiles = []string{
	"lerna.json",
	manifest.PnpmWorkspaceFile,
	"rush.json",
	"nx.json",
	"turbo.json",
}

// Monorepo tool names reported on DetectionResult.Tool.
const (
	ToolTurborepo      = "turborepo"
	ToolNx             = "nx"
	ToolLerna          = "lerna"
	ToolPnpmWorkspaces = "pnpm-workspaces"
	ToolRush           = "rush"
	ToolYarnWorkspaces = "yarn-workspaces"
	ToolNpmWorkspaces  = "npm-workspaces"
	ToolBunWorkspaces  = "bun-workspaces"
)

var toolMarkers = []struct {
	file string
	tool string
}{
	{"turbo.json", ToolTurborepo},
	{"nx.json", ToolNx},
	{"lerna.json", ToolLerna},
	{manifest.PnpmWorkspaceFile, ToolPnpmWorkspaces},
	{"rush.json", ToolRush},
}

// DetectionResult is the outcome of monorepo detection for one project root.
type DetectionResult struct {
	RootPath   string `json:"rootPath"`
	IsMonorepo bool   `json:"isMonorepo"`
	// Tool names the workspace tooling, when it can be identified.
	Tool string `json:"tool,omitempty"`
	// Reason names the strategy that decided IsMonorepo.
	Reason string `json:"reason,omitempty"`
	// Err is the failure that ended detection early, if any.
	Err error `json:"-"`
}

// Reason values reported on DetectionResult.
const (
	ReasonMarker     = "marker"
	ReasonWorkspaces = "workspaces"
	ReasonManifests  = "manifests"
)

// errStopWalk ends the manifest count once the answer is known.
var errStopWalk = errors.New("stop walk")

// A strategy error ends detection with IsMonorepo false.
type monorepoStrategy struct {
	name   string
	detect func(ctx context.Context, root string) (bool, error)
}

// MonorepoDetector decides whether a project root is a multi-package
// workspace. Results are memoized per absolute path for the detector's
// lifetime and concurrent callers for the same path share one computation.
type MonorepoDetector struct {
	reader     *manifest.Reader
	logger     *log.Logger
	strategies []monorepoStrategy

	group singleflight.Group
	mu    sync.Mutex
	memo  map[string]DetectionResult
}

// NewMonorepoDetector builds a detector reading manifests through reader.
// A nil reader gets a private one.
func NewMonorepoDetector(reader *manifest.Reader, logger *log.Logger) *MonorepoDetector {
	if reader == nil {
		reader = manifest.NewReader()
	}
	d := &MonorepoDetector{
		reader: reader,
		logger: logging.OrDiscard(logger),
		memo:   make(map[string]DetectionResult),
	}
	d.strategies = []monorepoStrategy{
		{name: ReasonMarker, detect: d.hasMarker},
		{name: ReasonWorkspaces, detect: d.hasConcreteWorkspaces},
		{name: ReasonManifests, detect: d.hasNestedManifests},
	}
	return d
}

// Detect reports whether projectPath is a monorepo. It never fails: a root
// manifest that cannot be read or parsed, or a failed manifest count, ends
// detection with IsMonorepo false and the cause in Err.
func (d *MonorepoDetector) Detect(ctx context.Context, projectPath string) DetectionResult {
	key, err := filepath.Abs(projectPath)
	if err != nil {
		key = filepath.Clean(projectPath)
	}

	d.mu.Lock()
	res, ok := d.memo[key]
	d.mu.Unlock()
	if ok {
		res.RootPath = projectPath
		return res
	}

	v, _, _ := d.group.Do(key, func() (any, error) {
		r := d.detect(ctx, projectPath)
		if ctx.Err() == nil {
			d.mu.Lock()
			d.memo[key] = r
			d.mu.Unlock()
		}
		return r, nil
	})
	res = v.(DetectionResult)
	res.RootPath = projectPath
	return res
}

func (d *MonorepoDetector) detect(ctx context.Context, root string) DetectionResult {
	res := DetectionResult{RootPath: root}
	for _, s := range d.strategies {
		if ctx.Err() != nil {
			break
		}
		ok, err := s.detect(ctx, root)
		if err != nil {
			res.Err = err
			d.logger.Debug("monorepo detection stopped", "root", root, "strategy", s.name, "err", err)
			break
		}
		if ok {
			res.IsMonorepo = true
			res.Reason = s.name
			res.Tool = d.identifyTool(root)
			break
		}
	}
	d.logger.Debug("monorepo detection", "root", root, "monorepo", res.IsMonorepo, "reason", res.Reason, "tool", res.Tool)
	return res
}

func (d *MonorepoDetector) hasMarker(_ context.Context, root string) (bool, error) {
	_, ok := NewDirReader(root).First(MarkerFiles...)
	return ok, nil
}

func (d *MonorepoDetector) hasConcreteWorkspaces(_ context.Context, root string) (bool, error) {
	m, err := d.reader.ReadDir(root)
	if err != nil {
		return false, fmt.Errorf("root manifest: %w", err)
	}
	return len(m.Workspaces.Concrete()) > 0, nil
}

// hasNestedManifests reports whether more than one package.json exists in
// the subtree, skipping hidden directories.
func (d *MonorepoDetector) hasNestedManifests(ctx context.Context, root string) (bool, error) {
	count, err := CountManifests(ctx, root, 2)
	if err != nil {
		return false, fmt.Errorf("count manifests: %w", err)
	}
	return count > 1, nil
}

// CountManifests counts package.json files under root, skipping hidden
// directories. Counting stops once limit is reached; limit <= 0 counts all.
// Unreadable subdirectories are skipped.
func CountManifests(ctx context.Context, root string, limit int) (int, error) {
	count := 0
	err := fs.WalkDir(os.DirFS(root), ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if p != "." && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if entry.Name() == manifest.FileName {
			count++
			if limit > 0 && count >= limit {
				return errStopWalk
			}
		}
		return nil
	})
	if errors.Is(err, errStopWalk) {
		err = nil
	}
	return count, err
}

// identifyTool names the workspace tooling at root from marker files, then
// from the package manager behind a manifest workspace declaration.
func (d *MonorepoDetector) identifyTool(root string) string {
	reader := NewDirReader(root)
	for _, m := range toolMarkers {
		if reader.Has(m.file) {
			return m.tool
		}
	}

	m, err := d.reader.ReadDir(root)
	if err != nil || !m.Workspaces.Declared {
		return ""
	}
	switch DetectPackageManager(root).Name {
	case PackageManagerYarn, PackageManagerYarnBerry:
		return ToolYarnWorkspaces
	case PackageManagerPnpm:
		return ToolPnpmWorkspaces
	case PackageManagerBun:
		return ToolBunWorkspaces
	default:
		return ToolNpmWorkspaces
	}
}
