// Package analyzer aggregates manifest metadata and discovered components
// into a project summary, across single packages and monorepos.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"compass/pkg/detector"
	"compass/pkg/extractor"
	"compass/pkg/finder"
	"compass/pkg/logging"
	"compass/pkg/manifest"
	"compass/pkg/workspace"
)

const metadataCacheSize = 256

// Options configures an Analyzer.
type Options struct {
	// Concurrency bounds filesystem operations within one walk and the
	// number of workspaces processed at once.
	Concurrency int
	// DedupeUtilityLibraries drops repeated (name, category) utility
	// libraries after the workspace merge.
	DedupeUtilityLibraries bool
	Logger                 *log.Logger
}

// Analyzer produces ProjectSummary values. Each Analyze call uses fresh
// caches, so an Analyzer may be reused and shared between goroutines.
type Analyzer struct {
	opts   Options
	logger *log.Logger
}

// New returns an Analyzer.
func New(opts Options) *Analyzer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = finder.DefaultConcurrency
	}
	return &Analyzer{opts: opts, logger: logging.OrDiscard(opts.Logger)}
}

// run holds the collaborators and caches of one analysis.
type run struct {
	*Analyzer
	reader   *manifest.Reader
	monorepo *detector.MonorepoDetector
	finder   *finder.Finder
	metadata *lru.Cache[string, extractor.PackageDetails]
}

func (a *Analyzer) newRun() *run {
	reader := manifest.NewReader()
	mono := detector.NewMonorepoDetector(reader, a.logger)
	cache, _ := lru.New[string, extractor.PackageDetails](metadataCacheSize)
	return &run{
		Analyzer: a,
		reader:   reader,
		monorepo: mono,
		finder: finder.New(finder.Options{
			Concurrency: a.opts.Concurrency,
			Logger:      a.logger,
			Reader:      reader,
			Frameworks:  detector.NewFrameworkDetector(reader, a.logger),
			Resolver:    workspace.NewResolver(reader, a.logger),
			Extractor:   extractor.NewComponentExtractor(0),
		}),
		metadata: cache,
	}
}

// Analyze inspects the project at projectPath. It always returns a summary:
// failures degrade the affected part to its default and are recorded in
// Diagnostics. In concise mode (verbose false) the root manifest is reduced
// to name, version, description, main and types, and components carry only
// path and framework.
func (a *Analyzer) Analyze(ctx context.Context, projectPath string, verbose bool) *ProjectSummary {
	r := a.newRun()
	a.logger.Info("analyzing project", "path", projectPath)

	summary := &ProjectSummary{
		RootPath:           projectPath,
		DetectedFrameworks: []extractor.FrameworkInfo{},
		UsedTools:          []ToolInfo{},
		Extensions:         map[string]bool{},
		Workspaces:         []WorkspaceSummary{},
		Components:         []finder.FoundComponent{},
	}

	var (
		detection detector.DetectionResult
		pm        detector.PackageManagerInfo
		root      *manifest.Manifest
		found     finder.Result
		outcomes  [3]Outcome
	)
	var g errgroup.Group
	g.Go(func() error {
		detection = r.monorepo.Detect(ctx, projectPath)
		pm = detector.DetectPackageManager(projectPath)
		outcomes[0] = newOutcome(StepMonorepo, errors.Join(detection.Err, ctx.Err()))
		outcomes[0].Detail = detectionDetail(detection)
		return nil
	})
	g.Go(func() error {
		m, err := r.reader.ReadDir(projectPath)
		if err != nil {
			a.logger.Warn("root manifest unavailable", "path", projectPath, "err", err)
		}
		root = m
		outcomes[1] = newOutcome(StepManifest, err)
		return nil
	})
	g.Go(func() error {
		found = r.finder.Discover(ctx, projectPath)
		outcomes[2] = newOutcome(StepComponents, errors.Join(found.Err, ctx.Err()))
		outcomes[2].Detail = discoveryDetail(found)
		return nil
	})
	_ = g.Wait()
	summary.Diagnostics = append(summary.Diagnostics, outcomes[:]...)

	summary.Monorepo = detection.IsMonorepo
	summary.MonorepoTool = detection.Tool
	summary.PackageManager = pm
	summary.ComponentCount = len(found.Components)
	if detection.IsMonorepo {
		a.logger.Info("detected monorepo structure", "tool", detection.Tool)
	}
	if root.IsEmpty() {
		a.logger.Warn("no package.json found or package.json is empty", "path", projectPath)
	}

	summary.PackageJSON = manifestJSON(root, verbose)
	summary.Components = projectComponents(found.Components, verbose)

	rootMeta := r.extract(root)
	var wsMeta []extractor.PackageDetails
	if detection.IsMonorepo && root.Workspaces.Declared {
		summary.Workspaces, wsMeta = r.workspaces(ctx, projectPath, root, summary)
	}
	summary.Metadata = MergeMetadata(rootMeta, wsMeta, a.opts.DedupeUtilityLibraries)

	deriveFields(summary)
	return summary
}

// extract returns the metadata of m, cached by manifest content.
func (r *run) extract(m *manifest.Manifest) extractor.PackageDetails {
	key := m.Fingerprint()
	if d, ok := r.metadata.Get(key); ok {
		return d
	}
	d := extractMetadata(m)
	r.metadata.Add(key, d)
	return d
}

// workspaces reads every concrete workspace declared by root concurrently.
// A failing workspace is logged, recorded as a diagnostic and left out.
// Results keep declaration order.
func (r *run) workspaces(ctx context.Context, projectPath string, root *manifest.Manifest, summary *ProjectSummary) ([]WorkspaceSummary, []extractor.PackageDetails) {
	declared := root.Workspaces.Concrete()
	r.logger.Info("processing workspace packages", "count", len(declared))

	type result struct {
		summary WorkspaceSummary
		ok      bool
	}
	results := make([]result, len(declared))
	diags := make([]Outcome, len(declared))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, ws := range declared {
		i, ws := i, ws
		g.Go(func() error {
			step := workspaceStepPrefix + ws
			if err := gctx.Err(); err != nil {
				diags[i] = newOutcome(step, err)
				return nil
			}
			m, err := r.reader.ReadDir(filepath.Join(projectPath, ws))
			if err != nil {
				r.logger.Warn("skipping workspace", "workspace", ws, "err", err)
				diags[i] = newOutcome(step, fmt.Errorf("workspace %s: %w", ws, err))
				return nil
			}
			r.logger.Debug("processing workspace", "workspace", ws, "name", m.Name)
			results[i] = result{
				summary: WorkspaceSummary{
					Name:           m.Name,
					Path:           ws,
					PackageJSON:    rawOrEmpty(m),
					PackageDetails: r.extract(m),
				},
				ok: true,
			}
			diags[i] = newOutcome(step, nil)
			return nil
		})
	}
	_ = g.Wait()

	summaries := []WorkspaceSummary{}
	var meta []extractor.PackageDetails
	for i, res := range results {
		summary.Diagnostics = append(summary.Diagnostics, diags[i])
		if !res.ok {
			continue
		}
		summaries = append(summaries, res.summary)
		meta = append(meta, res.summary.PackageDetails)
	}
	summary.Diagnostics = append(summary.Diagnostics, newOutcome(StepWorkspaces, ctx.Err()))
	r.logger.Info("processed workspaces", "ok", len(summaries), "declared", len(declared))
	return summaries, meta
}

func detectionDetail(d detector.DetectionResult) string {
	if !d.IsMonorepo {
		return "single package"
	}
	if d.Tool == "" {
		return "monorepo by " + d.Reason
	}
	return fmt.Sprintf("monorepo by %s (%s)", d.Reason, d.Tool)
}

func discoveryDetail(r finder.Result) string {
	if r.Workspaces == 0 {
		return fmt.Sprintf("%d components from the project root", len(r.Components))
	}
	return fmt.Sprintf("%d components from %d workspaces (%s)", len(r.Components), r.Workspaces, r.Source)
}

// deriveFields computes the fields that depend on the merged metadata and
// the final component list.
func deriveFields(s *ProjectSummary) {
	if s.Metadata.Framework != nil {
		s.DetectedFrameworks = append(s.DetectedFrameworks, *s.Metadata.Framework)
	}
	s.UsedTools = usedTools(s.Metadata.Dependencies.Merge(s.Metadata.DevDependencies))
	for _, c := range s.Components {
		if ext := strings.ToLower(filepath.Ext(c.Path)); ext != "" {
			s.Extensions[ext] = true
		}
	}
}

func manifestJSON(m *manifest.Manifest, verbose bool) json.RawMessage {
	if verbose {
		return rawOrEmpty(m)
	}
	data, err := json.Marshal(ManifestSummary{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Main:        m.Main,
		Types:       m.Types,
	})
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

func rawOrEmpty(m *manifest.Manifest) json.RawMessage {
	if raw := m.Raw(); len(raw) > 0 {
		return raw
	}
	return json.RawMessage("{}")
}

func projectComponents(components []finder.FoundComponent, verbose bool) []finder.FoundComponent {
	out := make([]finder.FoundComponent, len(components))
	for i, c := range components {
		if !verbose {
			c.Metadata = nil
		}
		out[i] = c
	}
	return out
}
