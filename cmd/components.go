package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"compass/cmd/ui/detection"
	"compass/pkg/analyzer"
	"compass/pkg/detector"
	"compass/pkg/finder"
	"compass/pkg/manifest"
	"compass/pkg/scanner"
	"compass/pkg/util"
)

var componentsCmd = &cobra.Command{
	Use:   "components [PROJECT_PATH]",
	Short: "List component files grouped by folder",
	Long: `Scans the project, or each workspace listed in the root package.json of a
monorepo, and prints the component files grouped by folder together with the
folder that holds most of them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runComponents,
}

// componentsFormatter groups components by folder and picks the best
// component folder.
type componentsFormatter struct {
	root string
}

func (f componentsFormatter) Format(components []finder.FoundComponent) detection.Components {
	out := detection.Components{
		Groups: scanner.FolderFormatter{Root: f.root}.Format(components),
	}
	if best, ok := analyzer.BestComponentFolder(components); ok {
		out.BestFolder = best
		out.Nested = analyzer.NestedComponentPaths(best, components)
	}
	return out
}

func runComponents(cmd *cobra.Command, args []string) error {
	projectPath, err := projectPathArg(args)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd, projectPath)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, opts)

	reader := manifest.NewReader()
	mono := detector.NewMonorepoDetector(reader, logger)
	fd := finder.New(finder.Options{
		Concurrency: opts.Concurrency,
		Logger:      logger,
		Reader:      reader,
	})
	s := scanner.New[detection.Components](mono, fd, componentsFormatter{root: projectPath}, reader, logger)
	result := s.Scan(cmd.Context(), projectPath)

	out := cmd.OutOrStdout()
	if wantsJSON(cmd, opts) {
		return writeJSON(out, result)
	}
	fmt.Fprintln(out, detection.RenderComponents(util.ProjectName(projectPath), result))
	return nil
}
