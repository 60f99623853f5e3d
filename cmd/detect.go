package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"compass/cmd/ui/detection"
	"compass/pkg/detector"
	"compass/pkg/extractor"
	"compass/pkg/manifest"
	"compass/pkg/util"
)

// detectCmd reports how compass sees the project root without walking it
// for components.
var detectCmd = &cobra.Command{
	Use:   "detect [PROJECT_PATH]",
	Short: "Detect monorepo layout, package manager and framework",
	Long: `Reports whether the project is a monorepo and which tool manages it, the
package manager and its .npmrc settings, the framework detected at the root,
and the framework and libraries matched by exact package name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	projectPath, err := projectPathArg(args)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd, projectPath)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, opts)
	ctx := cmd.Context()

	reader := manifest.NewReader()
	pkg, err := extractor.NewPackageExtractor().Extract(filepath.Join(projectPath, manifest.FileName))
	if err != nil {
		logger.Warn("package metadata unavailable", "err", err)
	}

	report := detection.Report{
		Detection:      detector.NewMonorepoDetector(reader, logger).Detect(ctx, projectPath),
		PackageManager: detector.DetectPackageManager(projectPath),
		Framework:      detector.NewFrameworkDetector(reader, logger).Detect(ctx, projectPath),
		Package:        pkg,
	}
	report.InstallCommand = detector.InstallCommand(report.PackageManager.Name)
	if pkg.Scripts.Has("build") {
		report.BuildCommand = detector.RunCommand(report.PackageManager.Name, "build")
	}

	out := cmd.OutOrStdout()
	if wantsJSON(cmd, opts) {
		return writeJSON(out, report)
	}
	fmt.Fprintln(out, detection.RenderReport(util.ProjectName(projectPath), report))
	return nil
}
