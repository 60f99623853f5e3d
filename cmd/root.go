package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"compass/cmd/ui/detection"
	"compass/cmd/ui/spinner"
	"compass/pkg/analyzer"
	"compass/pkg/util"
)

const Version = "0.1.0"

var (
	jsonOutput      bool
	skipInteractive bool
	verboseOutput   bool
	dedupeLibraries bool
	concurrency     int
	configFile      string

	logoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	tipMsgStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(lipgloss.Color("190")).Italic(true)
)

const Logo = `
 ██████╗ ██████╗ ███╗   ███╗██████╗  █████╗ ███████╗███████╗
██╔════╝██╔═══██╗████╗ ████║██╔══██╗██╔══██╗██╔════╝██╔════╝
██║     ██║   ██║██╔████╔██║██████╔╝███████║███████╗███████╗
██║     ██║   ██║██║╚██╔╝██║██╔═══╝ ██╔══██║╚════██║╚════██║
╚██████╗╚██████╔╝██║ ╚═╝ ██║██║     ██║  ██║███████║███████║
 ╚═════╝ ╚═════╝ ╚═╝     ╚═╝╚═╝     ╚═╝  ╚═╝╚══════╝╚══════╝
`

var rootCmd = &cobra.Command{
	Use:   "compass [PROJECT_PATH]",
	Short: "Map the UI components and package metadata of a JavaScript project",
	Long: Logo + `
Compass finds UI components in single packages and monorepos, detects the
framework each workspace uses, and merges package.json metadata into one
project summary.

Supports React, Vue, Svelte and Angular, with turborepo, nx, lerna, rush and
npm, yarn, pnpm or bun workspaces.`,
	Version:       Version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRootCommand,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func runRootCommand(cmd *cobra.Command, args []string) error {
	projectPath, err := projectPathArg(args)
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd, projectPath)
	if err != nil {
		return err
	}

	a := analyzer.New(analyzer.Options{
		Concurrency:            opts.Concurrency,
		DedupeUtilityLibraries: opts.DedupeUtilityLibraries,
		Logger:                 newLogger(cmd, opts),
	})

	out := cmd.OutOrStdout()
	if wantsJSON(cmd, opts) {
		return writeJSON(out, a.Analyze(cmd.Context(), projectPath, opts.Verbose))
	}

	fmt.Fprintf(out, "%s\n", logoStyle.Render(Logo))
	stop := spinner.Start(out, "Analyzing project...")
	summary := a.Analyze(cmd.Context(), projectPath, opts.Verbose)
	stop()

	fmt.Fprintln(out, detection.RenderSummary(util.ProjectName(projectPath), summary))
	fmt.Fprintf(out, "%s\n", tipMsgStyle.Render("Tip: Use --json for the full summary"))
	return nil
}

func init() {
	rootCmd.SetVersionTemplate("compass version {{.Version}}\n")

	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(componentsCmd)

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON (disables interactive mode)")
	rootCmd.PersistentFlags().BoolVar(&skipInteractive, "no-interactive", false, "Skip the spinner and styled output (for CI/automation)")
	rootCmd.PersistentFlags().BoolVarP(&verboseOutput, "verbose", "v", false, "Keep the full manifest and per-file component metadata")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: compass.toml in the project or the user config dir)")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 0, "Maximum simultaneous filesystem operations per walk")
	rootCmd.Flags().BoolVar(&dedupeLibraries, "dedupe-utility-libraries", false, "Drop repeated utility libraries across workspaces")
}
