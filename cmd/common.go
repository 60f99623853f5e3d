package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"compass/pkg/config"
	"compass/pkg/logging"
	"compass/pkg/util"
)

// projectPathArg returns the validated absolute project path from args,
// defaulting to the working directory.
func projectPathArg(args []string) (string, error) {
	projectPath := "."
	if len(args) > 0 {
		projectPath = args[0]
	}
	return util.ValidateProjectPath(projectPath)
}

// loadOptions resolves configuration for projectPath and applies the flags
// that were set explicitly on cmd.
func loadOptions(cmd *cobra.Command, projectPath string) (*config.Options, error) {
	opts, used, err := config.LoadConfig(config.LoadOptions{
		ConfigFile: configFile,
		ProjectDir: projectPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		opts.Verbose = verboseOutput
	}
	if flags.Changed("dedupe-utility-libraries") {
		opts.DedupeUtilityLibraries = dedupeLibraries
	}
	if flags.Changed("concurrency") {
		opts.Concurrency = concurrency
	}
	if jsonOutput {
		opts.Output = config.OutputJSON
	}

	if used != "" {
		newLogger(cmd, opts).Debug("loaded config", "file", used)
	}
	return opts, nil
}

// newLogger builds the CLI logger. --verbose raises the level to at least
// info.
func newLogger(cmd *cobra.Command, opts *config.Options) *log.Logger {
	level := opts.LogLevel
	if opts.Verbose && logging.ParseLevel(level) > log.InfoLevel {
		level = "info"
	}
	return logging.New(cmd.ErrOrStderr(), config.AppName, level)
}

// wantsJSON reports whether output must be machine readable.
func wantsJSON(cmd *cobra.Command, opts *config.Options) bool {
	return opts.Output == config.OutputJSON || skipInteractive || !isTerminal(cmd.OutOrStdout())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("CI") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
