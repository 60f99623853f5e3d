package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/cmd/ui/detection"
	"compass/pkg/analyzer"
	"compass/pkg/detector"
	"compass/pkg/extractor"
	"compass/pkg/finder"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the CLI with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("COMPASS_OUTPUT", "")
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_JSON(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"name": "app", "dependencies": {"react": "^18.0.0"}, "devDependencies": {"vite": "5.0.0"}}`)
	write(t, root, "src/Button.tsx", "export default function Button() {}\n")

	out, err := execute(t, "--json", root)
	require.NoError(t, err)

	var summary analyzer.ProjectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.False(t, summary.Monorepo)
	assert.Equal(t, 1, summary.ComponentCount)
	require.NotNil(t, summary.Metadata.Framework)
	assert.Equal(t, extractor.FrameworkInfo{Name: "react", Version: "18.0.0", IsPrimary: true}, *summary.Metadata.Framework)
	assert.Equal(t, []analyzer.ToolInfo{{Name: "vite", Version: "5.0.0", Category: analyzer.ToolBundler}}, summary.UsedTools)
	require.Len(t, summary.Components, 1)
	assert.Nil(t, summary.Components[0].Metadata)
	assert.JSONEq(t, `{"name": "app"}`, string(summary.PackageJSON))
}

func TestRootCommand_VerboseKeepsMetadata(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"name": "app", "private": true, "dependencies": {"react": "18.2.0"}}`)
	write(t, root, "src/Button.tsx", "export default function Button() {}\n")

	out, err := execute(t, "--json", "--verbose", root)
	require.NoError(t, err)

	var summary analyzer.ProjectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Components, 1)
	require.NotNil(t, summary.Components[0].Metadata)
	assert.Equal(t, "Button", summary.Components[0].Metadata.Name)
	assert.Contains(t, string(summary.PackageJSON), `"private"`)
}

func TestRootCommand_ConfigFile(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"workspaces": ["a", "b"], "dependencies": {"lodash": "4.0.0"}}`)
	write(t, root, "a/package.json", `{"dependencies": {"lodash": "4.1.0"}}`)
	write(t, root, "b/package.json", `{"dependencies": {"lodash": "4.2.0"}}`)
	cfg := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("dedupe_utility_libraries = true\n"), 0o644))

	out, err := execute(t, "--json", "--config", cfg, root)
	require.NoError(t, err)

	var summary analyzer.ProjectSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.True(t, summary.Monorepo)
	assert.Len(t, summary.Metadata.UtilityLibraries, 1)

	out, err = execute(t, "--json", "--config", cfg, "--dedupe-utility-libraries=false", root)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Len(t, summary.Metadata.UtilityLibraries, 3, "flag overrides the config file")
}

func TestRootCommand_InvalidPath(t *testing.T) {
	_, err := execute(t, "--json", filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access path")
}

func TestDetectCommand_JSON(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"workspaces": ["packages/*"], "scripts": {"build": "turbo run build"}, "dependencies": {"next": "14.0.0", "clsx": "2.0.0"}}`)
	write(t, root, "turbo.json", `{}`)
	write(t, root, "pnpm-lock.yaml", "lockfileVersion: '9.0'\n")
	write(t, root, ".npmrc", "registry=https://npm.example.com/\n")

	out, err := execute(t, "detect", "--json", root)
	require.NoError(t, err)

	var report detection.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Detection.IsMonorepo)
	assert.Equal(t, detector.ToolTurborepo, report.Detection.Tool)
	assert.Equal(t, detector.PackageManagerPnpm, report.PackageManager.Name)
	assert.Equal(t, "https://npm.example.com/", report.PackageManager.Registry)
	assert.Equal(t, "pnpm install", report.InstallCommand)
	assert.Equal(t, "pnpm run build", report.BuildCommand)
	require.NotNil(t, report.Package.Framework)
	assert.Equal(t, "next", report.Package.Framework.Name)
}

func TestComponentsCommand_JSON(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"dependencies": {"react": "18.2.0"}}`)
	write(t, root, "src/components/Button.tsx", "")
	write(t, root, "src/components/Card.tsx", "")
	write(t, root, "src/components/forms/Input.tsx", "")
	write(t, root, "src/App.tsx", "")

	out, err := execute(t, "components", "--json", root)
	require.NoError(t, err)

	var result detection.Components
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Groups, 3)
	assert.Equal(t, "src", result.Groups[0].Folder)
	assert.Equal(t, []string{"Button.tsx", "Card.tsx"}, result.Groups[1].Files)
	assert.Equal(t, "src/components/forms", result.Groups[2].Folder)

	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Contains(t, []string{filepath.Join(root, "src", "components"), filepath.Join(realRoot, "src", "components")}, result.BestFolder)
	assert.Equal(t, []string{filepath.Join("..", "App.tsx"), filepath.Join("forms", "Input.tsx")}, result.Nested)
}

func TestRenderSummary(t *testing.T) {
	summary := &analyzer.ProjectSummary{
		Monorepo:       true,
		MonorepoTool:   detector.ToolNx,
		PackageManager: detector.PackageManagerInfo{Name: detector.PackageManagerYarn},
		Metadata: extractor.PackageDetails{
			Version:   "1.0.0",
			Framework: &extractor.FrameworkInfo{Name: "vue", Version: "3.4.0"},
		},
		Components:     []finder.FoundComponent{{Path: filepath.FromSlash("/r/ui/Card.vue"), Framework: detector.Vue}},
		ComponentCount: 1,
		Extensions:     map[string]bool{".vue": true},
		Workspaces:     []analyzer.WorkspaceSummary{{Name: "web", Path: "apps/web"}},
		Diagnostics:    []analyzer.Outcome{{Step: analyzer.StepManifest, Defaulted: true, Error: "read failed"}},
	}

	out := detection.RenderSummary("demo", summary)

	for _, want := range []string{"monorepo (nx)", "yarn", "vue 3.4.0", "apps/web", "manifest: read failed", ".vue"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderComponents_Empty(t *testing.T) {
	assert.Contains(t, detection.RenderComponents("demo", detection.Components{}), "No components found.")
	assert.NotContains(t, detection.RenderReport("demo", detection.Report{InstallCommand: "npm install"}), "Build:")
}
