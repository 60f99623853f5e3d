package detector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compass/pkg/manifest"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".jsx", ".tsx"}, Extensions(React))
	assert.Equal(t, []string{".component.ts", ".component.html"}, Extensions(Angular))
	assert.Equal(t, Extensions(Unknown), Extensions(Framework("solid")))

	exts := Extensions(Vue)
	exts[0] = ".mutated"
	assert.Equal(t, []string{".vue"}, Extensions(Vue), "callers must not alias the table")
}

func TestParseFramework(t *testing.T) {
	assert.Equal(t, React, ParseFramework(" React "))
	assert.Equal(t, Svelte, ParseFramework("svelte"))
	assert.Equal(t, Unknown, ParseFramework("ember"))
}

func TestFrameworkDetector_Strategies(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		dir   string
		want  Framework
	}{
		{
			name:  "path hint wins over manifest",
			files: map[string]string{"my-svelte-lib/package.json": `{"dependencies": {"react": "18.0.0"}}`},
			dir:   "my-svelte-lib",
			want:  Svelte,
		},
		{
			name:  "dev dependency",
			files: map[string]string{"package.json": `{"devDependencies": {"vue": "^3.4.0"}}`},
			want:  Vue,
		},
		{
			name:  "dom package alone",
			files: map[string]string{"package.json": `{"dependencies": {"react-dom": "18.2.0"}}`},
			want:  React,
		},
		{
			name:  "fixed priority order",
			files: map[string]string{"package.json": `{"dependencies": {"@angular/core": "17", "vue": "3", "react": "18"}}`},
			want:  React,
		},
		{
			name:  "empty version is ignored",
			files: map[string]string{"package.json": `{"dependencies": {"react": "", "svelte": "4"}}`},
			want:  Svelte,
		},
		{
			name: "workspace manifests before root",
			files: map[string]string{
				"package.json":            `{"workspaces": ["packages/a", "packages/*"], "dependencies": {"vue": "3"}}`,
				"packages/a/package.json": `{"dependencies": {"@angular/core": "17.0.0"}}`,
			},
			want: Angular,
		},
		{
			name: "nested workspace declarations",
			files: map[string]string{
				"package.json":          `{"workspaces": {"packages": ["apps"]}}`,
				"apps/package.json":     `{"workspaces": ["web", "../"]}`,
				"apps/web/package.json": `{"devDependencies": {"svelte": "4.0.0"}}`,
			},
			want: Svelte,
		},
		{
			name: "unreadable workspace is skipped",
			files: map[string]string{
				"package.json": `{"workspaces": ["missing"], "dependencies": {"vue": "3"}}`,
			},
			want: Vue,
		},
		{
			name: "file extension fallback",
			files: map[string]string{
				"package.json":        `{"name": "ui"}`,
				"Card.component.html": `<div></div>`,
				"Card.component.ts":   `export class Card {}`,
				"nested/Button.tsx":   `export default 1`,
			},
			want: Angular,
		},
		{
			name:  "tsx file",
			files: map[string]string{"package.json": `{}`, "Button.tsx": ``},
			want:  React,
		},
		{
			name:  "missing manifest skips extensions",
			files: map[string]string{"Button.tsx": ``},
			want:  Unknown,
		},
		{
			name:  "nothing matches",
			files: map[string]string{"package.json": `{"dependencies": {"lodash": "4"}}`, "index.js": ``},
			want:  Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for rel, content := range tt.files {
				write(t, root, rel, content)
			}
			d := NewFrameworkDetector(manifest.NewReader(), nil)
			assert.Equal(t, tt.want, d.Detect(context.Background(), filepath.Join(root, tt.dir)))
		})
	}
}

func TestFrameworkDetector_CanceledContext(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"dependencies": {"vue": "3"}}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, Unknown, NewFrameworkDetector(nil, nil).Detect(ctx, root))
}

func TestMonorepoDetector(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		monorepo bool
		reason   string
		tool     string
		failed   bool
	}{
		{
			name:     "turbo marker",
			files:    map[string]string{"turbo.json": `{}`},
			monorepo: true, reason: "marker", tool: ToolTurborepo,
		},
		{
			name:     "pnpm workspace file",
			files:    map[string]string{"pnpm-workspace.yaml": "packages: []\n"},
			monorepo: true, reason: "marker", tool: ToolPnpmWorkspaces,
		},
		{
			name:     "concrete workspace",
			files:    map[string]string{"package.json": `{"workspaces": ["packages/a", "apps/*"]}`},
			monorepo: true, reason: "workspaces", tool: ToolNpmWorkspaces,
		},
		{
			name: "concrete workspace with yarn",
			files: map[string]string{
				"package.json": `{"workspaces": {"packages": ["lib"]}}`,
				"yarn.lock":    ``,
			},
			monorepo: true, reason: "workspaces", tool: ToolYarnWorkspaces,
		},
		{
			name:  "wildcard only single package",
			files: map[string]string{"package.json": `{"workspaces": ["packages/*"]}`},
		},
		{
			name:  "plain package",
			files: map[string]string{"package.json": `{"name": "app"}`, "src/index.ts": ``},
		},
		{
			name: "nested manifests",
			files: map[string]string{
				"package.json":        `{"name": "root"}`,
				"libs/x/package.json": `{"name": "x"}`,
			},
			monorepo: true, reason: "manifests",
		},
		{
			name: "nested manifests without root manifest",
			files: map[string]string{
				"a/package.json": `{}`,
				"b/package.json": `{}`,
			},
			failed: true,
		},
		{
			name: "nested manifests under malformed root manifest",
			files: map[string]string{
				"package.json":   `{not json`,
				"a/package.json": `{}`,
				"b/package.json": `{}`,
			},
			failed: true,
		},
		{
			name: "marker wins over malformed root manifest",
			files: map[string]string{
				"package.json": `{not json`,
				"nx.json":      `{}`,
			},
			monorepo: true, reason: "marker", tool: ToolNx,
		},
		{
			name: "hidden directories are not counted",
			files: map[string]string{
				"package.json":        `{}`,
				".cache/package.json": `{}`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for rel, content := range tt.files {
				write(t, root, rel, content)
			}
			res := NewMonorepoDetector(manifest.NewReader(), nil).Detect(context.Background(), root)
			assert.Equal(t, root, res.RootPath)
			assert.Equal(t, tt.monorepo, res.IsMonorepo)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.tool, res.Tool)
			if tt.failed {
				assert.Error(t, res.Err)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

func TestMonorepoDetector_MissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	res := NewMonorepoDetector(nil, nil).Detect(context.Background(), missing)
	assert.False(t, res.IsMonorepo)
	assert.Empty(t, res.Reason)
	assert.Error(t, res.Err)
	assert.Equal(t, missing, res.RootPath)
}

func TestMonorepoDetector_Memoizes(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{}`)

	d := NewMonorepoDetector(nil, nil)
	first := d.Detect(context.Background(), root)
	require.False(t, first.IsMonorepo)

	write(t, root, "lerna.json", `{}`)
	again := d.Detect(context.Background(), root+string(filepath.Separator))
	assert.False(t, again.IsMonorepo, "result is fixed for the detector lifetime")

	fresh := NewMonorepoDetector(nil, nil).Detect(context.Background(), root)
	assert.True(t, fresh.IsMonorepo)
	assert.Equal(t, ToolLerna, fresh.Tool)
}

func TestCountManifests(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{}`)
	write(t, root, "a/package.json", `{}`)
	write(t, root, "a/b/package.json", `{}`)
	write(t, root, ".git/package.json", `{}`)

	n, err := CountManifests(context.Background(), root, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = CountManifests(context.Background(), root, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = CountManifests(context.Background(), filepath.Join(root, "missing"), 0)
	assert.Error(t, err)
}

func TestDetectPackageManagerFS(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		want     string
		lockfile string
	}{
		{"bun binary lock", []string{"bun.lockb", "yarn.lock"}, PackageManagerBun, "bun.lockb"},
		{"yarn berry", []string{".yarnrc.yml", "yarn.lock"}, PackageManagerYarnBerry, ".yarnrc.yml"},
		{"pnpm", []string{"pnpm-lock.yaml"}, PackageManagerPnpm, "pnpm-lock.yaml"},
		{"yarn classic", []string{"yarn.lock"}, PackageManagerYarn, "yarn.lock"},
		{"npm lockfile", []string{"package-lock.json"}, PackageManagerNpm, "package-lock.json"},
		{"default", nil, PackageManagerNpm, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{}
			for _, f := range tt.files {
				fsys[f] = &fstest.MapFile{Data: []byte(""), Mode: 0o644}
			}
			info := DetectPackageManagerFS(fsys)
			assert.Equal(t, tt.want, info.Name)
			assert.Equal(t, tt.lockfile, info.Lockfile)
		})
	}
}

func TestDetectPackageManagerFS_Npmrc(t *testing.T) {
	fsys := fstest.MapFS{
		"pnpm-lock.yaml": {Data: []byte(""), Mode: 0o644},
		".npmrc": {Data: []byte(
			"# team registry\n" +
				"registry=https://npm.example.com/\n" +
				"@acme:registry=https://acme.example.com/\n" +
				"node-linker=hoisted\n" +
				"strict-peer-dependencies\n"),
			Mode: 0o644,
		},
	}

	info := DetectPackageManagerFS(fsys)
	assert.Equal(t, PackageManagerPnpm, info.Name)
	assert.Equal(t, "https://npm.example.com/", info.Registry)
	assert.Equal(t, "hoisted", info.NodeLinker)
}

func TestPackageManagerCommands(t *testing.T) {
	assert.Equal(t, "yarn install", InstallCommand(PackageManagerYarnBerry))
	assert.Equal(t, "npm install", InstallCommand("unknown"))
	assert.Equal(t, "pnpm run build", RunCommand(PackageManagerPnpm, "build"))
	assert.Equal(t, "yarn build", RunCommand(PackageManagerYarn, "build"))
	assert.Equal(t, "npm run build", RunCommand(PackageManagerNpm, "build"))
}
