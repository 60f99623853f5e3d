package finder

import (
	"regexp"
	"strings"

	"compass/pkg/detector"
)

// IgnoreDirs are directory names whose subtrees are never walked. Matching
// is case-insensitive.
var IgnoreDirs = []string{
	// build and distribution
	"node_modules", "dist", "build", "coverage", ".next", "out",
	// version control and editors
	".git", ".github", ".vscode", ".idea",
	// tests and documentation
	"examples", "stories", "test", "tests", "__tests__", "__mocks__", "cypress", "e2e", "docs", "documentation",
	// development tooling
	"tools", "scripts", "utils", "helpers", "hooks", "playground", "playgrounds", "sandbox", "demo", "internal",
	// package management
	"lerna.json", "pnpm-workspace.yaml", "yarn.lock", "package-lock.json",
	// assets and resources
	"assets", "static", "media", "images", "icons", "fonts", "styles", "themes", "locales", "i18n", "translations",
}

// IgnoreSegments are directory segments that exclude any path passing
// through them. Matching is case-sensitive.
var IgnoreSegments = []string{
	"playgrounds", "examples", "test-utils", "__tests__", "stories", "hooks", "utils", "helpers", "test", "tests", "demo", "sandbox", "docs",
	"documentation", "assets", "static", "media", "images", "icons", "fonts", "styles", "themes", "locales", "i18n", "translations", "config",
	"scripts", "tools", "public", "build", "dist", "coverage", ".next", "out", "node_modules", ".git", ".github", ".vscode", ".idea", "internal",
}

// IgnoreFiles are file names excluded wherever they appear.
var IgnoreFiles = []string{"lerna.json", "pnpm-workspace.yaml", "yarn.lock", "package-lock.json"}

// AntiPatterns exclude stories, tests, specs, configuration, fixtures and
// type declarations from component matching.
var AntiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.stories\.`),
	regexp.MustCompile(`\.stories$`),
	regexp.MustCompile(`\.test\.`),
	regexp.MustCompile(`\.spec\.`),
	regexp.MustCompile(`\.e2e\.`),
	regexp.MustCompile(`\.config\.`),
	regexp.MustCompile(`\.setup\.`),
	regexp.MustCompile(`\.mock\.`),
	regexp.MustCompile(`\.fixture\.`),
	regexp.MustCompile(`\.d\.ts$`),
}

var (
	ignoreDirSet     = toSet(IgnoreDirs)
	ignoreSegmentSet = toSet(IgnoreSegments)
	ignoreFileSet    = toSet(IgnoreFiles)
)

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

// IsIgnoredDir reports whether a directory name is on the deny list.
func IsIgnoredDir(name string) bool {
	return ignoreDirSet[strings.ToLower(name)]
}

// IsIgnoredPath reports whether a slash-separated path passes through an
// ignored directory segment or ends in an ignored file name.
func IsIgnoredPath(p string) bool {
	segments := strings.Split(p, "/")
	last := len(segments) - 1
	for i, seg := range segments {
		if i < last && i > 0 && ignoreSegmentSet[seg] {
			return true
		}
	}
	return last > 0 && ignoreFileSet[segments[last]]
}

// IsComponentFile reports whether name carries one of the framework's
// extensions and matches no anti-pattern.
func IsComponentFile(name string, framework detector.Framework) bool {
	matched := false
	for _, ext := range detector.Extensions(framework) {
		if strings.HasSuffix(name, ext) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, re := range AntiPatterns {
		if re.MatchString(name) {
			return false
		}
	}
	return true
}
