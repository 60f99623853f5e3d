package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"compass/pkg/detector"
)

// DefaultCacheSize bounds the number of files whose metadata is kept.
const DefaultCacheSize = 4096

var (
	importPattern = regexp.MustCompile(`import\s+(?:\{[^}]*\}|\*\s+as\s+\w+|\w+)\s+from\s+['"]([^'"]+)['"]`)
	exportPattern = regexp.MustCompile(`export\s+(?:default\s+)?(?:function|class|const|let|var)\s+(\w+)`)
	hookPattern   = regexp.MustCompile(`(?:function|const)\s+(use[A-Z][a-zA-Z0-9]*)`)
)

type cacheKey struct {
	path      string
	framework detector.Framework
}

// ComponentExtractor reads component files and extracts their name, size,
// imports, exports and, for react, hook declarations. Results are cached by
// (path, framework); the extractor is safe for concurrent use.
type ComponentExtractor struct {
	cache *lru.Cache[cacheKey, ComponentMetadata]
}

// NewComponentExtractor returns an extractor caching up to size results.
// A size <= 0 uses DefaultCacheSize.
func NewComponentExtractor(size int) *ComponentExtractor {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, ComponentMetadata](size)
	if err != nil {
		panic(fmt.Sprintf("extractor: %v", err))
	}
	return &ComponentExtractor{cache: cache}
}

// Extract returns the metadata of the file at path. When the file cannot be
// read the returned metadata carries ErrExtractFailed alongside the error.
func (e *ComponentExtractor) Extract(path string, framework detector.Framework) (ComponentMetadata, error) {
	key := cacheKey{path: path, framework: framework}
	if md, ok := e.cache.Get(key); ok {
		return md, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return FailedMetadata(path, framework), fmt.Errorf("extract %s: %w", path, err)
	}

	md := ParseComponent(path, framework, string(data))
	e.cache.Add(key, md)
	return md, nil
}

// FailedMetadata is the record reported for a file whose metadata could not
// be extracted.
func FailedMetadata(path string, framework detector.Framework) ComponentMetadata {
	return ComponentMetadata{
		Name:      ComponentName(path, framework),
		Framework: framework,
		Error:     ErrExtractFailed,
	}
}

// ParseComponent extracts metadata from file content already in memory.
func ParseComponent(path string, framework detector.Framework, content string) ComponentMetadata {
	md := ComponentMetadata{
		Name:      ComponentName(path, framework),
		Framework: framework,
		Size:      len(content),
		Lines:     strings.Count(content, "\n") + 1,
		Imports:   submatches(importPattern, content),
		Exports:   submatches(exportPattern, content),
	}
	if framework == detector.React {
		md.Hooks = submatches(hookPattern, content)
	}
	return md
}

// ComponentName is the file name up to its first dot, capitalized for react.
func ComponentName(path string, framework detector.Framework) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	if framework == detector.React && name != "" {
		r, size := utf8.DecodeRuneInString(name)
		name = string(unicode.ToUpper(r)) + name[size:]
	}
	return name
}

func submatches(re *regexp.Regexp, content string) []string {
	matches := re.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
