package scanner

import (
	"path/filepath"
	"sort"
	"strings"

	"compass/pkg/finder"
)

// FolderGroup lists the component files found directly inside one folder.
type FolderGroup struct {
	Folder string   `json:"folder"`
	Files  []string `json:"files"`
}

// FolderFormatter groups components by containing folder. Folders are
// reported relative to Root when it is set and contains them, and use
// forward slashes. Groups and files are sorted.
type FolderFormatter struct {
	Root string
}

// Format implements Formatter.
func (f FolderFormatter) Format(components []finder.FoundComponent) []FolderGroup {
	byFolder := make(map[string][]string)
	for _, c := range components {
		dir := f.relative(filepath.Dir(c.Path))
		byFolder[dir] = append(byFolder[dir], filepath.Base(c.Path))
	}

	groups := make([]FolderGroup, 0, len(byFolder))
	for dir, files := range byFolder {
		sort.Strings(files)
		groups = append(groups, FolderGroup{Folder: dir, Files: files})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Folder < groups[j].Folder })
	return groups
}

func (f FolderFormatter) relative(dir string) string {
	if f.Root == "" {
		return filepath.ToSlash(dir)
	}
	rel, err := filepath.Rel(f.Root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(dir)
	}
	return filepath.ToSlash(rel)
}

// ListFormatter returns the components unchanged, as a copy.
type ListFormatter struct{}

// Format implements Formatter.
func (ListFormatter) Format(components []finder.FoundComponent) []finder.FoundComponent {
	return append([]finder.FoundComponent{}, components...)
}
