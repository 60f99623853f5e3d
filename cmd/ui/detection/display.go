package detection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"compass/pkg/analyzer"
	"compass/pkg/detector"
	"compass/pkg/extractor"
	"compass/pkg/scanner"
)

var (
	titleStyle        = lipgloss.NewStyle().Background(lipgloss.Color("#7D56F4")).Foreground(lipgloss.Color("#FAFAFA")).Bold(true).Padding(0, 1, 0)
	focusedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(lipgloss.Color("170")).Bold(true)
	descriptionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A49FA5"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	warnStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2).
			Width(72)
)

// Report is what the detect command shows for a project.
type Report struct {
	Detection      detector.DetectionResult    `json:"detection"`
	PackageManager detector.PackageManagerInfo `json:"packageManager"`
	Framework      detector.Framework          `json:"framework"`
	Package        extractor.PackageDetails    `json:"package"`
	InstallCommand string                      `json:"installCommand"`
	BuildCommand   string                      `json:"buildCommand,omitempty"`
}

// Components is what the components command shows for a project.
type Components struct {
	Groups     []scanner.FolderGroup `json:"groups"`
	BestFolder string                `json:"bestFolder,omitempty"`
	Nested     []string              `json:"nested,omitempty"`
}

func field(s *strings.Builder, label, value string) {
	s.WriteString(focusedStyle.Render(label + ": "))
	s.WriteString(selectedItemStyle.Render(value))
	s.WriteString("\n")
}

func bullet(s *strings.Builder, text string) {
	s.WriteString(successStyle.Render("  ✓ "))
	s.WriteString(descriptionStyle.Render(text))
	s.WriteString("\n")
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

func frame(title, body string) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")
	s.WriteString(boxStyle.Render(strings.TrimRight(body, "\n")))
	s.WriteString("\n")
	return s.String()
}

// RenderSummary renders an analysis summary for the terminal.
func RenderSummary(name string, summary *analyzer.ProjectSummary) string {
	var content strings.Builder

	layout := "single package"
	if summary.Monorepo {
		layout = "monorepo"
		if summary.MonorepoTool != "" {
			layout += " (" + summary.MonorepoTool + ")"
		}
	}
	field(&content, "Layout", layout)
	field(&content, "Package manager", summary.PackageManager.Name)

	framework := "none"
	if fw := summary.Metadata.Framework; fw != nil {
		framework = fw.Name + " " + fw.Version
	}
	field(&content, "Framework", framework)
	field(&content, "Version", summary.Metadata.Version)
	field(&content, "Components", fmt.Sprintf("%d", summary.ComponentCount))
	if best, ok := summary.BestComponentFolder(); ok {
		field(&content, "Component folder", best)
	}

	if exts := sortedKeys(summary.Extensions); len(exts) > 0 {
		field(&content, "Extensions", strings.Join(exts, " "))
	}
	content.WriteString("\n")

	if len(summary.UsedTools) > 0 {
		content.WriteString(focusedStyle.Render("Tools:"))
		content.WriteString("\n")
		for _, tool := range summary.UsedTools {
			bullet(&content, fmt.Sprintf("%s %s (%s)", tool.Name, tool.Version, tool.Category))
		}
		content.WriteString("\n")
	}

	if len(summary.Workspaces) > 0 {
		content.WriteString(focusedStyle.Render("Workspaces:"))
		content.WriteString("\n")
		for _, ws := range summary.Workspaces {
			bullet(&content, fmt.Sprintf("%s  %s", ws.Path, helpStyle.Render(orNone(ws.Name))))
		}
		content.WriteString("\n")
	}

	if degraded := summary.Degraded(); len(degraded) > 0 {
		content.WriteString(warnStyle.Render("Degraded:"))
		content.WriteString("\n")
		for _, o := range degraded {
			content.WriteString(warnStyle.Render("  ! "))
			content.WriteString(descriptionStyle.Render(o.Step + ": " + o.Error))
			content.WriteString("\n")
		}
	}

	return frame("Project Summary: "+name, content.String())
}

// RenderReport renders the detect command output.
func RenderReport(name string, r Report) string {
	var content strings.Builder

	field(&content, "Monorepo", fmt.Sprintf("%t", r.Detection.IsMonorepo))
	if r.Detection.IsMonorepo {
		field(&content, "Tool", orNone(r.Detection.Tool))
		field(&content, "Detected by", r.Detection.Reason)
	}
	field(&content, "Framework", string(r.Framework))
	field(&content, "Package manager", r.PackageManager.Name)
	if r.PackageManager.Registry != "" {
		field(&content, "Registry", r.PackageManager.Registry)
	}
	content.WriteString("\n")

	if fw := r.Package.Framework; fw != nil {
		bullet(&content, fmt.Sprintf("%s %s", fw.Name, fw.Version))
	}
	for _, lib := range r.Package.UtilityLibraries {
		bullet(&content, fmt.Sprintf("%s %s (%s)", lib.Name, lib.Version, lib.Category))
	}
	content.WriteString("\n")

	content.WriteString(focusedStyle.Render("Install: "))
	content.WriteString(descriptionStyle.Render(r.InstallCommand))
	content.WriteString("\n")
	if r.BuildCommand != "" {
		content.WriteString(focusedStyle.Render("Build: "))
		content.WriteString(descriptionStyle.Render(r.BuildCommand))
		content.WriteString("\n")
	}

	return frame("Detection Results: "+name, content.String())
}

// RenderComponents renders the components command output.
func RenderComponents(name string, c Components) string {
	var content strings.Builder

	if len(c.Groups) == 0 {
		content.WriteString(helpStyle.Render("No components found."))
		return frame("Components: "+name, content.String())
	}

	for _, g := range c.Groups {
		content.WriteString(focusedStyle.Render(g.Folder))
		content.WriteString(helpStyle.Render(fmt.Sprintf(" (%d)", len(g.Files))))
		content.WriteString("\n")
		for _, f := range g.Files {
			content.WriteString("  ")
			content.WriteString(descriptionStyle.Render(f))
			content.WriteString("\n")
		}
	}
	if c.BestFolder != "" {
		content.WriteString("\n")
		field(&content, "Best folder", c.BestFolder)
		for _, p := range c.Nested {
			bullet(&content, p)
		}
	}
	return frame("Components: "+name, content.String())
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
