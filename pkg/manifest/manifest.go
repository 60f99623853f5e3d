// Package manifest reads package.json manifests and workspace declarations.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	// FileName is the conventional manifest name at a package root.
	FileName = "package.json"
	// DefaultVersion is reported when a manifest has no version.
	DefaultVersion = "0.0.0"
)

// Manifest is a best-effort view of a package.json file. Fields that are
// missing or have the wrong JSON type are left at their zero value.
type Manifest struct {
	Name            string
	Version         string
	Description     string
	Main            string
	Types           string
	Dependencies    OrderedMap
	DevDependencies OrderedMap
	Scripts         OrderedMap
	Workspaces      Workspaces

	raw    json.RawMessage
	fields int
}

// Workspaces is the normalized "workspaces" declaration. The field may be an
// array of patterns or an object with a "packages" array.
type Workspaces struct {
	// Patterns lists declared paths and globs in declaration order.
	Patterns []string
	// Declared is true when the field is present and truthy, even if it
	// yields no patterns.
	Declared bool
	// Object is true for the {"packages": [...]} form.
	Object bool
}

// Concrete returns the declared patterns that contain no wildcard.
func (w Workspaces) Concrete() []string {
	var out []string
	for _, p := range w.Patterns {
		if !strings.Contains(p, "*") {
			out = append(out, p)
		}
	}
	return out
}

// Empty returns a manifest with no content.
func Empty() *Manifest {
	return &Manifest{}
}

// IsEmpty reports whether the manifest had no top-level fields.
func (m *Manifest) IsEmpty() bool {
	return m == nil || m.fields == 0
}

// Raw returns the original JSON document, or nil for an empty manifest.
func (m *Manifest) Raw() json.RawMessage {
	if m == nil {
		return nil
	}
	return m.raw
}

// VersionOrDefault returns the manifest version or DefaultVersion.
func (m *Manifest) VersionOrDefault() string {
	if m == nil || m.Version == "" {
		return DefaultVersion
	}
	return m.Version
}

// AllDependencies merges dependencies with devDependencies, devDependencies
// winning on collision.
func (m *Manifest) AllDependencies() OrderedMap {
	if m == nil {
		return OrderedMap{}
	}
	return m.Dependencies.Merge(m.DevDependencies)
}

// Parse decodes a manifest. Only a document that is not a JSON object is an
// error; individual malformed fields are ignored.
func Parse(data []byte) (*Manifest, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if top == nil {
		return nil, fmt.Errorf("parse manifest: document is not an object")
	}

	m := &Manifest{
		raw:    append(json.RawMessage(nil), bytes.TrimSpace(data)...),
		fields: len(top),
	}
	m.Name = stringField(top, "name")
	m.Version = stringField(top, "version")
	m.Description = stringField(top, "description")
	m.Main = stringField(top, "main")
	m.Types = stringField(top, "types")
	m.Dependencies = mapField(top, "dependencies")
	m.DevDependencies = mapField(top, "devDependencies")
	m.Scripts = mapField(top, "scripts")
	m.Workspaces = parseWorkspaces(top["workspaces"])
	return m, nil
}

func stringField(top map[string]json.RawMessage, key string) string {
	raw, ok := top[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func mapField(top map[string]json.RawMessage, key string) OrderedMap {
	raw, ok := top[key]
	if !ok {
		return OrderedMap{}
	}
	var m OrderedMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return OrderedMap{}
	}
	return m
}

func parseWorkspaces(raw json.RawMessage) Workspaces {
	trimmed := string(bytes.TrimSpace(raw))
	switch trimmed {
	case "", "null", "false", "0", `""`:
		return Workspaces{}
	}

	ws := Workspaces{Declared: true}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		ws.Patterns = stringsOf(list)
		return ws
	}

	var obj struct {
		Packages []json.RawMessage `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		ws.Patterns = stringsOf(obj.Packages)
		ws.Object = true
	}
	return ws
}

func stringsOf(list []json.RawMessage) []string {
	var out []string
	for _, item := range list {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

var rangeOperator = regexp.MustCompile(`[\^~]`)

// CleanVersion strips the first range operator (^ or ~) from a version
// string for display.
func CleanVersion(v string) string {
	loc := rangeOperator.FindStringIndex(v)
	if loc == nil {
		return v
	}
	return v[:loc[0]] + v[loc[1]:]
}
