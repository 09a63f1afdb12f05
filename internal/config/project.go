package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Project is a named, ordered list of circuits.
type Project struct {
	Name     string
	Circuits []string
}

// Projects keeps the order projects were declared in, which decides
// detection when several names match a path.
type Projects []Project

// UnmarshalYAML decodes a mapping of project name to circuit list,
// preserving key order.
func (p *Projects) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: projects must be a mapping", node.Line)
	}

	seen := make(map[string]bool)
	out := make(Projects, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		if seen[name] {
			return fmt.Errorf("line %d: duplicate project %q", node.Content[i].Line, name)
		}
		seen[name] = true

		var circuits []string
		if err := node.Content[i+1].Decode(&circuits); err != nil {
			return fmt.Errorf("project %q: %w", name, err)
		}
		out = append(out, Project{Name: name, Circuits: circuits})
	}
	*p = out
	return nil
}

// Names returns the project names in declaration order.
func (p Projects) Names() []string {
	names := make([]string, len(p))
	for i, proj := range p {
		names[i] = proj.Name
	}
	return names
}

// Circuits returns the circuit list of the named project.
func (p Projects) Circuits(name string) ([]string, bool) {
	for _, proj := range p {
		if proj.Name == name {
			return append([]string(nil), proj.Circuits...), true
		}
	}
	return nil, false
}

// FindCircuitFile returns the single .circ file in dir.
func FindCircuitFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.circ"))
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", dir, err)
	}

	var files []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Strings(files)

	switch len(files) {
	case 0:
		return "", fmt.Errorf("could not find a .circ file in %s", dir)
	case 1:
		return files[0], nil
	default:
		return "", fmt.Errorf("found %d .circ files in %s, expected exactly 1: %s",
			len(files), dir, strings.Join(files, ", "))
	}
}

// DetectProject infers the project a design file belongs to.
//
// The last declared project whose name occurs in the path (extension
// removed) wins. Otherwise the file name must have exactly three
// '_'-separated parts, as in lab_1_graycode.circ, and the third is the
// project. The result is not checked against the project table.
func (p Projects) DetectProject(circuitPath string) (string, error) {
	stem := strings.TrimSuffix(circuitPath, filepath.Ext(circuitPath))

	project := ""
	for _, proj := range p {
		if strings.Contains(stem, proj.Name) {
			project = proj.Name
		}
	}
	if project != "" {
		return project, nil
	}

	parts := strings.Split(filepath.Base(stem), "_")
	if len(parts) != 3 || parts[2] == "" {
		return "", fmt.Errorf("cannot infer project from circuit file name %s", circuitPath)
	}
	return parts[2], nil
}

// Resolve returns the circuits to validate for project. A non-empty only
// restricts the run to that one circuit.
func (p Projects) Resolve(project, only string) ([]string, error) {
	circuits, ok := p.Circuits(project)
	if !ok {
		return nil, fmt.Errorf("invalid project name %q; supported projects: %s",
			project, strings.Join(p.Names(), ", "))
	}
	if only != "" {
		return []string{only}, nil
	}
	return circuits, nil
}
