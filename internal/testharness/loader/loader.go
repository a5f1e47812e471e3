package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseTestCase parses a scenario from YAML bytes.
func ParseTestCase(data []byte) (*TestCase, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}
	if len(root.Content) == 0 {
		return nil, &LoadError{Message: "empty document"}
	}

	var tc TestCase
	if err := root.Content[0].Decode(&tc); err != nil {
		return nil, &LoadError{
			Message: "failed to decode test case",
			Cause:   err,
		}
	}

	if tc.ID == "" {
		return nil, &LoadError{
			Line:    root.Content[0].Line,
			Message: "test case ID is required",
		}
	}

	if len(tc.Steps) == 0 {
		return nil, &LoadError{
			Line:    root.Content[0].Line,
			Message: "test case must have at least one step",
		}
	}

	lines := stepLines(root.Content[0])
	for i := range tc.Steps {
		if i < len(lines) {
			tc.Steps[i].Line = lines[i]
		}
		if tc.Steps[i].Action == "" {
			return nil, &LoadError{
				Line:    tc.Steps[i].Line,
				Message: fmt.Sprintf("step %d has no action", i+1),
			}
		}
		if _, err := tc.Steps[i].ParseTimeout(0); err != nil {
			return nil, &LoadError{
				Line:    tc.Steps[i].Line,
				Message: fmt.Sprintf("step %d timeout", i+1),
				Cause:   err,
			}
		}
	}
	if _, err := tc.ParseTimeout(0); err != nil {
		return nil, &LoadError{Message: "test case timeout", Cause: err}
	}

	return &tc, nil
}

// stepLines returns the source line of each entry under "steps".
func stepLines(doc *yaml.Node) []int {
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "steps" {
			continue
		}
		seq := doc.Content[i+1]
		lines := make([]int, 0, len(seq.Content))
		for _, n := range seq.Content {
			lines = append(lines, n.Line)
		}
		return lines
	}
	return nil
}

// LoadTestCase loads a scenario from a file.
func LoadTestCase(path string) (*TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	tc, err := ParseTestCase(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	tc.File = path

	return tc, nil
}

// LoadDirectory loads all scenarios from a directory, sorted by ID.
// Only files with .yaml or .yml extensions are loaded; duplicate IDs are
// rejected.
func LoadDirectory(dir string) ([]*TestCase, error) {
	var cases []*TestCase
	seen := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		tc, err := LoadTestCase(path)
		if err != nil {
			return err
		}
		if prev, dup := seen[tc.ID]; dup {
			return &LoadError{
				File:    path,
				Message: fmt.Sprintf("duplicate test case ID %s (first in %s)", tc.ID, prev),
			}
		}
		seen[tc.ID] = path

		cases = append(cases, tc)
		return nil
	})
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, &LoadError{
			File:    dir,
			Message: "failed to read directory",
			Cause:   err,
		}
	}

	sort.Slice(cases, func(i, j int) bool { return cases[i].ID < cases[j].ID })
	return cases, nil
}
