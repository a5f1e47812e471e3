package main

import (
	"fmt"
	"go/token"
	"os"

	"gopkg.in/yaml.v3"
)

// RawCatalog is the top level of catalog.yaml.
type RawCatalog struct {
	Package string       `yaml:"package"`
	Enums   []RawEnumDef `yaml:"enums"`
}

// RawEnumDef describes one identifier type.
type RawEnumDef struct {
	Type        string         `yaml:"type"`
	Description string         `yaml:"description"`
	Subject     string         `yaml:"subject"`  // noun used in String/Valid docs
	Table       string         `yaml:"table"`    // name of the value->name map
	Ordered     string         `yaml:"ordered"`  // optional: name of a declaration-order slice
	Receiver    string         `yaml:"receiver"` // optional: defaults to the first letter of Type
	Hex         bool           `yaml:"hex"`
	Values      []RawEnumValue `yaml:"values"`
}

// RawEnumValue is a single member.
type RawEnumValue struct {
	Const string `yaml:"const"`
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*RawCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes catalog YAML and validates it.
func ParseCatalog(data []byte) (*RawCatalog, error) {
	var cat RawCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks identifiers and rejects duplicate names, values and
// constants.
func (c *RawCatalog) Validate() error {
	if !token.IsIdentifier(c.Package) {
		return fmt.Errorf("invalid package name %q", c.Package)
	}
	if len(c.Enums) == 0 {
		return fmt.Errorf("no enums defined")
	}

	idents := make(map[string]string)
	claim := func(ident, owner string) error {
		if !token.IsIdentifier(ident) {
			return fmt.Errorf("%s: invalid identifier %q", owner, ident)
		}
		if prev, ok := idents[ident]; ok {
			return fmt.Errorf("%s: identifier %q already used by %s", owner, ident, prev)
		}
		idents[ident] = owner
		return nil
	}

	for i := range c.Enums {
		e := &c.Enums[i]
		if err := claim(e.Type, "enum "+e.Type); err != nil {
			return err
		}
		if e.Table == "" {
			return fmt.Errorf("enum %s: missing table", e.Type)
		}
		if err := claim(e.Table, "enum "+e.Type); err != nil {
			return err
		}
		if e.Ordered != "" {
			if err := claim(e.Ordered, "enum "+e.Type); err != nil {
				return err
			}
		}
		if len(e.Values) == 0 {
			return fmt.Errorf("enum %s: no values", e.Type)
		}

		names := make(map[string]bool)
		values := make(map[int64]string)
		for _, v := range e.Values {
			if err := claim(v.Const, "enum "+e.Type); err != nil {
				return err
			}
			if v.Name == "" {
				return fmt.Errorf("enum %s: %s has no name", e.Type, v.Const)
			}
			if names[v.Name] {
				return fmt.Errorf("enum %s: duplicate name %q", e.Type, v.Name)
			}
			names[v.Name] = true
			if prev, ok := values[v.Value]; ok {
				return fmt.Errorf("enum %s: %s and %s share value %d", e.Type, prev, v.Const, v.Value)
			}
			values[v.Value] = v.Const
		}
	}
	return nil
}
