package hierarchy

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed hierarchy.yaml
var defaultDefinition []byte

// Definition is the static, declarative form of a section tree.
type Definition struct {
	Key      string       `yaml:"key"`
	Name     string       `yaml:"name"`
	Children []Definition `yaml:"children,omitempty"`
}

type definitionFile struct {
	Sections []Definition `yaml:"sections"`
}

// Parse decodes a YAML section tree and builds a Hierarchy from it.
func Parse(data []byte) (*Hierarchy, error) {
	var f definitionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode hierarchy: %w", err)
	}
	return FromDefinitions(f.Sections)
}

// FromDefinitions builds a Hierarchy. Sections built here are never ghosts.
func FromDefinitions(defs []Definition) (*Hierarchy, error) {
	h := newHierarchy()
	var build func(defs []Definition, level Level, parentKey, childKey string) ([]*Section, error)
	build = func(defs []Definition, level Level, parentKey, childKey string) ([]*Section, error) {
		if len(defs) == 0 {
			return nil, nil
		}
		if level == "" {
			return nil, fmt.Errorf("%w: sections nest deeper than three levels under %q", ErrInvalidDefinition, parentKey)
		}
		out := make([]*Section, 0, len(defs))
		for _, d := range defs {
			if d.Key == "" || d.Name == "" {
				return nil, fmt.Errorf("%w: section needs key and name (key=%q)", ErrInvalidDefinition, d.Key)
			}
			if _, dup := h.index[d.Key]; dup {
				return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidDefinition, d.Key)
			}
			s := &Section{Key: d.Key, Name: d.Name, Level: level, ParentKey: parentKey, ChildKey: childKey}
			h.index[d.Key] = s

			nextParent, nextChild := parentKey, childKey
			switch level {
			case LevelParent:
				nextParent = d.Key
			case LevelChild:
				nextChild = d.Key
			}
			children, err := build(d.Children, level.Next(), nextParent, nextChild)
			if err != nil {
				return nil, err
			}
			s.Children = children
			out = append(out, s)
		}
		return out, nil
	}

	roots, err := build(defs, LevelParent, "", "")
	if err != nil {
		return nil, err
	}
	h.roots = roots
	return h, nil
}

// Default returns a fresh copy of the built-in note section tree.
func Default() (*Hierarchy, error) {
	return Parse(defaultDefinition)
}

// MustDefault is Default for callers that treat a broken embedded definition
// as a programming error.
func MustDefault() *Hierarchy {
	h, err := Default()
	if err != nil {
		panic(err)
	}
	return h
}
