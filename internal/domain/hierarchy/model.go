package hierarchy

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSection           = errors.New("unknown section")
	ErrDuplicateSection         = errors.New("section key already exists")
	ErrInvalidSection           = errors.New("invalid section")
	ErrInvalidInsertionPosition = errors.New("invalid insertion position")
	ErrInvalidDefinition        = errors.New("invalid hierarchy definition")
)

// Level is the depth of a section in the note template tree.
type Level string

const (
	LevelParent     Level = "parent"
	LevelChild      Level = "child"
	LevelGrandchild Level = "grandchild"
)

func (l Level) Valid() bool {
	return l == LevelParent || l == LevelChild || l == LevelGrandchild
}

// Next returns the level one below l, or "" for grandchildren.
func (l Level) Next() Level {
	switch l {
	case LevelParent:
		return LevelChild
	case LevelChild:
		return LevelGrandchild
	}
	return ""
}

// Section is a node of the hierarchy. Children are kept in display order.
type Section struct {
	Key       string
	Name      string
	Level     Level
	ParentKey string
	ChildKey  string
	Children  []*Section
}

// immediateParent is the key of the node directly above s.
func (s *Section) immediateParent() string {
	if s.Level == LevelGrandchild {
		return s.ChildKey
	}
	return s.ParentKey
}

// FlatSection is one row of the flattened hierarchy.
type FlatSection struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Level     Level  `json:"level"`
	ParentKey string `json:"parentKey,omitempty"`
	ChildKey  string `json:"childKey,omitempty"`
	Ghost     bool   `json:"ghost"`
}

type PositionType string

const (
	PositionStart      PositionType = "start"
	PositionAfter      PositionType = "after"
	PositionChildStart PositionType = "child-start"
)

// Position says where AddSection places a new node.
//
//	{Type: start}                        first top-level section
//	{Type: after, SectionKey: k}         directly after sibling k
//	{Type: child-start, ParentKey: k}    first child of k
type Position struct {
	Type       PositionType `json:"type"`
	SectionKey string       `json:"sectionKey,omitempty"`
	ParentKey  string       `json:"parentKey,omitempty"`
}

// NewSection is the input to AddSection. Key may be empty, in which case one is
// derived from the name and the parent key.
type NewSection struct {
	Key      string   `json:"key,omitempty"`
	Name     string   `json:"name"`
	Level    Level    `json:"level"`
	Position Position `json:"position"`
}

func positionError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInsertionPosition, fmt.Sprintf(format, args...))
}
