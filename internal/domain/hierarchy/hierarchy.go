package hierarchy

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Hierarchy is the three-level section tree shared by every note template.
// Sections added at runtime start out as ghosts until they receive their
// first assignment.
type Hierarchy struct {
	mu     sync.RWMutex
	roots  []*Section
	index  map[string]*Section
	ghosts map[string]bool
}

func newHierarchy() *Hierarchy {
	return &Hierarchy{
		index:  make(map[string]*Section),
		ghosts: make(map[string]bool),
	}
}

// Flatten returns every section depth-first, parents before their children,
// siblings in display order.
func (h *Hierarchy) Flatten() []FlatSection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]FlatSection, 0, len(h.index))
	var walk func(nodes []*Section)
	walk = func(nodes []*Section) {
		for _, s := range nodes {
			out = append(out, h.flat(s))
			walk(s.Children)
		}
	}
	walk(h.roots)
	return out
}

// Lookup returns the flattened row for key.
func (h *Hierarchy) Lookup(key string) (FlatSection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s, ok := h.index[key]
	if !ok {
		return FlatSection{}, false
	}
	return h.flat(s), true
}

// Has reports whether key names a section.
func (h *Hierarchy) Has(key string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.index[key]
	return ok
}

// Len returns the number of sections.
func (h *Hierarchy) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.index)
}

func (h *Hierarchy) flat(s *Section) FlatSection {
	return FlatSection{
		Key:       s.Key,
		Name:      s.Name,
		Level:     s.Level,
		ParentKey: s.ParentKey,
		ChildKey:  s.ChildKey,
		Ghost:     h.ghosts[s.Key],
	}
}

// AddSection inserts a ghost section at the requested position. The level of
// the new node must agree with the position: "start" takes a parent, "after"
// takes the level of its anchor, and "child-start" takes the level below its
// parent. Nothing is modified when the insertion is rejected.
func (h *Hierarchy) AddSection(ns NewSection) (FlatSection, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := strings.TrimSpace(ns.Name)
	if name == "" {
		return FlatSection{}, fmt.Errorf("%w: name is required", ErrInvalidSection)
	}
	if !ns.Level.Valid() {
		return FlatSection{}, fmt.Errorf("%w: unknown level %q", ErrInvalidSection, ns.Level)
	}

	node := &Section{Name: name, Level: ns.Level}
	var siblings *[]*Section
	insertAt := 0

	switch ns.Position.Type {
	case PositionStart:
		if ns.Level != LevelParent {
			return FlatSection{}, positionError("%s section cannot be placed at the start of a template", ns.Level)
		}
		siblings = &h.roots

	case PositionAfter:
		anchor, ok := h.index[ns.Position.SectionKey]
		if !ok {
			return FlatSection{}, positionError("anchor section %q not found", ns.Position.SectionKey)
		}
		if anchor.Level != ns.Level {
			return FlatSection{}, positionError("%s section cannot follow %s section %q", ns.Level, anchor.Level, anchor.Key)
		}
		node.ParentKey = anchor.ParentKey
		node.ChildKey = anchor.ChildKey
		siblings = h.siblingsOf(anchor)
		insertAt = indexOf(*siblings, anchor) + 1

	case PositionChildStart:
		parent, ok := h.index[ns.Position.ParentKey]
		if !ok {
			return FlatSection{}, positionError("parent section %q not found", ns.Position.ParentKey)
		}
		if parent.Level.Next() == "" || parent.Level.Next() != ns.Level {
			return FlatSection{}, positionError("%s section cannot be the first child of %s section %q", ns.Level, parent.Level, parent.Key)
		}
		if parent.Level == LevelParent {
			node.ParentKey = parent.Key
		} else {
			node.ParentKey = parent.ParentKey
			node.ChildKey = parent.Key
		}
		siblings = &parent.Children

	default:
		return FlatSection{}, positionError("unknown position type %q", ns.Position.Type)
	}

	key := strings.TrimSpace(ns.Key)
	if key == "" {
		key = h.deriveKey(node)
	} else if _, exists := h.index[key]; exists {
		return FlatSection{}, fmt.Errorf("%w: %s", ErrDuplicateSection, key)
	}
	node.Key = key

	*siblings = insertSection(*siblings, insertAt, node)
	h.index[key] = node
	h.ghosts[key] = true
	return h.flat(node), nil
}

// IsGhost reports whether key is a ghost section.
func (h *Hierarchy) IsGhost(key string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ghosts[key]
}

// Activate clears the ghost flag on key and on any ghost ancestors, returning
// the keys that changed. Ghost status is never restored.
func (h *Hierarchy) Activate(key string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var cleared []string
	for s, ok := h.index[key]; ok; s, ok = h.index[s.immediateParent()] {
		if h.ghosts[s.Key] {
			delete(h.ghosts, s.Key)
			cleared = append(cleared, s.Key)
		}
		if s.Level == LevelParent {
			break
		}
	}
	return cleared
}

// Clone returns an independent deep copy, ghost flags included.
func (h *Hierarchy) Clone() *Hierarchy {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c := newHierarchy()
	var copyNodes func(nodes []*Section) []*Section
	copyNodes = func(nodes []*Section) []*Section {
		if nodes == nil {
			return nil
		}
		out := make([]*Section, len(nodes))
		for i, s := range nodes {
			cp := *s
			cp.Children = copyNodes(s.Children)
			out[i] = &cp
			c.index[cp.Key] = &cp
		}
		return out
	}
	c.roots = copyNodes(h.roots)
	for k, v := range h.ghosts {
		c.ghosts[k] = v
	}
	return c
}

func (h *Hierarchy) siblingsOf(s *Section) *[]*Section {
	if s.Level == LevelParent {
		return &h.roots
	}
	return &h.index[s.immediateParent()].Children
}

func (h *Hierarchy) deriveKey(node *Section) string {
	base := slug(node.Name)
	if p := node.immediateParent(); p != "" {
		base = p + "-" + base
	}
	key := base
	for i := 2; ; i++ {
		if _, exists := h.index[key]; !exists {
			return key
		}
		key = base + "-" + strconv.Itoa(i)
	}
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "section"
	}
	return out
}

func indexOf(nodes []*Section, target *Section) int {
	for i, s := range nodes {
		if s == target {
			return i
		}
	}
	return -1
}

func insertSection(nodes []*Section, at int, s *Section) []*Section {
	nodes = append(nodes, nil)
	copy(nodes[at+1:], nodes[at:])
	nodes[at] = s
	return nodes
}
