package matrix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/hierarchy"
)

var (
	ErrConstraintViolation = errors.New("assignment constraint violated")
	ErrUnknownReference    = errors.New("unknown reference")
	ErrInvalidCellKey      = errors.New("invalid cell key")
	ErrInvalidAction       = errors.New("invalid action")
	ErrRecordNotFound      = errors.New("assignment not found")
)

// CellKey addresses one (section, template) cell of the matrix.
type CellKey struct {
	Section  string             `json:"section"`
	Template hierarchy.Template `json:"template"`
}

// String renders the key as "section/template". Section keys contain
// hyphens, so "/" is the only separator that round-trips.
func (k CellKey) String() string {
	return k.Section + "/" + string(k.Template)
}

// NewCellKey validates the template and builds a key.
func NewCellKey(section, template string) (CellKey, error) {
	section = strings.TrimSpace(section)
	if section == "" {
		return CellKey{}, fmt.Errorf("%w: section is required", ErrInvalidCellKey)
	}
	tpl, err := hierarchy.ParseTemplate(template)
	if err != nil {
		return CellKey{}, fmt.Errorf("%w: %v", ErrInvalidCellKey, err)
	}
	return CellKey{Section: section, Template: tpl}, nil
}

// ParseCellKey parses the String form of a key.
func ParseCellKey(s string) (CellKey, error) {
	i := strings.LastIndex(s, "/")
	if i < 0 {
		return CellKey{}, fmt.Errorf("%w: %q", ErrInvalidCellKey, s)
	}
	return NewCellKey(s[:i], s[i+1:])
}

// MustCellKey is NewCellKey for keys written in code.
func MustCellKey(section, template string) CellKey {
	k, err := NewCellKey(section, template)
	if err != nil {
		panic(err)
	}
	return k
}

// Action is what a summarizer's output does to the section text.
type Action string

const (
	ActionAppend  Action = "append"
	ActionPrepend Action = "prepend"
	ActionInform  Action = "inform"
)

func (a Action) Valid() bool {
	return a == ActionAppend || a == ActionPrepend || a == ActionInform
}

// Exclusive reports whether the action shapes note content. A summarizer
// holds at most one exclusive action in the whole matrix.
func (a Action) Exclusive() bool {
	return a == ActionAppend || a == ActionPrepend
}

func (a Action) verb() string {
	switch a {
	case ActionAppend:
		return "appending"
	case ActionPrepend:
		return "prepending"
	}
	return "informing"
}

// Display is the badge shown for a record.
type Display struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

var displays = map[Action]Display{
	ActionAppend:  {Label: "Append", Color: "#2563eb", Icon: "arrow-down-to-line"},
	ActionPrepend: {Label: "Prepend", Color: "#16a34a", Icon: "arrow-up-to-line"},
	ActionInform:  {Label: "Inform", Color: "#d97706", Icon: "info"},
}

// Display returns the badge metadata of a.
func (a Action) Display() Display {
	return displays[a]
}

// ParseAction validates s as an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return a, nil
}

// Record is one summarizer placed in a cell.
type Record struct {
	ID           string  `json:"id"`
	SummarizerID string  `json:"summarizerId"`
	Action       Action  `json:"action"`
	Instructions string  `json:"instructions,omitempty"`
	Display      Display `json:"display"`
}

// Cell is a non-empty cell and its records in display order.
type Cell struct {
	Key     CellKey  `json:"key"`
	Records []Record `json:"records"`
}

// Placement locates a record in the matrix.
type Placement struct {
	Cell         CellKey `json:"cell"`
	SectionName  string  `json:"sectionName"`
	RecordID     string  `json:"recordId"`
	SummarizerID string  `json:"summarizerId"`
	Action       Action  `json:"action"`
}

// Reason classifies a rejected assignment.
type Reason string

const (
	ReasonExclusiveTaken Reason = "exclusive-action-taken"
	ReasonAlreadyInCell  Reason = "already-in-cell"
)

// Decision is the outcome of an assignment check. Conflict is set when
// Allowed is false.
type Decision struct {
	Allowed  bool       `json:"allowed"`
	Reason   Reason     `json:"reason,omitempty"`
	Message  string     `json:"message,omitempty"`
	Conflict *Placement `json:"conflict,omitempty"`
}

// ConstraintViolation is returned by mutating operations rejected by the
// assignment rules. It matches ErrConstraintViolation.
type ConstraintViolation struct {
	Decision
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s: %s", ErrConstraintViolation, e.Message)
}

func (e *ConstraintViolation) Is(target error) bool {
	return target == ErrConstraintViolation
}
