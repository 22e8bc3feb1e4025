package matrix

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/hierarchy"
)

// Sections is the part of the section hierarchy the engine reads, plus the
// one-way ghost transition it triggers.
type Sections interface {
	Lookup(key string) (hierarchy.FlatSection, bool)
	Flatten() []hierarchy.FlatSection
	Activate(key string) []string
}

// Summarizers is the summarizer catalog as seen by the engine.
type Summarizers interface {
	Exists(id string) bool
	Remove(id string) bool
}

// Engine owns the assignment matrix of one doctor. Every operation validates
// before it mutates, under a single lock, so callers never observe a partial
// change.
type Engine struct {
	mu          sync.Mutex
	cells       map[CellKey][]Record
	sections    Sections
	summarizers Summarizers
	logger      zerolog.Logger
	newID       func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for mutation events.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithIDGenerator replaces the record id source.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func NewEngine(sections Sections, summarizers Summarizers, opts ...Option) *Engine {
	e := &Engine{
		cells:       make(map[CellKey][]Record),
		sections:    sections,
		summarizers: summarizers,
		logger:      zerolog.Nop(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CanAssign checks whether summarizerID may take action in cell. A rejected
// assignment is reported in the Decision; the error is reserved for bad input
// and unknown references.
func (e *Engine) CanAssign(summarizerID string, cell CellKey, action Action) (Decision, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validate(summarizerID, cell, action); err != nil {
		return Decision{}, err
	}
	return e.check(summarizerID, cell, action, ""), nil
}

// Assign re-checks the rules and appends a new record to cell. The first
// assignment into a ghost section makes it, and its ghost ancestors, active.
func (e *Engine) Assign(summarizerID string, cell CellKey, action Action, instructions string) (Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validate(summarizerID, cell, action); err != nil {
		return Record{}, err
	}
	if d := e.check(summarizerID, cell, action, ""); !d.Allowed {
		return Record{}, &ConstraintViolation{Decision: d}
	}

	rec := Record{
		ID:           e.newID(),
		SummarizerID: summarizerID,
		Action:       action,
		Instructions: strings.TrimSpace(instructions),
		Display:      action.Display(),
	}
	e.cells[cell] = append(e.cells[cell], rec)

	if cleared := e.sections.Activate(cell.Section); len(cleared) > 0 {
		e.logger.Debug().Strs("sections", cleared).Msg("ghost sections activated")
	}
	e.logger.Debug().
		Str("summarizer_id", summarizerID).
		Str("cell", cell.String()).
		Str("action", string(action)).
		Str("record_id", rec.ID).
		Msg("assignment created")
	return rec, nil
}

// Unassign removes a record. Removing the last record drops the cell. Unknown
// records are ignored; the result reports whether anything was removed.
func (e *Engine) Unassign(cell CellKey, recordID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	records := e.cells[cell]
	for i, r := range records {
		if r.ID != recordID {
			continue
		}
		e.removeAt(cell, i)
		e.logger.Debug().Str("cell", cell.String()).Str("record_id", recordID).Msg("assignment removed")
		return true
	}
	return false
}

// DeleteSummarizerCascade removes the summarizer from the catalog and every
// record that references it, returning the number of records removed.
// Unknown summarizers are a no-op.
func (e *Engine) DeleteSummarizerCascade(summarizerID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removedCatalog := false
	if e.summarizers != nil {
		removedCatalog = e.summarizers.Remove(summarizerID)
	}

	removed := 0
	for key, records := range e.cells {
		kept := records[:0:0]
		for _, r := range records {
			if r.SummarizerID == summarizerID {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == len(records) {
			continue
		}
		if len(kept) == 0 {
			delete(e.cells, key)
		} else {
			e.cells[key] = kept
		}
	}

	if removedCatalog || removed > 0 {
		e.logger.Debug().
			Str("summarizer_id", summarizerID).
			Int("records_removed", removed).
			Msg("summarizer deleted")
	}
	return removed
}

// ChangeAction switches the action of an existing record, applying the same
// exclusivity rule as Assign with the record itself left out of the scan.
func (e *Engine) ChangeAction(cell CellKey, recordID string, action Action) (Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !action.Valid() {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	i, ok := e.find(cell, recordID)
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	rec := e.cells[cell][i]
	if rec.Action == action {
		return rec, nil
	}
	if d := e.check(rec.SummarizerID, cell, action, recordID); !d.Allowed {
		return Record{}, &ConstraintViolation{Decision: d}
	}

	rec.Action = action
	rec.Display = action.Display()
	e.cells[cell][i] = rec
	return rec, nil
}

// UpdateInstructions replaces the free-text instructions of a record.
func (e *Engine) UpdateInstructions(cell CellKey, recordID, instructions string) (Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.find(cell, recordID)
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	e.cells[cell][i].Instructions = strings.TrimSpace(instructions)
	return e.cells[cell][i], nil
}

// CellContents returns a copy of the records in cell, in display order.
func (e *Engine) CellContents(cell CellKey) []Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Record(nil), e.cells[cell]...)
}

// HasCell reports whether cell holds at least one record. Empty cells are
// never stored.
func (e *Engine) HasCell(cell CellKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.cells[cell]
	return ok
}

// Snapshot returns every non-empty cell, rows in hierarchy order and columns
// in template order.
func (e *Engine) Snapshot() []Cell {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []Cell
	for _, s := range e.sections.Flatten() {
		for _, t := range hierarchy.Templates() {
			key := CellKey{Section: s.Key, Template: t}
			if records, ok := e.cells[key]; ok {
				out = append(out, Cell{Key: key, Records: append([]Record(nil), records...)})
			}
		}
	}
	return out
}

// PlacementsFor lists every cell that holds summarizerID, in Snapshot order.
func (e *Engine) PlacementsFor(summarizerID string) []Placement {
	var out []Placement
	for _, c := range e.Snapshot() {
		for _, r := range c.Records {
			if r.SummarizerID == summarizerID {
				out = append(out, e.placement(c.Key, r))
			}
		}
	}
	return out
}

func (e *Engine) validate(summarizerID string, cell CellKey, action Action) error {
	if !action.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if !cell.Template.Valid() {
		return fmt.Errorf("%w: unknown template %q", ErrInvalidCellKey, cell.Template)
	}
	if _, ok := e.sections.Lookup(cell.Section); !ok {
		return fmt.Errorf("%w: section %q", ErrUnknownReference, cell.Section)
	}
	if summarizerID == "" || (e.summarizers != nil && !e.summarizers.Exists(summarizerID)) {
		return fmt.Errorf("%w: summarizer %q", ErrUnknownReference, summarizerID)
	}
	return nil
}

// check applies the two assignment rules: a summarizer appears at most once
// per cell, and holds at most one append/prepend across the matrix. skipID
// excludes one record from both scans.
func (e *Engine) check(summarizerID string, cell CellKey, action Action, skipID string) Decision {
	for _, r := range e.cells[cell] {
		if r.SummarizerID == summarizerID && r.ID != skipID {
			p := e.placement(cell, r)
			return Decision{
				Reason:   ReasonAlreadyInCell,
				Message:  fmt.Sprintf("Already assigned to %s (%s)", p.SectionName, cell.Template.DisplayName()),
				Conflict: &p,
			}
		}
	}

	if !action.Exclusive() {
		return Decision{Allowed: true}
	}
	for key, records := range e.cells {
		for _, r := range records {
			if r.SummarizerID != summarizerID || r.ID == skipID || !r.Action.Exclusive() {
				continue
			}
			p := e.placement(key, r)
			return Decision{
				Reason:   ReasonExclusiveTaken,
				Message:  fmt.Sprintf("Already %s in %s", r.Action.verb(), p.SectionName),
				Conflict: &p,
			}
		}
	}
	return Decision{Allowed: true}
}

func (e *Engine) placement(cell CellKey, r Record) Placement {
	name := cell.Section
	if s, ok := e.sections.Lookup(cell.Section); ok {
		name = s.Name
	}
	return Placement{
		Cell:         cell,
		SectionName:  name,
		RecordID:     r.ID,
		SummarizerID: r.SummarizerID,
		Action:       r.Action,
	}
}

func (e *Engine) find(cell CellKey, recordID string) (int, bool) {
	for i, r := range e.cells[cell] {
		if r.ID == recordID {
			return i, true
		}
	}
	return -1, false
}

func (e *Engine) removeAt(cell CellKey, i int) {
	records := e.cells[cell]
	if len(records) == 1 {
		delete(e.cells, cell)
		return
	}
	next := make([]Record, 0, len(records)-1)
	next = append(next, records[:i]...)
	next = append(next, records[i+1:]...)
	e.cells[cell] = next
}
