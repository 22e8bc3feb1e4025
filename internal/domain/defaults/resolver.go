package defaults

import (
	"time"

	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/docprompts"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/resource"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/platform/clock"
)

// DateLayout is the wire format of resolved dates.
const DateLayout = "2006-01-02"

// Catalog looks up resource definitions.
type Catalog interface {
	Lookup(ehr, id string) (resource.Definition, bool)
}

// PromptSource returns the default prompt of an (EHR, document type) pair.
type PromptSource interface {
	Get(key docprompts.Key) (string, bool)
}

// Resolver fills form state from resource definitions and document-type
// prompts. It never fails: stale references leave the filter fields empty.
type Resolver struct {
	catalog Catalog
	prompts PromptSource
	clock   clock.Clock
}

func NewResolver(catalog Catalog, prompts PromptSource, clk clock.Clock) *Resolver {
	if clk == nil {
		clk = clock.New()
	}
	return &Resolver{catalog: catalog, prompts: prompts, clock: clk}
}

// OnResourceSelected resets the filter-backed fields and fills them from the
// resource resourceID of state.EHR. Prompt fields are only written while empty.
func (r *Resolver) OnResourceSelected(resourceID string, state FormState) FormState {
	state.resetFilters()
	state.ResourceID = resourceID

	def, ok := r.catalog.Lookup(state.EHR, resourceID)
	if !ok {
		state.ResourceID = ""
		return state
	}

	now := r.today()
	for _, f := range def.Filters.Editable {
		applyEditable(&state, f, now)
	}
	for _, f := range def.Filters.Advanced {
		if f.Type.IsDate() || !f.HasDefault() {
			continue
		}
		applyValue(&state, f)
	}
	if def.FileFormat != "" {
		state.FileFormat = def.FileFormat
	}

	r.populatePrompts(&state, def)
	return state
}

// OnInputTypeToggle flips one input-type checkbox and re-runs prompt
// population with the new shape.
func (r *Resolver) OnInputTypeToggle(field InputField, value bool, state FormState) (FormState, error) {
	if err := state.setFlag(field, value); err != nil {
		return state, err
	}
	if state.ResourceID == "" {
		return state, nil
	}
	def, ok := r.catalog.Lookup(state.EHR, state.ResourceID)
	if !ok {
		return state, nil
	}
	r.populatePrompts(&state, def)
	return state, nil
}

func (r *Resolver) populatePrompts(state *FormState, def resource.Definition) {
	if r.prompts == nil {
		return
	}
	prompt, ok := r.prompts.Get(docprompts.Key{EHR: state.EHR, DocumentType: def.DocumentType})
	if !ok {
		return
	}

	if !state.UseSeparatePrompts {
		fillEmpty(&state.Prompt, prompt)
		return
	}
	if state.PullFromEHR {
		fillEmpty(&state.EHRPrompt, prompt)
	}
	if state.AllowUpload {
		fillEmpty(&state.UploadPrompt, prompt)
	}
	if state.AllowText {
		fillEmpty(&state.TextPrompt, prompt)
	}
}

func fillEmpty(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (r *Resolver) today() time.Time {
	now := r.clock.Now()
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// ResolveWindow returns the start and end dates of w counted back from now.
// The end is now minus the To offsets; the start is the end minus the plain
// offsets.
func ResolveWindow(w resource.Window, now time.Time) (from, to time.Time) {
	to = now.AddDate(-w.YearsBackTo, -w.MonthsBackTo, -w.DaysBackTo)
	from = to.AddDate(-w.YearsBack, -w.MonthsBack, -w.DaysBack)
	return from, to
}

func applyEditable(state *FormState, f resource.Filter, now time.Time) {
	switch f.Type {
	case resource.FilterDateRange, resource.FilterHowFarBack:
		from, to := ResolveWindow(f.Window, now)
		state.DateFrom = from.Format(DateLayout)
		state.DateTo = to.Format(DateLayout)
	case resource.FilterSingleDate:
		_, to := ResolveWindow(f.Window, now)
		state.SingleDate = to.Format(DateLayout)
	default:
		applyValue(state, f)
	}
}

func applyValue(state *FormState, f resource.Filter) {
	switch f.Type {
	case resource.FilterCount:
		state.Count = f.Count
	case resource.FilterRetrievalMethod:
		state.RetrievalMethod = f.Value
	case resource.FilterSortingDirection:
		state.SortingDirection = f.Value
	case resource.FilterOrganizationIDs:
		state.OrganizationIDs = copyValues(f.Values)
	case resource.FilterTemplateIDs:
		state.TemplateIDs = copyValues(f.Values)
	case resource.FilterKeywords:
		state.Keywords = copyValues(f.Values)
	case resource.FilterVisitTypes:
		state.VisitTypes = copyValues(f.Values)
	case resource.FilterDocumentTypes:
		state.DocumentTypes = copyValues(f.Values)
	}
}

func copyValues(v []string) []string {
	if len(v) == 0 {
		return nil
	}
	return append([]string(nil), v...)
}
