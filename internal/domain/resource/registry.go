package resource

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed resources.yaml
var defaultCatalog []byte

// EHR is a vendor and the resources it exposes.
type EHR struct {
	ID        string       `yaml:"id" json:"id"`
	Name      string       `yaml:"name" json:"name"`
	Resources []Definition `yaml:"resources" json:"resources"`
}

type catalogFile struct {
	EHRs []EHR `yaml:"ehrs"`
}

// Registry is the read-only catalog of resources per EHR.
type Registry struct {
	ehrs  []EHR
	byEHR map[string]int
	byID  map[string]Definition
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Registry, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode resource catalog: %w", err)
	}
	return NewRegistry(f.EHRs)
}

// NewRegistry validates ehrs and indexes them. Filters listed under
// "editable" are marked editable; advanced filters never are.
func NewRegistry(ehrs []EHR) (*Registry, error) {
	r := &Registry{
		byEHR: make(map[string]int, len(ehrs)),
		byID:  make(map[string]Definition),
	}
	for _, e := range ehrs {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: ehr without id", ErrInvalidCatalog)
		}
		if _, dup := r.byEHR[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate ehr %q", ErrInvalidCatalog, e.ID)
		}
		out := EHR{ID: e.ID, Name: e.Name, Resources: make([]Definition, 0, len(e.Resources))}
		for _, d := range e.Resources {
			if d.ID == "" || d.DocumentType == "" {
				return nil, fmt.Errorf("%w: %s resource needs id and documentType", ErrInvalidCatalog, e.ID)
			}
			if _, dup := r.byID[d.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate resource %q", ErrInvalidCatalog, d.ID)
			}
			d.EHR = e.ID
			d.Filters.Editable = markEditable(d.Filters.Editable, true)
			d.Filters.Advanced = markEditable(d.Filters.Advanced, false)
			for _, f := range append(append([]Filter{}, d.Filters.Editable...), d.Filters.Advanced...) {
				if err := f.validate(); err != nil {
					return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCatalog, d.ID, err)
				}
			}
			r.byID[d.ID] = d
			out.Resources = append(out.Resources, d)
		}
		r.byEHR[e.ID] = len(r.ehrs)
		r.ehrs = append(r.ehrs, out)
	}
	return r, nil
}

func markEditable(filters []Filter, editable bool) []Filter {
	out := make([]Filter, len(filters))
	for i, f := range filters {
		f.Editable = editable
		out[i] = f
	}
	return out
}

// Default returns the built-in catalog.
func Default() (*Registry, error) {
	return Parse(defaultCatalog)
}

// MustDefault panics if the embedded catalog is invalid.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// EHRs returns the configured vendors, without their resources.
func (r *Registry) EHRs() []EHR {
	out := make([]EHR, len(r.ehrs))
	for i, e := range r.ehrs {
		out[i] = EHR{ID: e.ID, Name: e.Name}
	}
	return out
}

// HasEHR reports whether ehr is configured.
func (r *Registry) HasEHR(ehr string) bool {
	_, ok := r.byEHR[ehr]
	return ok
}

// ResourcesFor returns the resources of ehr in catalog order. Unknown vendors
// have no resources.
func (r *Registry) ResourcesFor(ehr string) []Definition {
	i, ok := r.byEHR[ehr]
	if !ok {
		return nil
	}
	return append([]Definition(nil), r.ehrs[i].Resources...)
}

// Lookup finds a resource of ehr by id.
func (r *Registry) Lookup(ehr, id string) (Definition, bool) {
	d, ok := r.byID[id]
	if !ok || d.EHR != ehr {
		return Definition{}, false
	}
	return d, true
}

// DocumentTypesFor returns the distinct document types of ehr, sorted.
func (r *Registry) DocumentTypesFor(ehr string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range r.ResourcesFor(ehr) {
		if !seen[d.DocumentType] {
			seen[d.DocumentType] = true
			out = append(out, d.DocumentType)
		}
	}
	sort.Strings(out)
	return out
}

// AllEHRDocumentTypeCombinations lists every (EHR, document type) pair, EHRs
// in catalog order and document types sorted within each.
func (r *Registry) AllEHRDocumentTypeCombinations() []Combination {
	var out []Combination
	for _, e := range r.ehrs {
		for _, dt := range r.DocumentTypesFor(e.ID) {
			out = append(out, Combination{EHR: e.ID, DocumentType: dt})
		}
	}
	return out
}
