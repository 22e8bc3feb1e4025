package resource

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownEHR      = errors.New("unknown ehr")
	ErrUnknownResource = errors.New("unknown resource")
	ErrInvalidCatalog  = errors.New("invalid resource catalog")
)

// FilterType discriminates the Filter union.
type FilterType string

const (
	FilterCount            FilterType = "count"
	FilterDateRange        FilterType = "dateRange"
	FilterSingleDate       FilterType = "singleDate"
	FilterHowFarBack       FilterType = "howFarBack"
	FilterRetrievalMethod  FilterType = "retrievalMethod"
	FilterOrganizationIDs  FilterType = "organizationIds"
	FilterTemplateIDs      FilterType = "templateIds"
	FilterKeywords         FilterType = "keywords"
	FilterVisitTypes       FilterType = "visitTypes"
	FilterSortingDirection FilterType = "sortingDirection"
	FilterDocumentTypes    FilterType = "documentTypes"
)

// shape is the default-value form a filter type carries.
type shape int

const (
	shapeCount shape = iota
	shapeWindow
	shapeValue
	shapeValues
)

var filterShapes = map[FilterType]shape{
	FilterCount:            shapeCount,
	FilterDateRange:        shapeWindow,
	FilterSingleDate:       shapeWindow,
	FilterHowFarBack:       shapeWindow,
	FilterRetrievalMethod:  shapeValue,
	FilterSortingDirection: shapeValue,
	FilterOrganizationIDs:  shapeValues,
	FilterTemplateIDs:      shapeValues,
	FilterKeywords:         shapeValues,
	FilterVisitTypes:       shapeValues,
	FilterDocumentTypes:    shapeValues,
}

// IsDate reports whether the filter is resolved from clock offsets.
func (t FilterType) IsDate() bool {
	return filterShapes[t] == shapeWindow
}

// Window holds calendar offsets counted back from "now". The To offsets give
// the end of the window; the plain offsets give its length measured back from
// that end.
type Window struct {
	YearsBack    int `yaml:"yearsBack,omitempty" json:"yearsBack,omitempty"`
	MonthsBack   int `yaml:"monthsBack,omitempty" json:"monthsBack,omitempty"`
	DaysBack     int `yaml:"daysBack,omitempty" json:"daysBack,omitempty"`
	YearsBackTo  int `yaml:"yearsBackTo,omitempty" json:"yearsBackTo,omitempty"`
	MonthsBackTo int `yaml:"monthsBackTo,omitempty" json:"monthsBackTo,omitempty"`
	DaysBackTo   int `yaml:"daysBackTo,omitempty" json:"daysBackTo,omitempty"`
}

// Filter is one retrieval parameter of a resource. Which default field is
// meaningful depends on Type: Count for count, Window for the date types,
// Value for retrievalMethod and sortingDirection, Values for the list types.
type Filter struct {
	Type     FilterType `yaml:"type" json:"type"`
	Label    string     `yaml:"label,omitempty" json:"label,omitempty"`
	Editable bool       `yaml:"-" json:"editable"`
	Count    int        `yaml:"count,omitempty" json:"count,omitempty"`
	Window   `yaml:",inline"`
	Value    string   `yaml:"value,omitempty" json:"value,omitempty"`
	Values   []string `yaml:"values,omitempty" json:"values,omitempty"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// HasDefault reports whether an advanced filter declares a value to copy.
func (f Filter) HasDefault() bool {
	switch filterShapes[f.Type] {
	case shapeValue:
		return f.Value != ""
	case shapeValues:
		return len(f.Values) > 0
	case shapeCount:
		return f.Count > 0
	}
	return true
}

func (f Filter) validate() error {
	s, ok := filterShapes[f.Type]
	if !ok {
		return fmt.Errorf("unknown filter type %q", f.Type)
	}
	if s == shapeCount && f.Count < 0 {
		return fmt.Errorf("%s: count must not be negative", f.Type)
	}
	if s == shapeWindow {
		w := f.Window
		for _, v := range []int{w.YearsBack, w.MonthsBack, w.DaysBack, w.YearsBackTo, w.MonthsBackTo, w.DaysBackTo} {
			if v < 0 {
				return fmt.Errorf("%s: offsets must not be negative", f.Type)
			}
		}
	}
	if len(f.Options) > 0 && f.Value != "" && !contains(f.Options, f.Value) {
		return fmt.Errorf("%s: default %q is not one of %v", f.Type, f.Value, f.Options)
	}
	return nil
}

// Filters splits a resource's parameters into the always-editable set and the
// operator-gated advanced set.
type Filters struct {
	Editable []Filter `yaml:"editable,omitempty" json:"editable"`
	Advanced []Filter `yaml:"advanced,omitempty" json:"advanced"`
}

// Definition is a retrievable EHR resource.
type Definition struct {
	ID             string            `yaml:"id" json:"id"`
	EHR            string            `yaml:"-" json:"ehr"`
	ResourceLabel  string            `yaml:"resourceLabel" json:"resourceLabel"`
	DocumentType   string            `yaml:"documentType" json:"documentType"`
	SubType        string            `yaml:"subType,omitempty" json:"subType,omitempty"`
	FileFormat     string            `yaml:"fileFormat,omitempty" json:"fileFormat,omitempty"`
	Source         string            `yaml:"source" json:"source"`
	Filters        Filters           `yaml:"filters" json:"filters"`
	PipelineConfig map[string]string `yaml:"pipelineConfig,omitempty" json:"pipelineConfig,omitempty"`
}

// Filter returns the first filter of type t and whether it is editable.
func (d Definition) Filter(t FilterType) (Filter, bool) {
	for _, f := range d.Filters.Editable {
		if f.Type == t {
			return f, true
		}
	}
	for _, f := range d.Filters.Advanced {
		if f.Type == t {
			return f, true
		}
	}
	return Filter{}, false
}

var compositeMarkers = []string{"→", "->", "=>"}

// FormatLabel returns the display label of a resource. Labels that are
// already composite are returned as is; otherwise a sub type produces
// "{documentType} -> {subType}".
func FormatLabel(d Definition) string {
	for _, m := range compositeMarkers {
		if strings.Contains(d.ResourceLabel, m) {
			return d.ResourceLabel
		}
	}
	if d.SubType != "" {
		return d.DocumentType + " -> " + d.SubType
	}
	return d.ResourceLabel
}

// Combination is one (EHR, document type) pair.
type Combination struct {
	EHR          string `json:"ehr"`
	DocumentType string `json:"documentType"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
