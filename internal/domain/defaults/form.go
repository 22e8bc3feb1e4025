package defaults

import (
	"errors"
	"fmt"
)

var ErrUnknownField = errors.New("unknown input type field")

// FormState is the summarizer editor's resource and prompt form. Filter-backed
// fields are owned by the resolver and reset on every resource selection;
// prompt fields belong to the operator once they are non-empty.
type FormState struct {
	EHR        string `json:"ehr"`
	ResourceID string `json:"resourceId,omitempty"`

	PullFromEHR        bool `json:"pullFromEHR"`
	AllowUpload        bool `json:"allowUpload"`
	AllowText          bool `json:"allowText"`
	UseSeparatePrompts bool `json:"useSeparatePrompts"`

	Prompt       string `json:"prompt,omitempty"`
	EHRPrompt    string `json:"ehrPrompt,omitempty"`
	UploadPrompt string `json:"uploadPrompt,omitempty"`
	TextPrompt   string `json:"textPrompt,omitempty"`

	FileFormat       string   `json:"fileFormat,omitempty"`
	DateFrom         string   `json:"dateFrom,omitempty"`
	DateTo           string   `json:"dateTo,omitempty"`
	SingleDate       string   `json:"singleDate,omitempty"`
	Count            int      `json:"count,omitempty"`
	RetrievalMethod  string   `json:"retrievalMethod,omitempty"`
	SortingDirection string   `json:"sortingDirection,omitempty"`
	OrganizationIDs  []string `json:"organizationIds,omitempty"`
	TemplateIDs      []string `json:"templateIds,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	VisitTypes       []string `json:"visitTypes,omitempty"`
	DocumentTypes    []string `json:"documentTypes,omitempty"`
}

func (s *FormState) resetFilters() {
	s.FileFormat = ""
	s.DateFrom = ""
	s.DateTo = ""
	s.SingleDate = ""
	s.Count = 0
	s.RetrievalMethod = ""
	s.SortingDirection = ""
	s.OrganizationIDs = nil
	s.TemplateIDs = nil
	s.Keywords = nil
	s.VisitTypes = nil
	s.DocumentTypes = nil
}

// InputField names a checkbox of the input-type group.
type InputField string

const (
	FieldPullFromEHR        InputField = "pullFromEHR"
	FieldAllowUpload        InputField = "allowUpload"
	FieldAllowText          InputField = "allowText"
	FieldUseSeparatePrompts InputField = "useSeparatePrompts"
)

func (s *FormState) setFlag(field InputField, value bool) error {
	switch field {
	case FieldPullFromEHR:
		s.PullFromEHR = value
	case FieldAllowUpload:
		s.AllowUpload = value
	case FieldAllowText:
		s.AllowText = value
	case FieldUseSeparatePrompts:
		s.UseSeparatePrompts = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}
