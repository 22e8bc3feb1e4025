package hierarchy

import "fmt"

// Template is a note template column of the assignment matrix.
type Template string

const (
	TemplateGeneral   Template = "general"
	TemplateFollowup  Template = "followup"
	TemplateNeurology Template = "neurology"
	TemplateInitial   Template = "initial"
)

var templateNames = map[Template]string{
	TemplateGeneral:   "General",
	TemplateFollowup:  "Follow-up",
	TemplateNeurology: "Neurology",
	TemplateInitial:   "Initial Visit",
}

// Templates returns every template in column order.
func Templates() []Template {
	return []Template{TemplateGeneral, TemplateFollowup, TemplateNeurology, TemplateInitial}
}

func (t Template) Valid() bool {
	_, ok := templateNames[t]
	return ok
}

// DisplayName returns the column header for t.
func (t Template) DisplayName() string {
	if n, ok := templateNames[t]; ok {
		return n
	}
	return string(t)
}

// ParseTemplate validates s as a Template.
func ParseTemplate(s string) (Template, error) {
	t := Template(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown template %q", s)
	}
	return t, nil
}
