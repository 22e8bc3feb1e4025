package summarizer

import "time"

// Summarizer is an operator-defined extraction job owned by a doctor.
type Summarizer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	DoctorID string `json:"doctorId"`
	EHR      string `json:"ehr"`
	Model    string `json:"model,omitempty"`
	Purpose  string `json:"purpose,omitempty"`

	PullFromEHR bool `json:"pullFromEHR"`
	AllowUpload bool `json:"allowUpload"`
	AllowText   bool `json:"allowText"`

	UseSeparatePrompts bool   `json:"useSeparatePrompts"`
	Prompt             string `json:"prompt,omitempty"`
	EHRPrompt          string `json:"ehrPrompt,omitempty"`
	UploadPrompt       string `json:"uploadPrompt,omitempty"`
	TextPrompt         string `json:"textPrompt,omitempty"`

	SelectedResource string `json:"selectedResource,omitempty"`
	Active           bool   `json:"active"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PromptFor returns the prompt used for one input type, falling back to the
// common prompt when prompts are not split.
func (s *Summarizer) PromptFor(input string) string {
	if !s.UseSeparatePrompts {
		return s.Prompt
	}
	switch input {
	case "ehr":
		return s.EHRPrompt
	case "upload":
		return s.UploadPrompt
	case "text":
		return s.TextPrompt
	}
	return ""
}
