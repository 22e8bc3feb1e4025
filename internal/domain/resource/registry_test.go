package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Loads(t *testing.T) {
	r := MustDefault()

	ehrs := r.EHRs()
	require.Len(t, ehrs, 3)
	assert.Equal(t, "ecw", ehrs[0].ID)
	assert.Empty(t, ehrs[0].Resources)
	assert.True(t, r.HasEHR("athena"))
	assert.False(t, r.HasEHR("cerner"))
}

func TestResourcesFor(t *testing.T) {
	r := MustDefault()

	ecw := r.ResourcesFor("ecw")
	require.NotEmpty(t, ecw)
	assert.Equal(t, "ecw-previous-notes-xml", ecw[0].ID)
	for _, d := range ecw {
		assert.Equal(t, "ecw", d.EHR)
	}
	assert.Nil(t, r.ResourcesFor("cerner"))
}

func TestResourcesFor_FilterClassification(t *testing.T) {
	r := MustDefault()

	d, ok := r.Lookup("ecw", "ecw-previous-notes-xml")
	require.True(t, ok)

	for _, f := range d.Filters.Editable {
		assert.True(t, f.Editable, "%s should be editable", f.Type)
	}
	for _, f := range d.Filters.Advanced {
		assert.False(t, f.Editable, "%s should be operator-only", f.Type)
	}

	dr, ok := d.Filter(FilterDateRange)
	require.True(t, ok)
	assert.Equal(t, 3, dr.YearsBack)
	assert.Equal(t, 3, dr.DaysBackTo)
	assert.True(t, dr.Type.IsDate())
	assert.Equal(t, "xml", d.FileFormat)
}

func TestLookup_WrongEHR(t *testing.T) {
	r := MustDefault()

	_, ok := r.Lookup("athena", "ecw-previous-notes-xml")
	assert.False(t, ok)
	_, ok = r.Lookup("ecw", "missing")
	assert.False(t, ok)
}

func TestFormatLabel(t *testing.T) {
	tests := []struct {
		name string
		in   Definition
		want string
	}{
		{"composite arrow", Definition{ResourceLabel: "Imaging -> Scanned PDF", DocumentType: "Imaging", SubType: "PDF"}, "Imaging -> Scanned PDF"},
		{"unicode arrow", Definition{ResourceLabel: "Notes → Signed", DocumentType: "Progress Notes", SubType: "XML"}, "Notes → Signed"},
		{"sub type", Definition{ResourceLabel: "Previous Notes", DocumentType: "Progress Notes", SubType: "XML"}, "Progress Notes -> XML"},
		{"plain", Definition{ResourceLabel: "Lab Results", DocumentType: "Lab Results"}, "Lab Results"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLabel(tt.in))
		})
	}
}

func TestDocumentTypesFor(t *testing.T) {
	r := MustDefault()

	assert.Equal(t, []string{"Imaging", "Lab Results", "Progress Notes", "Referrals"}, r.DocumentTypesFor("ecw"))
	assert.Empty(t, r.DocumentTypesFor("cerner"))
}

func TestAllEHRDocumentTypeCombinations(t *testing.T) {
	r := MustDefault()

	combos := r.AllEHRDocumentTypeCombinations()
	assert.Equal(t, Combination{EHR: "ecw", DocumentType: "Imaging"}, combos[0])
	assert.Contains(t, combos, Combination{EHR: "athena", DocumentType: "Medications"})
	assert.Contains(t, combos, Combination{EHR: "epic", DocumentType: "Problem List"})

	seen := make(map[Combination]bool)
	for _, c := range combos {
		assert.False(t, seen[c], "duplicate combination %v", c)
		seen[c] = true
	}
}

func TestNewRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name string
		ehrs []EHR
	}{
		{"duplicate ehr", []EHR{{ID: "a"}, {ID: "a"}}},
		{"missing document type", []EHR{{ID: "a", Resources: []Definition{{ID: "x"}}}}},
		{"duplicate resource", []EHR{{ID: "a", Resources: []Definition{{ID: "x", DocumentType: "D"}}}, {ID: "b", Resources: []Definition{{ID: "x", DocumentType: "D"}}}}},
		{"unknown filter", []EHR{{ID: "a", Resources: []Definition{{ID: "x", DocumentType: "D", Filters: Filters{Editable: []Filter{{Type: "bogus"}}}}}}}},
		{"negative offset", []EHR{{ID: "a", Resources: []Definition{{ID: "x", DocumentType: "D", Filters: Filters{Editable: []Filter{{Type: FilterDateRange, Window: Window{YearsBack: -1}}}}}}}}},
		{"default outside options", []EHR{{ID: "a", Resources: []Definition{{ID: "x", DocumentType: "D", Filters: Filters{Advanced: []Filter{{Type: FilterSortingDirection, Value: "up", Options: []string{"asc", "desc"}}}}}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.ehrs)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("ehrs: [\n"))
	assert.Error(t, err)
}
