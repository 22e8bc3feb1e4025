package workspace

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/hierarchy"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/matrix"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/resource"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/summarizer"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/platform/clock"
)

func newTestServer() (*echo.Echo, *Registry) {
	reg := NewRegistry(
		hierarchy.MustDefault(),
		resource.MustDefault(),
		clock.NewFixed(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)),
		zerolog.Nop(),
	)
	e := echo.New()
	NewHandler(reg).RegisterRoutes(e.Group("/api/v1"))
	return e, reg
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func createSummarizer(t *testing.T, e *echo.Echo, doctor, name string) string {
	t.Helper()
	body := `{"name":"` + name + `","ehr":"ecw","pullFromEHR":true,"selectedResource":"ecw-previous-notes-xml"}`
	rec := do(e, http.MethodPost, "/api/v1/doctors/"+doctor+"/summarizers", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sm summarizer.Summarizer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sm))
	require.NotEmpty(t, sm.ID)
	return sm.ID
}

func TestRegistry_PerDoctorIsolation(t *testing.T) {
	_, reg := newTestServer()

	a, err := reg.Get("dr-a")
	require.NoError(t, err)
	again, err := reg.Get(" dr-a ")
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := reg.Get("dr-b")
	require.NoError(t, err)
	assert.NotSame(t, a.Sections, b.Sections)

	_, err = reg.Get("  ")
	assert.ErrorIs(t, err, ErrInvalidDoctor)
	assert.Equal(t, []string{"dr-a", "dr-b"}, reg.Doctors())
}

func TestHandler_AssignConflict(t *testing.T) {
	e, _ := newTestServer()
	id := createSummarizer(t, e, "dr-a", "summarizer-1")

	rec := do(e, http.MethodPost, "/api/v1/doctors/dr-a/cells/cc/general/assignments",
		`{"summarizerId":"`+id+`","action":"append"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/v1/doctors/dr-a/cells/hpi/general/check",
		`{"summarizerId":"`+id+`","action":"prepend"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var d matrix.Decision
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.False(t, d.Allowed)
	require.NotNil(t, d.Conflict)
	assert.Equal(t, "cc", d.Conflict.Cell.Section)

	rec = do(e, http.MethodPost, "/api/v1/doctors/dr-a/cells/hpi/general/assignments",
		`{"summarizerId":"`+id+`","action":"prepend"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "exclusive-action-taken")

	rec = do(e, http.MethodPost, "/api/v1/doctors/dr-a/cells/hpi/general/assignments",
		`{"summarizerId":"`+id+`","action":"inform"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// another doctor's matrix is unaffected
	other := createSummarizer(t, e, "dr-b", "summarizer-1")
	rec = do(e, http.MethodPost, "/api/v1/doctors/dr-b/cells/hpi/general/assignments",
		`{"summarizerId":"`+other+`","action":"prepend"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandler_AssignErrors(t *testing.T) {
	e, _ := newTestServer()
	id := createSummarizer(t, e, "dr-a", "s")

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown template", "/api/v1/doctors/dr-a/cells/cc/pediatric/assignments", `{"summarizerId":"` + id + `","action":"inform"}`, http.StatusBadRequest},
		{"bad action", "/api/v1/doctors/dr-a/cells/cc/general/assignments", `{"summarizerId":"` + id + `","action":"replace"}`, http.StatusBadRequest},
		{"unknown section", "/api/v1/doctors/dr-a/cells/nope/general/assignments", `{"summarizerId":"` + id + `","action":"inform"}`, http.StatusNotFound},
		{"unknown summarizer", "/api/v1/doctors/dr-a/cells/cc/general/assignments", `{"summarizerId":"ghost","action":"inform"}`, http.StatusNotFound},
		{"malformed body", "/api/v1/doctors/dr-a/cells/cc/general/assignments", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_UpdateAndUnassign(t *testing.T) {
	e, reg := newTestServer()
	id := createSummarizer(t, e, "dr-a", "s")

	rec := do(e, http.MethodPost, "/api/v1/doctors/dr-a/cells/cc-onset/followup/assignments",
		`{"summarizerId":"`+id+`","action":"inform","instructions":"brief"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created matrix.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	path := "/api/v1/doctors/dr-a/cells/cc-onset/followup/assignments/" + created.ID
	rec = do(e, http.MethodPatch, path, `{"action":"append","instructions":"one line"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated matrix.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, matrix.ActionAppend, updated.Action)
	assert.Equal(t, "one line", updated.Instructions)

	rec = do(e, http.MethodPatch, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	ws, _ := reg.Get("dr-a")
	assert.False(t, ws.Matrix.HasCell(matrix.MustCellKey("cc-onset", "followup")))

	rec = do(e, http.MethodPatch, path, `{"instructions":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_DeleteSummarizerCascades(t *testing.T) {
	e, reg := newTestServer()
	id := createSummarizer(t, e, "dr-a", "s")
	keep := createSummarizer(t, e, "dr-a", "keep")

	for _, cell := range []string{"cc/general", "hpi/initial", "ros-neuro/neurology"} {
		rec := do(e, http.MethodPost, "/api/v1/doctors/dr-a/cells/"+cell+"/assignments",
			`{"summarizerId":"`+id+`","action":"inform"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := do(e, http.MethodPost, "/api/v1/doctors/dr-a/cells/cc/general/assignments",
		`{"summarizerId":"`+keep+`","action":"inform"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/doctors/dr-a/summarizers/"+id+"/placements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var placements []matrix.Placement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &placements))
	assert.Len(t, placements, 3)

	rec = do(e, http.MethodDelete, "/api/v1/doctors/dr-a/summarizers/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodDelete, "/api/v1/doctors/dr-a/summarizers/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ws, _ := reg.Get("dr-a")
	assert.Empty(t, ws.Matrix.PlacementsFor(id))
	assert.Len(t, ws.Matrix.CellContents(matrix.MustCellKey("cc", "general")), 1)
	assert.False(t, ws.Matrix.HasCell(matrix.MustCellKey("hpi", "initial")))

	rec = do(e, http.MethodGet, "/api/v1/doctors/dr-a/summarizers/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_SectionsAndGhosts(t *testing.T) {
	e, _ := newTestServer()
	id := createSummarizer(t, e, "dr-a", "s")

	rec := do(e, http.MethodPost, "/api/v1/doctors/dr-a/sections",
		`{"name":"Context","level":"child","position":{"type":"after","sectionKey":"cc-duration"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added hierarchy.FlatSection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.Equal(t, "cc-context", added.Key)
	assert.True(t, added.Ghost)

	rec = do(e, http.MethodPost, "/api/v1/doctors/dr-a/sections",
		`{"name":"Orphan","level":"grandchild","position":{"type":"start"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/doctors/dr-a/cells/cc-context/general/assignments",
		`{"summarizerId":"`+id+`","action":"inform"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/doctors/dr-a/sections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var flat []hierarchy.FlatSection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flat))
	for i, s := range flat {
		if s.Key == "cc-context" {
			assert.False(t, s.Ghost)
			assert.Equal(t, "cc-duration", flat[i-1].Key)
			assert.Equal(t, "cc-severity", flat[i+1].Key)
		}
	}

	// a second doctor never sees the section
	rec = do(e, http.MethodGet, "/api/v1/doctors/dr-b/sections", "")
	assert.NotContains(t, rec.Body.String(), "cc-context")
}

func TestHandler_MatrixAndList(t *testing.T) {
	e, _ := newTestServer()
	id := createSummarizer(t, e, "dr-a", "first")
	createSummarizer(t, e, "dr-a", "second")

	rec := do(e, http.MethodPost, "/api/v1/doctors/dr-a/cells/meds/general/assignments",
		`{"summarizerId":"`+id+`","action":"prepend"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/doctors/dr-a/matrix", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m matrixResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Len(t, m.Templates, 4)
	require.Len(t, m.Cells, 1)
	assert.Equal(t, "meds", m.Cells[0].Key.Section)

	rec = do(e, http.MethodGet, "/api/v1/doctors/dr-a/cells/meds/general", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cell matrix.Cell
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cell))
	require.Len(t, cell.Records, 1)
	assert.Equal(t, "Prepend", cell.Records[0].Display.Label)

	rec = do(e, http.MethodGet, "/api/v1/doctors/dr-a/summarizers?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data    []summarizer.Summarizer `json:"data"`
		Total   int                     `json:"total"`
		HasMore bool                    `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "first", page.Data[0].Name)
}

func TestHandler_SummarizerValidation(t *testing.T) {
	e, _ := newTestServer()
	rec := do(e, http.MethodPost, "/api/v1/doctors/dr-a/summarizers", `{"name":"x","ehr":"cerner","pullFromEHR":true}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	id := createSummarizer(t, e, "dr-a", "s")
	rec = do(e, http.MethodPut, "/api/v1/doctors/dr-a/summarizers/"+id,
		`{"name":"renamed","ehr":"athena","allowText":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"renamed"`)

	rec = do(e, http.MethodPut, "/api/v1/doctors/dr-a/summarizers/missing", `{"name":"x","ehr":"ecw","allowText":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ListTemplates(t *testing.T) {
	e, _ := newTestServer()
	rec := do(e, http.MethodGet, "/api/v1/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out []templateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 4)
	assert.Equal(t, hierarchy.Template("general"), out[0].ID)
	assert.Equal(t, "Follow-up", out[1].Name)
}
