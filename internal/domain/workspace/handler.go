package workspace

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/hierarchy"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/matrix"
	"github.com/shilpijc/EHR-pipeline-sub000/internal/domain/summarizer"
	"github.com/shilpijc/EHR-pipeline-sub000/pkg/pagination"
)

type Handler struct {
	workspaces *Registry
}

func NewHandler(workspaces *Registry) *Handler {
	return &Handler{workspaces: workspaces}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/templates", h.ListTemplates)

	g := api.Group("/doctors/:doctor")

	g.GET("/sections", h.ListSections)
	g.POST("/sections", h.AddSection)

	g.GET("/summarizers", h.ListSummarizers)
	g.POST("/summarizers", h.CreateSummarizer)
	g.GET("/summarizers/:id", h.GetSummarizer)
	g.PUT("/summarizers/:id", h.UpdateSummarizer)
	g.DELETE("/summarizers/:id", h.DeleteSummarizer)
	g.GET("/summarizers/:id/placements", h.ListPlacements)

	g.GET("/matrix", h.GetMatrix)
	g.GET("/cells/:section/:template", h.GetCell)
	g.POST("/cells/:section/:template/check", h.CheckAssignment)
	g.POST("/cells/:section/:template/assignments", h.Assign)
	g.PATCH("/cells/:section/:template/assignments/:id", h.UpdateAssignment)
	g.DELETE("/cells/:section/:template/assignments/:id", h.Unassign)
}

func (h *Handler) workspace(c echo.Context) (*Workspace, error) {
	ws, err := h.workspaces.Get(c.Param("doctor"))
	if err != nil {
		return nil, toHTTPError(err)
	}
	return ws, nil
}

func cellFromPath(c echo.Context) (matrix.CellKey, error) {
	key, err := matrix.NewCellKey(c.Param("section"), c.Param("template"))
	if err != nil {
		return matrix.CellKey{}, toHTTPError(err)
	}
	return key, nil
}

type templateView struct {
	ID   hierarchy.Template `json:"id"`
	Name string             `json:"name"`
}

func (h *Handler) ListTemplates(c echo.Context) error {
	tpls := hierarchy.Templates()
	out := make([]templateView, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, templateView{ID: t, Name: t.DisplayName()})
	}
	return c.JSON(http.StatusOK, out)
}

// -- Sections --

func (h *Handler) ListSections(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ws.Sections.Flatten())
}

func (h *Handler) AddSection(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	var req hierarchy.NewSection
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	added, err := ws.Sections.AddSection(req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, added)
}

// -- Summarizers --

func (h *Handler) ListSummarizers(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := ws.Summarizers.List(pg.Limit, pg.Offset)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateSummarizer(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	var sm summarizer.Summarizer
	if err := c.Bind(&sm); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := ws.Summarizers.Create(&sm); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, sm)
}

func (h *Handler) GetSummarizer(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	sm, err := ws.Summarizers.Get(c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, sm)
}

func (h *Handler) UpdateSummarizer(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	var sm summarizer.Summarizer
	if err := c.Bind(&sm); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sm.ID = c.Param("id")
	if err := ws.Summarizers.Update(&sm); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, sm)
}

// DeleteSummarizer removes the summarizer and every assignment that
// references it.
func (h *Handler) DeleteSummarizer(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if !ws.Summarizers.Exists(id) {
		return echo.NewHTTPError(http.StatusNotFound, summarizer.ErrNotFound.Error())
	}
	ws.Matrix.DeleteSummarizerCascade(id)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPlacements(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	placements := ws.Matrix.PlacementsFor(c.Param("id"))
	if placements == nil {
		placements = []matrix.Placement{}
	}
	return c.JSON(http.StatusOK, placements)
}

// -- Matrix --

type matrixResponse struct {
	Sections  []hierarchy.FlatSection `json:"sections"`
	Templates []hierarchy.Template    `json:"templates"`
	Cells     []matrix.Cell           `json:"cells"`
}

func (h *Handler) GetMatrix(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	cells := ws.Matrix.Snapshot()
	if cells == nil {
		cells = []matrix.Cell{}
	}
	return c.JSON(http.StatusOK, matrixResponse{
		Sections:  ws.Sections.Flatten(),
		Templates: hierarchy.Templates(),
		Cells:     cells,
	})
}

func (h *Handler) GetCell(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	key, err := cellFromPath(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, matrix.Cell{Key: key, Records: ws.Matrix.CellContents(key)})
}

type assignRequest struct {
	SummarizerID string `json:"summarizerId"`
	Action       string `json:"action"`
	Instructions string `json:"instructions"`
}

func (h *Handler) CheckAssignment(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	key, err := cellFromPath(c)
	if err != nil {
		return err
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	action, err := matrix.ParseAction(req.Action)
	if err != nil {
		return toHTTPError(err)
	}
	d, err := ws.Matrix.CanAssign(req.SummarizerID, key, action)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Assign(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	key, err := cellFromPath(c)
	if err != nil {
		return err
	}
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	action, err := matrix.ParseAction(req.Action)
	if err != nil {
		return toHTTPError(err)
	}
	rec, err := ws.Matrix.Assign(req.SummarizerID, key, action, req.Instructions)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

type updateAssignmentRequest struct {
	Action       string  `json:"action"`
	Instructions *string `json:"instructions"`
}

func (h *Handler) UpdateAssignment(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	key, err := cellFromPath(c)
	if err != nil {
		return err
	}
	var req updateAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id := c.Param("id")
	var rec matrix.Record
	if req.Action != "" {
		action, err := matrix.ParseAction(req.Action)
		if err != nil {
			return toHTTPError(err)
		}
		if rec, err = ws.Matrix.ChangeAction(key, id, action); err != nil {
			return toHTTPError(err)
		}
	}
	if req.Instructions != nil {
		if rec, err = ws.Matrix.UpdateInstructions(key, id, *req.Instructions); err != nil {
			return toHTTPError(err)
		}
	}
	if rec.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Unassign(c echo.Context) error {
	ws, err := h.workspace(c)
	if err != nil {
		return err
	}
	key, err := cellFromPath(c)
	if err != nil {
		return err
	}
	ws.Matrix.Unassign(key, c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// toHTTPError maps domain errors onto status codes. Rule rejections carry the
// full decision so the caller can name the conflicting section.
func toHTTPError(err error) error {
	var cv *matrix.ConstraintViolation
	switch {
	case errors.As(err, &cv):
		return echo.NewHTTPError(http.StatusConflict, cv.Decision)
	case errors.Is(err, hierarchy.ErrDuplicateSection):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, matrix.ErrUnknownReference),
		errors.Is(err, matrix.ErrRecordNotFound),
		errors.Is(err, summarizer.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, matrix.ErrInvalidCellKey),
		errors.Is(err, matrix.ErrInvalidAction),
		errors.Is(err, ErrInvalidDoctor):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, hierarchy.ErrInvalidInsertionPosition),
		errors.Is(err, hierarchy.ErrInvalidSection),
		errors.Is(err, summarizer.ErrInvalid):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
