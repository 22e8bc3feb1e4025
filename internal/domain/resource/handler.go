package resource

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/ehrs", h.ListEHRs)
	api.GET("/ehrs/:ehr/resources", h.ListResources)
	api.GET("/ehrs/:ehr/document-types", h.ListDocumentTypes)
	api.GET("/document-types", h.ListCombinations)
}

type ehrSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Resources int    `json:"resources"`
}

func (h *Handler) ListEHRs(c echo.Context) error {
	ehrs := h.registry.EHRs()
	out := make([]ehrSummary, 0, len(ehrs))
	for _, e := range ehrs {
		out = append(out, ehrSummary{ID: e.ID, Name: e.Name, Resources: len(e.Resources)})
	}
	return c.JSON(http.StatusOK, out)
}

// resourceView adds the display label to a definition.
type resourceView struct {
	Definition
	Label string `json:"label"`
}

func (h *Handler) ListResources(c echo.Context) error {
	ehr := c.Param("ehr")
	if !h.registry.HasEHR(ehr) {
		return echo.NewHTTPError(http.StatusNotFound, ErrUnknownEHR.Error())
	}
	defs := h.registry.ResourcesFor(ehr)
	out := make([]resourceView, 0, len(defs))
	for _, d := range defs {
		out = append(out, resourceView{Definition: d, Label: FormatLabel(d)})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListDocumentTypes(c echo.Context) error {
	ehr := c.Param("ehr")
	if !h.registry.HasEHR(ehr) {
		return echo.NewHTTPError(http.StatusNotFound, ErrUnknownEHR.Error())
	}
	return c.JSON(http.StatusOK, h.registry.DocumentTypesFor(ehr))
}

func (h *Handler) ListCombinations(c echo.Context) error {
	return c.JSON(http.StatusOK, h.registry.AllEHRDocumentTypeCombinations())
}
