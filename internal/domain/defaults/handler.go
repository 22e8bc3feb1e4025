package defaults

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/form/resource-selected", h.ResourceSelected)
	api.POST("/form/input-toggle", h.InputToggle)
}

type resourceSelectedRequest struct {
	ResourceID string    `json:"resourceId"`
	State      FormState `json:"state"`
}

// ResourceSelected returns the form state after the operator picks a
// resource. Unknown resources are not an error; the filter fields come back
// empty.
func (h *Handler) ResourceSelected(c echo.Context) error {
	var req resourceSelectedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.resolver.OnResourceSelected(req.ResourceID, req.State))
}

type inputToggleRequest struct {
	Field InputField `json:"field"`
	Value bool       `json:"value"`
	State FormState  `json:"state"`
}

func (h *Handler) InputToggle(c echo.Context) error {
	var req inputToggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	state, err := h.resolver.OnInputTypeToggle(req.Field, req.Value, req.State)
	if err != nil {
		if errors.Is(err, ErrUnknownField) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, state)
}
