package docprompts

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/document-prompts", h.ListPrompts)
	api.PUT("/document-prompts/:ehr/:documentType", h.SetPrompt)
	api.DELETE("/document-prompts/:ehr/:documentType", h.DeletePrompt)
}

func keyFromPath(c echo.Context) Key {
	// document types may contain spaces; echo leaves path params escaped
	doc := c.Param("documentType")
	if unescaped, err := url.PathUnescape(doc); err == nil {
		doc = unescaped
	}
	return Key{EHR: c.Param("ehr"), DocumentType: doc}
}

func (h *Handler) ListPrompts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.List())
}

type setPromptRequest struct {
	Prompt string `json:"prompt"`
}

func (h *Handler) SetPrompt(c echo.Context) error {
	var req setPromptRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	key := keyFromPath(c)
	if err := h.store.Set(key, req.Prompt); err != nil {
		if errors.Is(err, ErrInvalidKey) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, Entry{Key: key, Prompt: req.Prompt})
}

func (h *Handler) DeletePrompt(c echo.Context) error {
	h.store.Delete(keyFromPath(c))
	return c.NoContent(http.StatusNoContent)
}
