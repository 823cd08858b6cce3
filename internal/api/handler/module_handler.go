package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/ports"
)

type ModuleHandler struct {
	catalog   ports.CatalogService
	authoring ports.AuthoringService
}

func NewModuleHandler(catalog ports.CatalogService, authoring ports.AuthoringService) *ModuleHandler {
	return &ModuleHandler{catalog: catalog, authoring: authoring}
}

// Get handles GET /v1/modules/:id.
//
// @Summary      Module detail
// @Tags         modules
// @Produce      json
// @Param        id   path      string  true  "Module id"
// @Success      200  {object}  domain.Module
// @Failure      404  {object}  errorResponse
// @Router       /v1/modules/{id} [get]
func (h *ModuleHandler) Get(c echo.Context) error {
	module, err := h.catalog.Module(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, module)
}

// Create handles POST /v1/modules. JSON bodies carry resource names, multipart
// bodies carry doc and video files.
//
// @Summary      Create a module
// @Tags         authoring
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        body  body      createModuleRequest  false  "Module (JSON variant)"
// @Success      201   {object}  domain.Module
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/modules [post]
func (h *ModuleHandler) Create(c echo.Context) error {
	var files uploads
	defer files.Close()

	in, err := toCreateModuleInput(c, &files)
	if err != nil {
		return err
	}
	module, err := h.authoring.CreateModule(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, module)
}
