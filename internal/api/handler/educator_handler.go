package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
)

type EducatorHandler struct {
	catalog ports.CatalogService
}

func NewEducatorHandler(catalog ports.CatalogService) *EducatorHandler {
	return &EducatorHandler{catalog: catalog}
}

// List handles GET /v1/educators.
//
// @Summary      List or search educators
// @Tags         educators
// @Produce      json
// @Param        q    query     string  false  "Matches name or specialties"
// @Success      200  {object}  educatorListResponse
// @Router       /v1/educators [get]
func (h *EducatorHandler) List(c echo.Context) error {
	educators, err := h.catalog.Educators(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	if educators == nil {
		educators = []domain.Educator{}
	}
	return c.JSON(http.StatusOK, educatorListResponse{Total: len(educators), Educators: educators})
}

// Get handles GET /v1/educators/:id and includes the educator's courses.
//
// @Summary      Educator detail
// @Tags         educators
// @Produce      json
// @Param        id   path      string  true  "Educator id"
// @Success      200  {object}  educatorDetailResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/educators/{id} [get]
func (h *EducatorHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	educator, err := h.catalog.Educator(ctx, id)
	if err != nil {
		return err
	}
	courses, err := h.catalog.EducatorCourses(ctx, id)
	if err != nil {
		return err
	}
	if courses == nil {
		courses = []domain.Course{}
	}
	return c.JSON(http.StatusOK, educatorDetailResponse{Educator: educator, Courses: courses})
}
