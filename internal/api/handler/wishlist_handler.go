package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
)

// WishlistStore is the Wishlist Store as seen by the handler.
type WishlistStore interface {
	List() []domain.Course
	Len() int
	Add(course domain.Course)
	Remove(id string) bool
	Toggle(course domain.Course) bool
}

// WishlistHandler serves the saved-courses screen. Courses are resolved
// through the catalog so the stored entry matches the detail screen.
type WishlistHandler struct {
	store   WishlistStore
	catalog ports.CatalogService
}

func NewWishlistHandler(store WishlistStore, catalog ports.CatalogService) *WishlistHandler {
	return &WishlistHandler{store: store, catalog: catalog}
}

// List handles GET /v1/wishlist.
//
// @Summary      Saved courses
// @Tags         wishlist
// @Produce      json
// @Success      200  {object}  wishlistResponse
// @Router       /v1/wishlist [get]
func (h *WishlistHandler) List(c echo.Context) error {
	courses := h.store.List()
	if courses == nil {
		courses = []domain.Course{}
	}
	return c.JSON(http.StatusOK, wishlistResponse{Total: len(courses), Courses: courses})
}

// Toggle handles POST /v1/wishlist/toggle.
//
// @Summary      Save or unsave a course
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Param        body  body      wishlistRequest  true  "Course"
// @Success      200   {object}  toggleResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/wishlist/toggle [post]
func (h *WishlistHandler) Toggle(c echo.Context) error {
	course, err := h.resolve(c)
	if err != nil {
		return err
	}
	saved := h.store.Toggle(*course)
	return c.JSON(http.StatusOK, toggleResponse{CourseID: course.ID, Saved: saved, Total: h.store.Len()})
}

// Add handles POST /v1/wishlist. Adding is unconditional.
//
// @Summary      Save a course
// @Tags         wishlist
// @Accept       json
// @Produce      json
// @Param        body  body      wishlistRequest  true  "Course"
// @Success      201   {object}  toggleResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/wishlist [post]
func (h *WishlistHandler) Add(c echo.Context) error {
	course, err := h.resolve(c)
	if err != nil {
		return err
	}
	h.store.Add(*course)
	return c.JSON(http.StatusCreated, toggleResponse{CourseID: course.ID, Saved: true, Total: h.store.Len()})
}

// Remove handles DELETE /v1/wishlist/:id.
//
// @Summary      Unsave a course
// @Tags         wishlist
// @Produce      json
// @Param        id   path      string  true  "Course id"
// @Success      200  {object}  toggleResponse
// @Router       /v1/wishlist/{id} [delete]
func (h *WishlistHandler) Remove(c echo.Context) error {
	id := c.Param("id")
	h.store.Remove(id)
	return c.JSON(http.StatusOK, toggleResponse{CourseID: id, Saved: false, Total: h.store.Len()})
}

func (h *WishlistHandler) resolve(c echo.Context) (*domain.Course, error) {
	var req wishlistRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return h.catalog.Course(c.Request().Context(), req.CourseID)
}
