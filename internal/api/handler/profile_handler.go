package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
)

type ProfileHandler struct {
	profile    ports.ProfileService
	enrollment ports.EnrollmentService
}

func NewProfileHandler(profile ports.ProfileService, enrollment ports.EnrollmentService) *ProfileHandler {
	return &ProfileHandler{profile: profile, enrollment: enrollment}
}

// Get handles GET /v1/profile.
//
// @Summary      Current user's profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  ports.Profile
// @Failure      401  {object}  errorResponse
// @Router       /v1/profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	if _, err := ctxSession(c); err != nil {
		return err
	}
	p, err := h.profile.Profile(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Update handles PUT /v1/profile.
//
// @Summary      Update the profile
// @Tags         profile
// @Accept       json
// @Accept       multipart/form-data
// @Produce      json
// @Param        body  body      profileRequest  false  "Profile (JSON variant)"
// @Success      200   {object}  ports.Profile
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/profile [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	if _, err := ctxSession(c); err != nil {
		return err
	}
	var files uploads
	defer files.Close()

	in, err := toProfileInput(c, &files)
	if err != nil {
		return err
	}
	p, err := h.profile.Update(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Enrolled handles GET /v1/profile/enrolled.
//
// @Summary      Enrolled courses
// @Tags         profile
// @Produce      json
// @Success      200  {object}  courseListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/profile/enrolled [get]
func (h *ProfileHandler) Enrolled(c echo.Context) error {
	if _, err := ctxSession(c); err != nil {
		return err
	}
	courses, err := h.enrollment.EnrolledCourses(c.Request().Context())
	if err != nil {
		return err
	}
	if courses == nil {
		courses = []domain.Course{}
	}
	return c.JSON(http.StatusOK, courseListResponse{Total: len(courses), Courses: courses})
}
