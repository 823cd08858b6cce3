package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
)

// SessionReader returns the current session.
type SessionReader interface {
	Snapshot() domain.Session
}

// WishlistReader reports saved courses.
type WishlistReader interface {
	Contains(id string) bool
}

// CourseHandler serves the catalog, course detail, reviews, enrollment and
// course creation screens.
type CourseHandler struct {
	catalog    ports.CatalogService
	enrollment ports.EnrollmentService
	reviews    ports.ReviewService
	authoring  ports.AuthoringService
	session    SessionReader
	wishlist   WishlistReader
}

func NewCourseHandler(
	catalog ports.CatalogService,
	enrollment ports.EnrollmentService,
	reviews ports.ReviewService,
	authoring ports.AuthoringService,
	session SessionReader,
	wishlist WishlistReader,
) *CourseHandler {
	return &CourseHandler{
		catalog:    catalog,
		enrollment: enrollment,
		reviews:    reviews,
		authoring:  authoring,
		session:    session,
		wishlist:   wishlist,
	}
}

// List handles GET /v1/courses.
//
// @Summary      List or search courses
// @Tags         courses
// @Produce      json
// @Param        topic  query     string  false  "Topic filter"
// @Param        q      query     string  false  "Free text search on the title"
// @Success      200    {object}  courseListResponse
// @Failure      502    {object}  errorResponse
// @Router       /v1/courses [get]
func (h *CourseHandler) List(c echo.Context) error {
	courses, err := h.catalog.Courses(c.Request().Context(), ports.CatalogFilter{
		Topic:  c.QueryParam("topic"),
		Search: c.QueryParam("q"),
	})
	if err != nil {
		return err
	}
	if courses == nil {
		courses = []domain.Course{}
	}
	return c.JSON(http.StatusOK, courseListResponse{Total: len(courses), Courses: courses})
}

// Get handles GET /v1/courses/:id.
//
// @Summary      Course detail
// @Tags         courses
// @Produce      json
// @Param        id   path      string  true  "Course id"
// @Success      200  {object}  courseDetailResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/courses/{id} [get]
func (h *CourseHandler) Get(c echo.Context) error {
	id := c.Param("id")
	course, err := h.catalog.Course(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courseDetailResponse{
		Course:     course,
		Enrolled:   h.session.Snapshot().User.IsEnrolled(id),
		Wishlisted: h.wishlist.Contains(id),
	})
}

// Modules handles GET /v1/courses/:id/modules.
//
// @Summary      Course modules
// @Tags         courses
// @Produce      json
// @Param        id   path      string  true  "Course id"
// @Success      200  {object}  domain.ModuleList
// @Router       /v1/courses/{id}/modules [get]
func (h *CourseHandler) Modules(c echo.Context) error {
	list, err := h.catalog.CourseModules(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Reviews handles GET /v1/courses/:id/reviews.
//
// @Summary      Course reviews
// @Tags         reviews
// @Produce      json
// @Param        id   path      string  true  "Course id"
// @Success      200  {object}  domain.ReviewList
// @Router       /v1/courses/{id}/reviews [get]
func (h *CourseHandler) Reviews(c echo.Context) error {
	list, err := h.catalog.CourseReviews(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// PostReview handles POST /v1/courses/:id/reviews.
//
// @Summary      Post a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Course id"
// @Param        body  body      reviewRequest  true  "Review"
// @Success      201   {object}  domain.Review
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/courses/{id}/reviews [post]
func (h *CourseHandler) PostReview(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	review, err := h.reviews.Post(c.Request().Context(), c.Param("id"), req.ReviewText)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, review)
}

// Enroll handles POST /v1/courses/:id/enroll.
//
// @Summary      Enroll in a course
// @Tags         enrollment
// @Produce      json
// @Param        id   path      string  true  "Course id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(c echo.Context) error {
	if err := h.enrollment.Enroll(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Course enrolled successfully"})
}

// Unroll handles POST /v1/courses/:id/unroll.
//
// @Summary      Leave a course
// @Tags         enrollment
// @Produce      json
// @Param        id   path      string  true  "Course id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/courses/{id}/unroll [post]
func (h *CourseHandler) Unroll(c echo.Context) error {
	if err := h.enrollment.Unroll(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Course unrolled successfully!"})
}

// Checkout handles POST /v1/courses/:id/checkout.
//
// @Summary      Start checkout
// @Description  Enrolls directly in free courses, otherwise returns the payment intent client secret.
// @Tags         enrollment
// @Produce      json
// @Param        id   path      string  true  "Course id"
// @Success      200  {object}  ports.CheckoutResult
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/courses/{id}/checkout [post]
func (h *CourseHandler) Checkout(c echo.Context) error {
	res, err := h.enrollment.Checkout(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Create handles POST /v1/courses.
//
// @Summary      Create a course
// @Tags         authoring
// @Accept       multipart/form-data
// @Produce      json
// @Param        title        formData  string  true   "Title"
// @Param        description  formData  string  true   "Description"
// @Param        price        formData  string  false  "Price"
// @Param        languages    formData  string  true   "Comma separated languages"
// @Param        topics       formData  string  true   "Comma separated topics"
// @Param        thumbnail    formData  file    true   "Thumbnail image"
// @Success      201  {object}  domain.Course
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/courses [post]
func (h *CourseHandler) Create(c echo.Context) error {
	var files uploads
	defer files.Close()

	in, err := toCreateCourseInput(c, &files)
	if err != nil {
		return err
	}
	course, err := h.authoring.CreateCourse(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, course)
}
