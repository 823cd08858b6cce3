package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/api/middleware"
	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/pkg/validation"
)

var errNotStubbed = errors.New("not stubbed")

type stubAuthService struct {
	loginFn    func(ctx context.Context, in ports.LoginInput) (domain.Session, error)
	registerFn func(ctx context.Context, in ports.RegisterInput) (string, error)
	logoutFn   func(ctx context.Context)
	session    domain.Session
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (domain.Session, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Logout(ctx context.Context) {
	if s.logoutFn != nil {
		s.logoutFn(ctx)
	}
}

func (s *stubAuthService) Session() domain.Session { return s.session }

type noExpiry struct{}

func (noExpiry) TokenExpiry() (time.Time, bool) { return time.Time{}, false }

type stubCatalog struct {
	coursesFn         func(ctx context.Context, f ports.CatalogFilter) ([]domain.Course, error)
	courseFn          func(ctx context.Context, id string) (*domain.Course, error)
	courseModulesFn   func(ctx context.Context, id string) (*domain.ModuleList, error)
	moduleFn          func(ctx context.Context, id string) (*domain.Module, error)
	courseReviewsFn   func(ctx context.Context, id string) (*domain.ReviewList, error)
	educatorsFn       func(ctx context.Context, search string) ([]domain.Educator, error)
	educatorFn        func(ctx context.Context, id string) (*domain.Educator, error)
	educatorCoursesFn func(ctx context.Context, id string) ([]domain.Course, error)
}

func (s *stubCatalog) Courses(ctx context.Context, f ports.CatalogFilter) ([]domain.Course, error) {
	if s.coursesFn == nil {
		return nil, errNotStubbed
	}
	return s.coursesFn(ctx, f)
}

func (s *stubCatalog) Course(ctx context.Context, id string) (*domain.Course, error) {
	if s.courseFn == nil {
		return nil, errNotStubbed
	}
	return s.courseFn(ctx, id)
}

func (s *stubCatalog) CourseModules(ctx context.Context, id string) (*domain.ModuleList, error) {
	if s.courseModulesFn == nil {
		return nil, errNotStubbed
	}
	return s.courseModulesFn(ctx, id)
}

func (s *stubCatalog) Module(ctx context.Context, id string) (*domain.Module, error) {
	if s.moduleFn == nil {
		return nil, errNotStubbed
	}
	return s.moduleFn(ctx, id)
}

func (s *stubCatalog) CourseReviews(ctx context.Context, id string) (*domain.ReviewList, error) {
	if s.courseReviewsFn == nil {
		return nil, errNotStubbed
	}
	return s.courseReviewsFn(ctx, id)
}

func (s *stubCatalog) Educators(ctx context.Context, search string) ([]domain.Educator, error) {
	if s.educatorsFn == nil {
		return nil, errNotStubbed
	}
	return s.educatorsFn(ctx, search)
}

func (s *stubCatalog) Educator(ctx context.Context, id string) (*domain.Educator, error) {
	if s.educatorFn == nil {
		return nil, errNotStubbed
	}
	return s.educatorFn(ctx, id)
}

func (s *stubCatalog) EducatorCourses(ctx context.Context, id string) ([]domain.Course, error) {
	if s.educatorCoursesFn == nil {
		return nil, errNotStubbed
	}
	return s.educatorCoursesFn(ctx, id)
}

type stubEnrollment struct {
	enrollFn   func(ctx context.Context, id string) error
	unrollFn   func(ctx context.Context, id string) error
	checkoutFn func(ctx context.Context, id string) (*ports.CheckoutResult, error)
	enrolledFn func(ctx context.Context) ([]domain.Course, error)
}

func (s *stubEnrollment) Enroll(ctx context.Context, id string) error { return s.enrollFn(ctx, id) }
func (s *stubEnrollment) Unroll(ctx context.Context, id string) error { return s.unrollFn(ctx, id) }

func (s *stubEnrollment) Checkout(ctx context.Context, id string) (*ports.CheckoutResult, error) {
	return s.checkoutFn(ctx, id)
}

func (s *stubEnrollment) EnrolledCourses(ctx context.Context) ([]domain.Course, error) {
	return s.enrolledFn(ctx)
}

type stubReviews struct {
	postFn func(ctx context.Context, courseID, text string) (*domain.Review, error)
}

func (s *stubReviews) Post(ctx context.Context, courseID, text string) (*domain.Review, error) {
	return s.postFn(ctx, courseID, text)
}

type stubAuthoring struct {
	createCourseFn func(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error)
	createModuleFn func(ctx context.Context, in ports.CreateModuleInput) (*domain.Module, error)
}

func (s *stubAuthoring) CreateCourse(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error) {
	return s.createCourseFn(ctx, in)
}

func (s *stubAuthoring) CreateModule(ctx context.Context, in ports.CreateModuleInput) (*domain.Module, error) {
	return s.createModuleFn(ctx, in)
}

type stubProfile struct {
	profileFn func(ctx context.Context) (*ports.Profile, error)
	updateFn  func(ctx context.Context, in ports.ProfileInput) (*ports.Profile, error)
}

func (s *stubProfile) Profile(ctx context.Context) (*ports.Profile, error) { return s.profileFn(ctx) }

func (s *stubProfile) Update(ctx context.Context, in ports.ProfileInput) (*ports.Profile, error) {
	return s.updateFn(ctx, in)
}

type fixedSession domain.Session

func (s fixedSession) Snapshot() domain.Session { return domain.Session(s) }

// newContext builds an echo context with the validator installed.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validation.Echo{}
	var req = httptest.NewRequest(method, target, nil)
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withSession(c echo.Context, u domain.User) {
	c.Set(middleware.SessionKey, domain.Session{User: &u, Token: "tok"})
}
