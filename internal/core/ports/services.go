package ports

import (
	"context"

	"github.com/coursehub/learner/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, in LoginInput) (domain.Session, error)
	Register(ctx context.Context, in RegisterInput) (string, error)
	Logout(ctx context.Context)
	Session() domain.Session
}

// CatalogFilter narrows the course list on the client side.
type CatalogFilter struct {
	Topic  string
	Search string
}

type CatalogService interface {
	Courses(ctx context.Context, f CatalogFilter) ([]domain.Course, error)
	Course(ctx context.Context, id string) (*domain.Course, error)
	CourseModules(ctx context.Context, courseID string) (*domain.ModuleList, error)
	Module(ctx context.Context, id string) (*domain.Module, error)
	CourseReviews(ctx context.Context, courseID string) (*domain.ReviewList, error)
	Educators(ctx context.Context, search string) ([]domain.Educator, error)
	Educator(ctx context.Context, id string) (*domain.Educator, error)
	EducatorCourses(ctx context.Context, educatorID string) ([]domain.Course, error)
}

// CheckoutResult tells the UI shell what to do next: nothing when the course
// is free or already owned, present the hosted payment sheet otherwise.
type CheckoutResult struct {
	CourseID     string `json:"courseId"`
	Free         bool   `json:"free"`
	Enrolled     bool   `json:"enrolled"`
	AmountCents  int64  `json:"amountCents,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

type EnrollmentService interface {
	Enroll(ctx context.Context, courseID string) error
	Unroll(ctx context.Context, courseID string) error
	Checkout(ctx context.Context, courseID string) (*CheckoutResult, error)
	EnrolledCourses(ctx context.Context) ([]domain.Course, error)
}

type ReviewService interface {
	Post(ctx context.Context, courseID, text string) (*domain.Review, error)
}

type AuthoringService interface {
	CreateCourse(ctx context.Context, in CreateCourseInput) (*domain.Course, error)
	CreateModule(ctx context.Context, in CreateModuleInput) (*domain.Module, error)
}

// Profile is the profile screen: the user record, or the educator document
// for educators.
type Profile struct {
	User     *domain.User     `json:"user,omitempty"`
	Educator *domain.Educator `json:"educator,omitempty"`
}

type ProfileService interface {
	Profile(ctx context.Context) (*Profile, error)
	Update(ctx context.Context, in ProfileInput) (*Profile, error)
}
