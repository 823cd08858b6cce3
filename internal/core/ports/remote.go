package ports

import (
	"context"
	"io"

	"github.com/coursehub/learner/internal/core/domain"
)

// Upload is one file part of a multipart write. Field is the form field name
// the API expects (thumbnail, profile_image, background_image, doc, video).
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Body        io.Reader
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterInput struct {
	FullName string          `json:"fullName" validate:"notblank"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=8"`
	UserType domain.UserType `json:"userType" validate:"required,oneof=student educator admin"`
	Plan     domain.Plan     `json:"plan" validate:"omitempty,oneof=free premium enterprise"`
}

type CreateCourseInput struct {
	Title       string   `validate:"notblank"`
	Description string   `validate:"notblank"`
	Price       string   `validate:"omitempty,numeric"`
	Educator    string   `validate:"required"`
	Languages   []string `validate:"min=1,dive,notblank"`
	Topics      []string `validate:"min=1,dive,notblank"`
	Thumbnail   *Upload  `validate:"required"`
}

// CreateModuleInput describes a new module. With Doc or Video set the module
// is uploaded as multipart and attached to its course afterwards, otherwise
// Resources are sent as JSON.
type CreateModuleInput struct {
	Title       string `validate:"notblank"`
	Description string `validate:"notblank"`
	CourseID    string `validate:"required"`
	Resources   domain.Resources
	Doc         *Upload
	Video       *Upload
}

// HasFiles reports whether the module carries file uploads.
func (in CreateModuleInput) HasFiles() bool {
	return in.Doc != nil || in.Video != nil
}

type ReviewInput struct {
	CourseID   string `json:"courseId" validate:"required"`
	UserID     string `json:"userId" validate:"required"`
	ReviewText string `json:"reviewText" validate:"notblank"`
}

// ProfileInput is the profile form. Educator-only fields are ignored for
// other user types.
type ProfileInput struct {
	FullName string `validate:"notblank"`
	Email    string `validate:"required,email"`
	Password string `validate:"omitempty,min=8"`

	Description    string
	ContactEmail   string `validate:"omitempty,email"`
	Qualifications []string
	SocialLinks    map[string]string
	Specialties    []string

	ProfileImage    *Upload
	BackgroundImage *Upload
}

type AuthAPI interface {
	Login(ctx context.Context, in LoginInput) (*domain.Auth, error)
	// Register returns the server's confirmation message.
	Register(ctx context.Context, in RegisterInput) (string, error)
}

type CourseAPI interface {
	ListCourses(ctx context.Context) ([]domain.Course, error)
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	ListCourseModules(ctx context.Context, courseID string) (*domain.ModuleList, error)
	ListEducatorCourses(ctx context.Context, educatorID string) ([]domain.Course, error)
	CreateCourse(ctx context.Context, in CreateCourseInput) (*domain.Course, error)
	AttachModule(ctx context.Context, courseID, moduleID string) error
}

type ModuleAPI interface {
	GetModule(ctx context.Context, id string) (*domain.Module, error)
	CreateModule(ctx context.Context, in CreateModuleInput) (*domain.Module, error)
}

type ReviewAPI interface {
	ListCourseReviews(ctx context.Context, courseID string) (*domain.ReviewList, error)
	CreateReview(ctx context.Context, in ReviewInput) (*domain.Review, error)
}

type UserAPI interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListEnrolledCourses(ctx context.Context, userID string) ([]domain.Course, error)
	Enroll(ctx context.Context, userID, courseID string) error
	Unroll(ctx context.Context, userID, courseID string) error
	UpdateUser(ctx context.Context, userID string, in ProfileInput) (*domain.User, error)
}

type EducatorAPI interface {
	ListEducators(ctx context.Context) ([]domain.Educator, error)
	GetEducator(ctx context.Context, id string) (*domain.Educator, error)
	GetEducatorByUser(ctx context.Context, userID string) (*domain.Educator, error)
	UpdateEducatorByUser(ctx context.Context, userID string, in ProfileInput) (*domain.Educator, error)
}

type PaymentAPI interface {
	// CreatePaymentIntent returns the client secret for the hosted payment sheet.
	CreatePaymentIntent(ctx context.Context, amountCents int64) (string, error)
}

// RemoteAPI is the full remote e-learning API.
type RemoteAPI interface {
	AuthAPI
	CourseAPI
	ModuleAPI
	ReviewAPI
	UserAPI
	EducatorAPI
	PaymentAPI
}
