package handler

import (
	"time"

	"github.com/coursehub/learner/internal/core/domain"
)

// --- Request types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
	Plan     string `json:"plan,omitempty"`
}

type reviewRequest struct {
	ReviewText string `json:"reviewText"`
}

type createModuleRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CourseID    string           `json:"course"`
	Resources   domain.Resources `json:"resources"`
}

type profileRequest struct {
	FullName       string            `json:"fullName"`
	Email          string            `json:"email"`
	Password       string            `json:"password,omitempty"`
	Description    string            `json:"description,omitempty"`
	ContactEmail   string            `json:"contact_email,omitempty"`
	Qualifications []string          `json:"qualifications,omitempty"`
	SocialLinks    map[string]string `json:"social_links,omitempty"`
	Specialties    []string          `json:"specialties,omitempty"`
}

type invalidateRequest struct {
	Keys []string `json:"keys" validate:"min=1,dive,notblank"`
}

// --- Response types ---

type messageResponse struct {
	Message string `json:"message"`
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *domain.User     `json:"user,omitempty"`
	Educator      *domain.Educator `json:"educator,omitempty"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
}

type courseListResponse struct {
	Total   int             `json:"total"`
	Courses []domain.Course `json:"courses"`
}

type courseDetailResponse struct {
	Course     *domain.Course `json:"course"`
	Enrolled   bool           `json:"enrolled"`
	Wishlisted bool           `json:"wishlisted"`
}

type educatorListResponse struct {
	Total     int               `json:"total"`
	Educators []domain.Educator `json:"educators"`
}

type educatorDetailResponse struct {
	Educator *domain.Educator `json:"educator"`
	Courses  []domain.Course  `json:"courses"`
}

type wishlistResponse struct {
	Total   int             `json:"total"`
	Courses []domain.Course `json:"courses"`
}

type toggleResponse struct {
	CourseID string `json:"courseId"`
	Saved    bool   `json:"saved"`
	Total    int    `json:"total"`
}

type queryEntryResponse struct {
	Key       string     `json:"key"`
	Status    string     `json:"status"`
	Fetching  bool       `json:"fetching"`
	Stale     bool       `json:"stale"`
	Observers int        `json:"observers"`
	Waiters   int        `json:"waiters"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type queryEventResponse struct {
	queryEntryResponse
	Data any `json:"data,omitempty"`
}

type invalidateResponse struct {
	Invalidated int `json:"invalidated"`
}

type wishlistRequest struct {
	CourseID string `json:"courseId" validate:"required"`
}
