package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// UserType is the role a user registered with.
type UserType string

const (
	UserTypeStudent  UserType = "student"
	UserTypeEducator UserType = "educator"
	UserTypeAdmin    UserType = "admin"
)

// Plan is the subscription tier of a user.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
)

// User is the authenticated identity returned by the API.
type User struct {
	ID         string     `json:"id"`
	ProfilePic string     `json:"profilePic,omitempty"`
	FullName   string     `json:"fullName"`
	Email      string     `json:"email"`
	Plan       Plan       `json:"plan"`
	UserType   UserType   `json:"userType"`
	Enrolls    []string   `json:"enrolls"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON accepts both "id" and the raw document "_id".
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// IsEnrolled reports whether courseID is in the user's enrollment list.
// A nil user is enrolled in nothing.
func (u *User) IsEnrolled(courseID string) bool {
	return u != nil && slices.Contains(u.Enrolls, courseID)
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Enrolls = slices.Clone(u.Enrolls)
	return &c
}

// UserPatch carries the fields to merge into the current user. Nil fields are
// left untouched.
type UserPatch struct {
	FullName   *string
	Email      *string
	ProfilePic *string
	Plan       *Plan
	UserType   *UserType
	Enrolls    []string
}

// Apply merges p into u.
func (p UserPatch) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.ProfilePic != nil {
		u.ProfilePic = *p.ProfilePic
	}
	if p.Plan != nil {
		u.Plan = *p.Plan
	}
	if p.UserType != nil {
		u.UserType = *p.UserType
	}
	if p.Enrolls != nil {
		u.Enrolls = slices.Clone(p.Enrolls)
	}
}

// Auth is the login response envelope.
type Auth struct {
	Token    string    `json:"token"`
	User     User      `json:"user"`
	Educator *Educator `json:"educator,omitempty"`
	Message  string    `json:"message,omitempty"`
}
