package domain

import (
	"maps"
	"slices"
)

// Educator is the extended profile attached to a user of type educator.
type Educator struct {
	ID              string            `json:"_id,omitempty"`
	User            *User             `json:"user_id,omitempty"`
	Courses         []string          `json:"courses"`
	Description     string            `json:"description,omitempty"`
	FullName        string            `json:"fullName"`
	ProfileImage    string            `json:"profile_image,omitempty"`
	BackgroundImage string            `json:"background_image,omitempty"`
	Specialties     []string          `json:"specialties"`
	Qualifications  []string          `json:"qualifications,omitempty"`
	ContactEmail    string            `json:"contact_email,omitempty"`
	SocialLinks     map[string]string `json:"social_links,omitempty"`
	CreatedAt       string            `json:"createdAt,omitempty"`
	UpdatedAt       string            `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy.
func (e *Educator) Clone() *Educator {
	if e == nil {
		return nil
	}
	c := *e
	c.User = e.User.Clone()
	c.Courses = slices.Clone(e.Courses)
	c.Specialties = slices.Clone(e.Specialties)
	c.Qualifications = slices.Clone(e.Qualifications)
	c.SocialLinks = maps.Clone(e.SocialLinks)
	return &c
}
