package domain

import "time"

// Resources holds the stored file names of a module's attachments.
type Resources struct {
	Doc   string `json:"doc,omitempty"`
	Video string `json:"video,omitempty"`
}

// Module is one unit of a course.
type Module struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Resources   *Resources `json:"resources,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ModuleList is the paged module listing of a course.
type ModuleList struct {
	Total   int      `json:"total"`
	Modules []Module `json:"modules"`
}
