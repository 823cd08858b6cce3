package domain

// ReviewAuthor is the populated author of a review.
type ReviewAuthor struct {
	ID         string `json:"_id"`
	ProfilePic string `json:"profilePic,omitempty"`
	FullName   string `json:"fullName"`
}

// Review is a student's text review of a course.
type Review struct {
	ID         string       `json:"_id"`
	CourseID   string       `json:"courseId"`
	Author     ReviewAuthor `json:"userId"`
	ReviewText string       `json:"reviewText"`
	CreatedAt  string       `json:"createdAt"`
	UpdatedAt  string       `json:"updatedAt"`
}

// ReviewList is the review listing of a course.
type ReviewList struct {
	Data  []Review `json:"data"`
	Total int      `json:"total"`
}
