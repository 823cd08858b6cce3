package service

import "github.com/coursehub/learner/internal/core/query"

// Query resources. Every parameter that changes a result is part of its key.
const (
	resCourses         = "courses"
	resCourseDetails   = "course-details"
	resCourseModules   = "course-modules"
	resModuleDetails   = "module-details"
	resCourseReviews   = "course-reviews"
	resEducators       = "educators"
	resEducatorDetails = "educator-details"
	resEducatorCourses = "educator-courses"
	resUser            = "user"
	resEducatorProfile = "educator-profile"
	resUserEnrolls     = "user-enrolls"
)

func key(resource string, params ...string) query.Key {
	return query.NewKey(resource, params...)
}
