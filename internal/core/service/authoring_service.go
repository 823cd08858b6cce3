package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/core/query"
	"github.com/coursehub/learner/internal/core/session"
	"github.com/coursehub/learner/internal/pkg/validation"
)

// AuthoringService lets educators publish courses and modules.
type AuthoringService struct {
	courses ports.CourseAPI
	modules ports.ModuleAPI
	session *session.Store
	w       writer
}

var _ ports.AuthoringService = (*AuthoringService)(nil)

func NewAuthoringService(courses ports.CourseAPI, modules ports.ModuleAPI, sess *session.Store, cache *query.Cache, notifier ports.Notifier, logger zerolog.Logger) *AuthoringService {
	return &AuthoringService{
		courses: courses,
		modules: modules,
		session: sess,
		w:       writer{cache: cache, notifier: notifier, log: logger},
	}
}

// CreateCourse publishes a course owned by the logged-in educator unless the
// input names another educator.
func (s *AuthoringService) CreateCourse(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error) {
	sess := s.session.Snapshot()
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Price = strings.TrimSpace(in.Price)
	if in.Educator == "" {
		in.Educator = sess.UserID()
	}
	in.Languages = trimAll(in.Languages)
	in.Topics = trimAll(in.Topics)

	var course *domain.Course
	err := s.w.run(ctx, mutation{
		action: "create_course",
		validate: func() error {
			if err := requireEducator(sess); err != nil {
				return err
			}
			return validation.Struct(in)
		},
		call: func(ctx context.Context) (err error) {
			course, err = s.courses.CreateCourse(ctx, in)
			return err
		},
		invalidate:    []query.Key{key(resCourses), key(resEducatorCourses)},
		success:       "Course created successfully!",
		successDetail: "Now add modules to your course.",
		failure:       "Failed to create course!",
	})
	return course, err
}

// CreateModule creates a module. Modules with files are uploaded first and
// then attached to their course.
func (s *AuthoringService) CreateModule(ctx context.Context, in ports.CreateModuleInput) (*domain.Module, error) {
	sess := s.session.Snapshot()
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.CourseID = strings.TrimSpace(in.CourseID)
	in.Resources.Doc = strings.TrimSpace(in.Resources.Doc)
	in.Resources.Video = strings.TrimSpace(in.Resources.Video)

	var module *domain.Module
	err := s.w.run(ctx, mutation{
		action: "create_module",
		validate: func() error {
			if err := requireEducator(sess); err != nil {
				return err
			}
			return validation.Struct(in)
		},
		call: func(ctx context.Context) (err error) {
			module, err = s.modules.CreateModule(ctx, in)
			if err != nil || !in.HasFiles() {
				return err
			}
			if err := s.courses.AttachModule(ctx, in.CourseID, module.ID); err != nil {
				s.w.log.Error().Err(err).
					Str("module_id", module.ID).
					Str("course_id", in.CourseID).
					Msg("module created but not attached to its course")
				return fmt.Errorf("attach module %s to course %s: %w", module.ID, in.CourseID, err)
			}
			return nil
		},
		invalidate:    []query.Key{key(resCourseModules, in.CourseID), key(resCourseDetails, in.CourseID)},
		success:       "Module created successfully!",
		successDetail: "Now add resources if required.",
		failure:       "Failed to create module!",
	})
	return module, err
}

func requireEducator(sess domain.Session) error {
	if sess.User == nil {
		return domain.ErrNotAuthenticated
	}
	if sess.User.UserType != domain.UserTypeEducator && sess.User.UserType != domain.UserTypeAdmin {
		return domain.ErrForbidden
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
