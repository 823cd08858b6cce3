package service

import (
	"context"
	"strings"

	"golang.org/x/text/cases"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/core/query"
)

// CatalogAPI is the read side of the remote API used by the catalog screens.
type CatalogAPI interface {
	ports.CourseAPI
	ports.ModuleAPI
	ports.ReviewAPI
	ports.EducatorAPI
}

// CatalogService serves every list and detail screen through the query cache.
type CatalogService struct {
	api   CatalogAPI
	cache *query.Cache
}

var _ ports.CatalogService = (*CatalogService)(nil)

func NewCatalogService(api CatalogAPI, cache *query.Cache) *CatalogService {
	return &CatalogService{api: api, cache: cache}
}

// Courses returns the catalog narrowed by topic and free text. The list is
// fetched once under one key and filtered locally.
func (s *CatalogService) Courses(ctx context.Context, f ports.CatalogFilter) ([]domain.Course, error) {
	all, err := query.Get(ctx, s.cache, key(resCourses), s.api.ListCourses)
	if err != nil {
		return nil, err
	}
	return filterCourses(all, f), nil
}

func (s *CatalogService) Course(ctx context.Context, id string) (*domain.Course, error) {
	return query.Get(ctx, s.cache, key(resCourseDetails, id), func(ctx context.Context) (*domain.Course, error) {
		return s.api.GetCourse(ctx, id)
	})
}

func (s *CatalogService) CourseModules(ctx context.Context, courseID string) (*domain.ModuleList, error) {
	return query.Get(ctx, s.cache, key(resCourseModules, courseID), func(ctx context.Context) (*domain.ModuleList, error) {
		return s.api.ListCourseModules(ctx, courseID)
	})
}

// Module returns one module. The query stays disabled until an id is known.
func (s *CatalogService) Module(ctx context.Context, id string) (*domain.Module, error) {
	return query.Get(ctx, s.cache, key(resModuleDetails, id), func(ctx context.Context) (*domain.Module, error) {
		return s.api.GetModule(ctx, id)
	}, query.Enabled(id != ""))
}

func (s *CatalogService) CourseReviews(ctx context.Context, courseID string) (*domain.ReviewList, error) {
	return query.Get(ctx, s.cache, key(resCourseReviews, courseID), func(ctx context.Context) (*domain.ReviewList, error) {
		return s.api.ListCourseReviews(ctx, courseID)
	})
}

// Educators lists educators whose name or a specialty contains search.
func (s *CatalogService) Educators(ctx context.Context, search string) ([]domain.Educator, error) {
	all, err := query.Get(ctx, s.cache, key(resEducators), s.api.ListEducators)
	if err != nil {
		return nil, err
	}
	return filterEducators(all, search), nil
}

func (s *CatalogService) Educator(ctx context.Context, id string) (*domain.Educator, error) {
	return query.Get(ctx, s.cache, key(resEducatorDetails, id), func(ctx context.Context) (*domain.Educator, error) {
		return s.api.GetEducator(ctx, id)
	})
}

// EducatorCourses depends on the educator detail: the courses query is only
// enabled once the educator resolved, and is keyed by the resolved id.
func (s *CatalogService) EducatorCourses(ctx context.Context, educatorID string) ([]domain.Course, error) {
	edu, err := s.Educator(ctx, educatorID)
	if err != nil {
		return nil, err
	}
	resolved := ""
	if edu != nil {
		resolved = edu.ID
	}
	return query.Get(ctx, s.cache, key(resEducatorCourses, resolved), func(ctx context.Context) ([]domain.Course, error) {
		return s.api.ListEducatorCourses(ctx, resolved)
	}, query.Enabled(resolved != ""))
}

func filterCourses(all []domain.Course, f ports.CatalogFilter) []domain.Course {
	fold := cases.Fold()
	topic := fold.String(strings.TrimSpace(f.Topic))
	search := fold.String(strings.TrimSpace(f.Search))
	if topic == "" && search == "" {
		return all
	}

	out := make([]domain.Course, 0, len(all))
	for _, c := range all {
		if topic != "" && !anyEqual(fold, c.Topics, topic) {
			continue
		}
		if search != "" && !strings.Contains(fold.String(c.Title), search) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func filterEducators(all []domain.Educator, search string) []domain.Educator {
	fold := cases.Fold()
	search = fold.String(strings.TrimSpace(search))
	if search == "" {
		return all
	}
	out := make([]domain.Educator, 0, len(all))
	for _, e := range all {
		if strings.Contains(fold.String(e.FullName), search) || anyContains(fold, e.Specialties, search) {
			out = append(out, e)
		}
	}
	return out
}

func anyEqual(fold cases.Caser, values []string, want string) bool {
	for _, v := range values {
		if fold.String(strings.TrimSpace(v)) == want {
			return true
		}
	}
	return false
}

func anyContains(fold cases.Caser, values []string, sub string) bool {
	for _, v := range values {
		if strings.Contains(fold.String(v), sub) {
			return true
		}
	}
	return false
}
