package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/core/query"
	"github.com/coursehub/learner/internal/core/session"
)

var errUnexpectedCall = errors.New("unexpected call")

// stubAPI implements ports.RemoteAPI. Nil funcs fail with errUnexpectedCall.
// calls counts every invocation by method name.
type stubAPI struct {
	mu    sync.Mutex
	calls map[string]int

	loginFn                func(ctx context.Context, in ports.LoginInput) (*domain.Auth, error)
	registerFn             func(ctx context.Context, in ports.RegisterInput) (string, error)
	listCoursesFn          func(ctx context.Context) ([]domain.Course, error)
	getCourseFn            func(ctx context.Context, id string) (*domain.Course, error)
	listCourseModulesFn    func(ctx context.Context, id string) (*domain.ModuleList, error)
	listEducatorCoursesFn  func(ctx context.Context, id string) ([]domain.Course, error)
	createCourseFn         func(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error)
	attachModuleFn         func(ctx context.Context, courseID, moduleID string) error
	getModuleFn            func(ctx context.Context, id string) (*domain.Module, error)
	createModuleFn         func(ctx context.Context, in ports.CreateModuleInput) (*domain.Module, error)
	listCourseReviewsFn    func(ctx context.Context, id string) (*domain.ReviewList, error)
	createReviewFn         func(ctx context.Context, in ports.ReviewInput) (*domain.Review, error)
	getUserFn              func(ctx context.Context, id string) (*domain.User, error)
	listEnrolledCoursesFn  func(ctx context.Context, id string) ([]domain.Course, error)
	enrollFn               func(ctx context.Context, userID, courseID string) error
	unrollFn               func(ctx context.Context, userID, courseID string) error
	updateUserFn           func(ctx context.Context, id string, in ports.ProfileInput) (*domain.User, error)
	listEducatorsFn        func(ctx context.Context) ([]domain.Educator, error)
	getEducatorFn          func(ctx context.Context, id string) (*domain.Educator, error)
	getEducatorByUserFn    func(ctx context.Context, id string) (*domain.Educator, error)
	updateEducatorByUserFn func(ctx context.Context, id string, in ports.ProfileInput) (*domain.Educator, error)
	createPaymentIntentFn  func(ctx context.Context, amount int64) (string, error)
}

var _ ports.RemoteAPI = (*stubAPI)(nil)

func (s *stubAPI) hit(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[name]++
}

func (s *stubAPI) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubAPI) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *stubAPI) Login(ctx context.Context, in ports.LoginInput) (*domain.Auth, error) {
	s.hit("Login")
	if s.loginFn == nil {
		return nil, errUnexpectedCall
	}
	return s.loginFn(ctx, in)
}

func (s *stubAPI) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	s.hit("Register")
	if s.registerFn == nil {
		return "", errUnexpectedCall
	}
	return s.registerFn(ctx, in)
}

func (s *stubAPI) ListCourses(ctx context.Context) ([]domain.Course, error) {
	s.hit("ListCourses")
	if s.listCoursesFn == nil {
		return nil, errUnexpectedCall
	}
	return s.listCoursesFn(ctx)
}

func (s *stubAPI) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	s.hit("GetCourse")
	if s.getCourseFn == nil {
		return nil, errUnexpectedCall
	}
	return s.getCourseFn(ctx, id)
}

func (s *stubAPI) ListCourseModules(ctx context.Context, id string) (*domain.ModuleList, error) {
	s.hit("ListCourseModules")
	if s.listCourseModulesFn == nil {
		return nil, errUnexpectedCall
	}
	return s.listCourseModulesFn(ctx, id)
}

func (s *stubAPI) ListEducatorCourses(ctx context.Context, id string) ([]domain.Course, error) {
	s.hit("ListEducatorCourses")
	if s.listEducatorCoursesFn == nil {
		return nil, errUnexpectedCall
	}
	return s.listEducatorCoursesFn(ctx, id)
}

func (s *stubAPI) CreateCourse(ctx context.Context, in ports.CreateCourseInput) (*domain.Course, error) {
	s.hit("CreateCourse")
	if s.createCourseFn == nil {
		return nil, errUnexpectedCall
	}
	return s.createCourseFn(ctx, in)
}

func (s *stubAPI) AttachModule(ctx context.Context, courseID, moduleID string) error {
	s.hit("AttachModule")
	if s.attachModuleFn == nil {
		return errUnexpectedCall
	}
	return s.attachModuleFn(ctx, courseID, moduleID)
}

func (s *stubAPI) GetModule(ctx context.Context, id string) (*domain.Module, error) {
	s.hit("GetModule")
	if s.getModuleFn == nil {
		return nil, errUnexpectedCall
	}
	return s.getModuleFn(ctx, id)
}

func (s *stubAPI) CreateModule(ctx context.Context, in ports.CreateModuleInput) (*domain.Module, error) {
	s.hit("CreateModule")
	if s.createModuleFn == nil {
		return nil, errUnexpectedCall
	}
	return s.createModuleFn(ctx, in)
}

func (s *stubAPI) ListCourseReviews(ctx context.Context, id string) (*domain.ReviewList, error) {
	s.hit("ListCourseReviews")
	if s.listCourseReviewsFn == nil {
		return nil, errUnexpectedCall
	}
	return s.listCourseReviewsFn(ctx, id)
}

func (s *stubAPI) CreateReview(ctx context.Context, in ports.ReviewInput) (*domain.Review, error) {
	s.hit("CreateReview")
	if s.createReviewFn == nil {
		return nil, errUnexpectedCall
	}
	return s.createReviewFn(ctx, in)
}

func (s *stubAPI) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.hit("GetUser")
	if s.getUserFn == nil {
		return nil, errUnexpectedCall
	}
	return s.getUserFn(ctx, id)
}

func (s *stubAPI) ListEnrolledCourses(ctx context.Context, id string) ([]domain.Course, error) {
	s.hit("ListEnrolledCourses")
	if s.listEnrolledCoursesFn == nil {
		return nil, errUnexpectedCall
	}
	return s.listEnrolledCoursesFn(ctx, id)
}

func (s *stubAPI) Enroll(ctx context.Context, userID, courseID string) error {
	s.hit("Enroll")
	if s.enrollFn == nil {
		return errUnexpectedCall
	}
	return s.enrollFn(ctx, userID, courseID)
}

func (s *stubAPI) Unroll(ctx context.Context, userID, courseID string) error {
	s.hit("Unroll")
	if s.unrollFn == nil {
		return errUnexpectedCall
	}
	return s.unrollFn(ctx, userID, courseID)
}

func (s *stubAPI) UpdateUser(ctx context.Context, id string, in ports.ProfileInput) (*domain.User, error) {
	s.hit("UpdateUser")
	if s.updateUserFn == nil {
		return nil, errUnexpectedCall
	}
	return s.updateUserFn(ctx, id, in)
}

func (s *stubAPI) ListEducators(ctx context.Context) ([]domain.Educator, error) {
	s.hit("ListEducators")
	if s.listEducatorsFn == nil {
		return nil, errUnexpectedCall
	}
	return s.listEducatorsFn(ctx)
}

func (s *stubAPI) GetEducator(ctx context.Context, id string) (*domain.Educator, error) {
	s.hit("GetEducator")
	if s.getEducatorFn == nil {
		return nil, errUnexpectedCall
	}
	return s.getEducatorFn(ctx, id)
}

func (s *stubAPI) GetEducatorByUser(ctx context.Context, id string) (*domain.Educator, error) {
	s.hit("GetEducatorByUser")
	if s.getEducatorByUserFn == nil {
		return nil, errUnexpectedCall
	}
	return s.getEducatorByUserFn(ctx, id)
}

func (s *stubAPI) UpdateEducatorByUser(ctx context.Context, id string, in ports.ProfileInput) (*domain.Educator, error) {
	s.hit("UpdateEducatorByUser")
	if s.updateEducatorByUserFn == nil {
		return nil, errUnexpectedCall
	}
	return s.updateEducatorByUserFn(ctx, id, in)
}

func (s *stubAPI) CreatePaymentIntent(ctx context.Context, amount int64) (string, error) {
	s.hit("CreatePaymentIntent")
	if s.createPaymentIntentFn == nil {
		return "", errUnexpectedCall
	}
	return s.createPaymentIntentFn(ctx, amount)
}

type note struct {
	kind   domain.NotificationKind
	title  string
	detail string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) Success(title, detail string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{domain.NotificationSuccess, title, detail})
}

func (n *recordingNotifier) Error(title, detail string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{domain.NotificationError, title, detail})
}

func (n *recordingNotifier) last() note {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notes) == 0 {
		return note{}
	}
	return n.notes[len(n.notes)-1]
}

type inlineScheduler struct{ runs atomic.Int32 }

func (s *inlineScheduler) Schedule(_ query.Key, job func(ctx context.Context)) {
	s.runs.Add(1)
	job(context.Background())
}

// fixture wires real stores and cache around a stub API.
type fixture struct {
	api      *stubAPI
	session  *session.Store
	cache    *query.Cache
	notifier *recordingNotifier
}

func newFixture() *fixture {
	return &fixture{
		api:      &stubAPI{},
		session:  session.New(),
		cache:    query.New(query.Config{Scheduler: &inlineScheduler{}, Logger: zerolog.Nop()}),
		notifier: &recordingNotifier{},
	}
}

func (f *fixture) loginAs(u domain.User) {
	f.session.SetUser(&u)
	f.session.SetToken("tok")
}

func (f *fixture) catalog() *CatalogService {
	return NewCatalogService(f.api, f.cache)
}

func (f *fixture) enrollment() *EnrollmentService {
	return NewEnrollmentService(f.api, f.api, f.catalog(), f.session, f.cache, f.notifier, zerolog.Nop())
}

func student() domain.User {
	return domain.User{ID: "u1", FullName: "Ada", Email: "ada@example.com", UserType: domain.UserTypeStudent, Plan: domain.PlanFree}
}

func educatorUser() domain.User {
	return domain.User{ID: "u2", FullName: "Grace", Email: "grace@example.com", UserType: domain.UserTypeEducator, Plan: domain.PlanPremium}
}
