package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/core/query"
	"github.com/coursehub/learner/internal/core/session"
)

// EnrollmentService handles enroll, unroll and paid checkout for the
// logged-in user.
type EnrollmentService struct {
	users    ports.UserAPI
	payments ports.PaymentAPI
	catalog  ports.CatalogService
	session  *session.Store
	cache    *query.Cache
	w        writer
}

var _ ports.EnrollmentService = (*EnrollmentService)(nil)

func NewEnrollmentService(
	users ports.UserAPI,
	payments ports.PaymentAPI,
	catalog ports.CatalogService,
	sess *session.Store,
	cache *query.Cache,
	notifier ports.Notifier,
	logger zerolog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		users:    users,
		payments: payments,
		catalog:  catalog,
		session:  sess,
		cache:    cache,
		w:        writer{cache: cache, notifier: notifier, log: logger},
	}
}

// Enroll adds courseID to the user's enrollments once the API confirmed it.
func (s *EnrollmentService) Enroll(ctx context.Context, courseID string) error {
	uid := s.session.Snapshot().UserID()
	return s.w.run(ctx, mutation{
		action:   "enroll",
		validate: func() error { return requireCourse(uid, courseID) },
		call: func(ctx context.Context) error {
			return s.users.Enroll(ctx, uid, courseID)
		},
		effect:     func() { s.session.AddEnrollment(courseID) },
		invalidate: []query.Key{key(resUserEnrolls, uid), key(resCourseDetails, courseID)},
		success:    "Course enrolled successfully",
		failure:    "Something went wrong",
	})
}

func (s *EnrollmentService) Unroll(ctx context.Context, courseID string) error {
	uid := s.session.Snapshot().UserID()
	return s.w.run(ctx, mutation{
		action:   "unroll",
		validate: func() error { return requireCourse(uid, courseID) },
		call: func(ctx context.Context) error {
			return s.users.Unroll(ctx, uid, courseID)
		},
		effect:     func() { s.session.RemoveEnrollment(courseID) },
		invalidate: []query.Key{key(resUserEnrolls, uid), key(resCourseDetails, courseID)},
		success:    "Course unrolled successfully!",
		failure:    "Something went wrong",
	})
}

// Checkout enrolls directly in free courses and otherwise creates a payment
// intent for the course price. The caller presents the hosted payment sheet
// with the client secret and calls Enroll once it completes.
func (s *EnrollmentService) Checkout(ctx context.Context, courseID string) (*ports.CheckoutResult, error) {
	sess := s.session.Snapshot()
	if err := requireCourse(sess.UserID(), courseID); err != nil {
		return nil, err
	}
	if sess.User.IsEnrolled(courseID) {
		return &ports.CheckoutResult{CourseID: courseID, Enrolled: true}, nil
	}

	course, err := s.catalog.Course(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.IsFree() {
		if err := s.Enroll(ctx, courseID); err != nil {
			return nil, err
		}
		return &ports.CheckoutResult{CourseID: courseID, Free: true, Enrolled: true}, nil
	}

	amount, priceErr := course.PriceCents()
	res := &ports.CheckoutResult{CourseID: courseID, AmountCents: amount}
	err = s.w.run(ctx, mutation{
		action: "create_payment_intent",
		validate: func() error {
			if priceErr != nil {
				return domain.NewValidationError("price", priceErr.Error())
			}
			if amount <= 0 {
				return domain.NewValidationError("amount", "Amount must be greater than 0.")
			}
			return nil
		},
		call: func(ctx context.Context) (err error) {
			res.ClientSecret, err = s.payments.CreatePaymentIntent(ctx, amount)
			return err
		},
		failure: "Payment failed",
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// EnrolledCourses lists the courses of the logged-in user.
func (s *EnrollmentService) EnrolledCourses(ctx context.Context) ([]domain.Course, error) {
	uid := s.session.Snapshot().UserID()
	if uid == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return query.Get(ctx, s.cache, key(resUserEnrolls, uid), func(ctx context.Context) ([]domain.Course, error) {
		return s.users.ListEnrolledCourses(ctx, uid)
	})
}

func requireCourse(uid, courseID string) error {
	if uid == "" {
		return domain.ErrNotAuthenticated
	}
	if courseID == "" {
		return domain.NewValidationError("courseId", "Course is required.")
	}
	return nil
}
