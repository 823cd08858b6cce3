package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/core/query"
	"github.com/coursehub/learner/internal/core/session"
)

type ReviewService struct {
	api     ports.ReviewAPI
	session *session.Store
	w       writer
}

var _ ports.ReviewService = (*ReviewService)(nil)

func NewReviewService(api ports.ReviewAPI, sess *session.Store, cache *query.Cache, notifier ports.Notifier, logger zerolog.Logger) *ReviewService {
	return &ReviewService{
		api:     api,
		session: sess,
		w:       writer{cache: cache, notifier: notifier, log: logger},
	}
}

// Post publishes a review by the logged-in user. Empty text is rejected
// before any request is made.
func (s *ReviewService) Post(ctx context.Context, courseID, text string) (*domain.Review, error) {
	in := ports.ReviewInput{
		CourseID:   courseID,
		UserID:     s.session.Snapshot().UserID(),
		ReviewText: strings.TrimSpace(text),
	}

	var review *domain.Review
	err := s.w.run(ctx, mutation{
		action: "post_review",
		validate: func() error {
			if in.ReviewText == "" {
				return domain.NewValidationError("reviewText", "Review cannot be empty!")
			}
			if in.UserID == "" {
				return domain.ErrNotAuthenticated
			}
			if in.CourseID == "" {
				return domain.NewValidationError("courseId", "Course is required.")
			}
			return nil
		},
		call: func(ctx context.Context) (err error) {
			review, err = s.api.CreateReview(ctx, in)
			return err
		},
		invalidate: []query.Key{key(resCourseReviews, courseID)},
		success:    "Review posted successfully!",
		failure:    "Error",
	})
	return review, err
}
