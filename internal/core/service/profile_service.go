package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/core/query"
	"github.com/coursehub/learner/internal/core/session"
	"github.com/coursehub/learner/internal/pkg/validation"
)

// ProfileService reads and updates the logged-in user's profile. Educators
// are served from the educator document, everyone else from the user record.
type ProfileService struct {
	users     ports.UserAPI
	educators ports.EducatorAPI
	session   *session.Store
	cache     *query.Cache
	w         writer
}

var _ ports.ProfileService = (*ProfileService)(nil)

func NewProfileService(users ports.UserAPI, educators ports.EducatorAPI, sess *session.Store, cache *query.Cache, notifier ports.Notifier, logger zerolog.Logger) *ProfileService {
	return &ProfileService{
		users:     users,
		educators: educators,
		session:   sess,
		cache:     cache,
		w:         writer{cache: cache, notifier: notifier, log: logger},
	}
}

func (s *ProfileService) Profile(ctx context.Context) (*ports.Profile, error) {
	sess := s.session.Snapshot()
	if sess.User == nil {
		return nil, domain.ErrNotAuthenticated
	}
	uid := sess.User.ID

	if sess.User.UserType == domain.UserTypeEducator {
		edu, err := query.Get(ctx, s.cache, key(resEducatorProfile, uid), func(ctx context.Context) (*domain.Educator, error) {
			return s.educators.GetEducatorByUser(ctx, uid)
		})
		if err != nil {
			return nil, err
		}
		return &ports.Profile{User: sess.User, Educator: edu}, nil
	}

	user, err := query.Get(ctx, s.cache, key(resUser, uid), func(ctx context.Context) (*domain.User, error) {
		return s.users.GetUser(ctx, uid)
	})
	if err != nil {
		return nil, err
	}
	return &ports.Profile{User: user}, nil
}

// Update saves the profile form and merges the result into the session.
func (s *ProfileService) Update(ctx context.Context, in ports.ProfileInput) (*ports.Profile, error) {
	sess := s.session.Snapshot()
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	uid := sess.UserID()
	educator := sess.User != nil && sess.User.UserType == domain.UserTypeEducator
	if !educator {
		in.BackgroundImage = nil
	}

	out := &ports.Profile{}
	err := s.w.run(ctx, mutation{
		action: "update_profile",
		validate: func() error {
			if uid == "" {
				return domain.ErrNotAuthenticated
			}
			return validation.Struct(in)
		},
		call: func(ctx context.Context) (err error) {
			if educator {
				out.Educator, err = s.educators.UpdateEducatorByUser(ctx, uid, in)
				return err
			}
			out.User, err = s.users.UpdateUser(ctx, uid, in)
			return err
		},
		effect: func() {
			patch := domain.UserPatch{FullName: &in.FullName, Email: &in.Email}
			if out.User != nil && out.User.ProfilePic != "" {
				patch.ProfilePic = &out.User.ProfilePic
			}
			if out.Educator != nil {
				s.session.SetEducator(out.Educator)
			}
			s.session.UpdateUser(patch)
			out.User = s.session.Snapshot().User
		},
		invalidate: []query.Key{key(resUser, uid), key(resEducatorProfile, uid), key(resEducators)},
		success:    "Profile updated",
		failure:    "Error updating profile",
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
