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

// AuthService implements login, registration and logout against the remote API.
type AuthService struct {
	api     ports.AuthAPI
	session *session.Store
	cache   *query.Cache
	w       writer
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(api ports.AuthAPI, sess *session.Store, cache *query.Cache, notifier ports.Notifier, logger zerolog.Logger) *AuthService {
	return &AuthService{
		api:     api,
		session: sess,
		cache:   cache,
		w:       writer{cache: cache, notifier: notifier, log: logger},
	}
}

// Login authenticates and populates the session with the returned user, token
// and educator profile.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (domain.Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	var auth *domain.Auth
	err := s.w.run(ctx, mutation{
		action:   "login",
		validate: func() error { return validation.Struct(in) },
		call: func(ctx context.Context) (err error) {
			auth, err = s.api.Login(ctx, in)
			return err
		},
		effect: func() {
			s.session.SetAuth(&auth.User, auth.Token, auth.Educator)
		},
		failure: "Login Failed",
	})
	if err != nil {
		return domain.Session{}, err
	}

	// Per-user keys are invalidated after the session is populated so observers
	// refetch under the new identity.
	uid := auth.User.ID
	s.cache.Invalidate(ctx, key(resUser, uid), key(resEducatorProfile, uid), key(resUserEnrolls, uid))
	return s.session.Snapshot(), nil
}

// Register creates an account. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Plan == "" {
		in.Plan = domain.PlanFree
	}

	var message string
	err := s.w.run(ctx, mutation{
		action:   "register",
		validate: func() error { return validation.Struct(in) },
		call: func(ctx context.Context) (err error) {
			message, err = s.api.Register(ctx, in)
			return err
		},
		success:       "Registration Successful",
		successDetail: "You can now log in with your credentials.",
		failure:       "Registration Failed",
	})
	return message, err
}

// Logout clears the session and every cached query.
func (s *AuthService) Logout(_ context.Context) {
	s.session.ClearAuth()
	s.cache.Clear()
	s.w.log.Info().Msg("logged out")
}

func (s *AuthService) Session() domain.Session {
	return s.session.Snapshot()
}
