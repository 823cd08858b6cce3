package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/core/query"
	"github.com/coursehub/learner/internal/pkg/metrics"
)

const (
	msgUnexpected = "An unexpected error occurred."
	msgNetwork    = "Network error. Please try again."
)

// mutation is one write action. validate runs before any network call; effect
// and the invalidations only run after call succeeded.
type mutation struct {
	action     string
	validate   func() error
	call       func(ctx context.Context) error
	effect     func()
	invalidate []query.Key

	success       string
	successDetail string
	failure       string
}

// writer runs mutations with the shared write-path policy.
type writer struct {
	cache    *query.Cache
	notifier ports.Notifier
	log      zerolog.Logger
}

func (w writer) run(ctx context.Context, m mutation) error {
	if m.validate != nil {
		if err := m.validate(); err != nil {
			metrics.WritesTotal.WithLabelValues(m.action, "invalid").Inc()
			w.notifier.Error(m.failure, err.Error())
			return err
		}
	}

	if err := m.call(ctx); err != nil {
		metrics.WritesTotal.WithLabelValues(m.action, "error").Inc()
		w.log.Warn().Err(err).Str("action", m.action).Msg("write failed")
		w.notifier.Error(m.failure, failureDetail(err))
		return err
	}

	if m.effect != nil {
		m.effect()
	}
	if len(m.invalidate) > 0 {
		w.cache.Invalidate(ctx, m.invalidate...)
	}
	metrics.WritesTotal.WithLabelValues(m.action, "success").Inc()
	w.log.Info().Str("action", m.action).Msg("write succeeded")
	if m.success != "" {
		w.notifier.Success(m.success, m.successDetail)
	}
	return nil
}

// failureDetail prefers the server's message and falls back to a generic one.
func failureDetail(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, domain.ErrTransport) {
		return msgNetwork
	}
	return msgUnexpected
}
