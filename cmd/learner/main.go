// Command learner runs the headless e-learning client runtime and its
// companion HTTP API.
//
// @title          Learner companion API
// @version        1.0
// @description    Screens of the e-learning client exposed as JSON endpoints.
// @BasePath       /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/coursehub/learner/internal/api"
	"github.com/coursehub/learner/internal/api/handler"
	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/query"
	"github.com/coursehub/learner/internal/core/service"
	"github.com/coursehub/learner/internal/core/session"
	"github.com/coursehub/learner/internal/core/wishlist"
	"github.com/coursehub/learner/internal/infrastructure/db/redis"
	"github.com/coursehub/learner/internal/infrastructure/notify"
	"github.com/coursehub/learner/internal/infrastructure/queue"
	"github.com/coursehub/learner/internal/infrastructure/remote"
	"github.com/coursehub/learner/internal/pkg/config"
	"github.com/coursehub/learner/pkg/logger"
)

const notificationCapacity = 50

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		App:    "learner",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	sessionStore := session.New()
	wishlistStore := wishlist.New()
	feed := notify.NewFeed(notificationCapacity, logger.Component("notify"))

	dispatcher := queue.NewDispatcher(cfg.Query.RefetchWorkers, logger.Component("refetch"))
	dispatcher.Start(gctx)

	cacheCfg := query.Config{
		StaleTime:    cfg.Query.StaleTime,
		GCTime:       cfg.Query.GCTime,
		FetchTimeout: cfg.Query.FetchTimeout,
		Retry:        cfg.Query.Retry,
		RetryDelay:   cfg.Query.RetryDelay,
		ShouldRetry: func(err error) bool {
			return errors.Is(err, domain.ErrTransport)
		},
		Scheduler: dispatcher,
		Logger:    logger.Component("query"),
	}

	ready := map[string]handler.Pinger{}

	var (
		redisClient *goredis.Client
		bus         *redis.InvalidationBus
	)
	if cfg.RedisEnabled() {
		var err error
		redisClient, err = redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("failed to connect to redis")
		}
		bus = redis.NewInvalidationBus(redisClient, cfg.Redis.Channel, logger.Component("invalidation"))
		cacheCfg.Broadcaster = bus
		ready["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	cache := query.New(cacheCfg)
	g.Go(func() error {
		cache.Run(gctx)
		return nil
	})
	if bus != nil {
		g.Go(func() error {
			return bus.Listen(gctx, cache.InvalidateLocal)
		})
	}

	client := remote.NewClient(cfg.API.BaseURL, cfg.API.Timeout, sessionStore, logger.Component("remote"))
	ready["remote_api"] = handler.PingFunc(client.Ping)

	catalog := service.NewCatalogService(client, cache)
	e := api.NewRouter(api.Deps{
		Auth:       service.NewAuthService(client, sessionStore, cache, feed, logger.Component("auth")),
		Catalog:    catalog,
		Enrollment: service.NewEnrollmentService(client, client, catalog, sessionStore, cache, feed, logger.Component("enrollment")),
		Reviews:    service.NewReviewService(client, sessionStore, cache, feed, logger.Component("reviews")),
		Authoring:  service.NewAuthoringService(client, client, sessionStore, cache, feed, logger.Component("authoring")),
		Profile:    service.NewProfileService(client, client, sessionStore, cache, feed, logger.Component("profile")),
		Session:    sessionStore,
		Wishlist:   wishlistStore,
		Cache:      cache,
		Feed:       feed,
		Ready:      ready,
		Heartbeat:  cfg.StreamHeartbeat,
		Log:        logger.Component("http"),
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("api", cfg.API.BaseURL).Msg("learner runtime listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("learner runtime stopped with error")
	}
	dispatcher.Wait()
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
