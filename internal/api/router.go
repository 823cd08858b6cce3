package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/coursehub/learner/internal/api/handler"
	"github.com/coursehub/learner/internal/api/middleware"
	"github.com/coursehub/learner/internal/core/domain"
	"github.com/coursehub/learner/internal/core/ports"
	"github.com/coursehub/learner/internal/core/query"
	"github.com/coursehub/learner/internal/core/session"
	"github.com/coursehub/learner/internal/core/wishlist"
	"github.com/coursehub/learner/internal/infrastructure/notify"
	"github.com/coursehub/learner/internal/pkg/validation"

	_ "github.com/coursehub/learner/docs"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Auth       ports.AuthService
	Catalog    ports.CatalogService
	Enrollment ports.EnrollmentService
	Reviews    ports.ReviewService
	Authoring  ports.AuthoringService
	Profile    ports.ProfileService

	Session  *session.Store
	Wishlist *wishlist.Store
	Cache    *query.Cache
	Feed     *notify.Feed

	// Ready maps dependency names to readiness checks.
	Ready map[string]handler.Pinger

	Heartbeat time.Duration
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.Echo{}
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("learner"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Session)
	courseHandler := handler.NewCourseHandler(d.Catalog, d.Enrollment, d.Reviews, d.Authoring, d.Session, d.Wishlist)
	moduleHandler := handler.NewModuleHandler(d.Catalog, d.Authoring)
	educatorHandler := handler.NewEducatorHandler(d.Catalog)
	profileHandler := handler.NewProfileHandler(d.Profile, d.Enrollment)
	wishlistHandler := handler.NewWishlistHandler(d.Wishlist, d.Catalog)
	queryHandler := handler.NewQueryHandler(d.Cache)
	notificationHandler := handler.NewNotificationHandler(d.Feed)
	streamHandler := handler.NewStreamHandler(d.Session, d.Wishlist, d.Feed, d.Cache, d.Heartbeat, d.Log)

	requireSession := middleware.RequireSession(d.Session, nil)
	educatorsOnly := middleware.RequireUserType(domain.UserTypeEducator, domain.UserTypeAdmin)

	v1 := e.Group("/v1")

	// --- Auth ---
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/logout", authHandler.Logout)
	v1.GET("/auth/session", authHandler.Session)

	// --- Courses ---
	v1.GET("/courses", courseHandler.List)
	v1.GET("/courses/:id", courseHandler.Get)
	v1.GET("/courses/:id/modules", courseHandler.Modules)
	v1.GET("/courses/:id/reviews", courseHandler.Reviews)
	v1.POST("/courses/:id/reviews", courseHandler.PostReview, requireSession)
	v1.POST("/courses/:id/enroll", courseHandler.Enroll, requireSession)
	v1.POST("/courses/:id/unroll", courseHandler.Unroll, requireSession)
	v1.POST("/courses/:id/checkout", courseHandler.Checkout, requireSession)
	v1.POST("/courses", courseHandler.Create, requireSession, educatorsOnly)

	// --- Modules ---
	v1.GET("/modules/:id", moduleHandler.Get)
	v1.POST("/modules", moduleHandler.Create, requireSession, educatorsOnly)

	// --- Educators ---
	v1.GET("/educators", educatorHandler.List)
	v1.GET("/educators/:id", educatorHandler.Get)

	// --- Profile ---
	profile := v1.Group("/profile", requireSession)
	profile.GET("", profileHandler.Get)
	profile.PUT("", profileHandler.Update)
	profile.GET("/enrolled", profileHandler.Enrolled)

	// --- Wishlist (local only, no login required) ---
	v1.GET("/wishlist", wishlistHandler.List)
	v1.POST("/wishlist", wishlistHandler.Add)
	v1.POST("/wishlist/toggle", wishlistHandler.Toggle)
	v1.DELETE("/wishlist/:id", wishlistHandler.Remove)

	// --- Client state ---
	v1.GET("/queries", queryHandler.List)
	v1.POST("/queries/invalidate", queryHandler.Invalidate)
	v1.GET("/notifications", notificationHandler.List)
	v1.GET("/stream", streamHandler.Stream)

	// --- Health checks, metrics and docs ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Ready)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
