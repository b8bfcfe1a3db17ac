package router

import (
	"errors"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"usermanager/docs"
	"usermanager/internal/config"
	apperrors "usermanager/internal/errors"
	"usermanager/internal/handler"
	"usermanager/internal/ids"
	"usermanager/internal/policy"
	"usermanager/internal/service"
)

// Deps groups what the router needs besides the echo instance.
type Deps struct {
	Log         zerolog.Logger
	AuthService service.AuthService
	Policies    *policy.Registry

	User   *handler.UserHandler
	Auth   *handler.AuthHandler
	Health *handler.HealthHandler

	// Metrics defaults to the prometheus default registry.
	Metrics *prometheus.Registry
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, d Deps) {
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Metrics != nil {
		registerer, gatherer = d.Metrics, d.Metrics
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: ids.New}))
	e.Use(middleware.Recover())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "usermanager",
		Subsystem:  "http",
		Registerer: registerer,
	}))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", d.Health.Liveness)
	e.GET("/readyz", d.Health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes. Refresh and logout read the bearer token themselves so a
	// deleted user gets a 404 from refresh rather than a 401.
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)
	api.POST("/auth/logout", d.Auth.Logout)

	// Sign-up works with or without a token; a token is needed for roles other than USER.
	api.POST("/users", d.User.CreateUser,
		bearer(d.AuthService, true),
		d.Policies.Middleware(policy.OpCreateUser, policy.Collection),
	)

	// Secured routes (require a valid, unrevoked token)
	secured := api.Group("", bearer(d.AuthService, false))

	secured.GET("/auth/me", d.Auth.Me)

	secured.GET("/users", d.User.ListUsers, d.Policies.Middleware(policy.OpListUsers, policy.Collection))
	secured.GET("/users/:id", d.User.GetUser, d.Policies.Middleware(policy.OpReadUser, policy.PathID))
	secured.PATCH("/users/:id", d.User.UpdateUser, d.Policies.Middleware(policy.OpUpdateUser, policy.PathID))
	secured.PATCH("/users/:id/password", d.User.UpdatePassword, d.Policies.Middleware(policy.OpUpdatePassword, policy.PathID))
	secured.DELETE("/users/:id", d.User.DeleteUser, d.Policies.Middleware(policy.OpRemoveUser, policy.PathID))
}

// bearer authenticates the Authorization header through the auth service and
// stores the resulting principal under policy.PrincipalKey. With optional set,
// requests without a token continue as guests.
func bearer(authService service.AuthService, optional bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:             policy.PrincipalKey,
		ContinueOnIgnoredError: optional,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var missing *echojwt.TokenExtractionError
			if errors.As(err, &missing) {
				if optional {
					return nil
				}
				return apperrors.ErrMissingToken
			}
			if errors.Is(err, apperrors.ErrInvalidToken) {
				return apperrors.ErrInvalidToken
			}
			return err
		},
	})
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/healthz"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= http.StatusInternalServerError {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
