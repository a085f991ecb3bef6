package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/Elale1984/RoomzIO-API/docs"
	"github.com/Elale1984/RoomzIO-API/internal/api/handler"
	"github.com/Elale1984/RoomzIO-API/internal/api/middleware"
	"github.com/Elale1984/RoomzIO-API/internal/core/domain"
	"github.com/Elale1984/RoomzIO-API/internal/core/ports"
)

// Deps carries everything the router needs. Auth doubles as the session
// resolver for the authentication middleware.
type Deps struct {
	Auth   ports.AuthService
	Users  ports.UserService
	Log    zerolog.Logger
	Cookie handler.CookieConfig

	CORSOrigins []string
	// AuthRateLimit is the per-IP request rate allowed on /auth; 0 disables it.
	AuthRateLimit float64
	// ReadinessChecks are run by /health/ready, keyed by dependency name.
	ReadinessChecks map[string]handler.Check
	// Registerer receives the HTTP request metrics. Nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "roomzio",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie)
	userHandler := handler.NewUserHandler(d.Users)
	requireSession := middleware.RequireAuthenticated(d.Auth, d.Cookie.Name)

	// --- Auth routes ---
	auth := e.Group("/auth")
	if d.AuthRateLimit > 0 {
		auth.Use(authRateLimiter(d.AuthRateLimit))
	}
	auth.POST("/register", authHandler.Register, middleware.LoadIdentity(d.Auth, d.Cookie.Name))
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)

	// --- User routes (session required) ---
	users := e.Group("/users", requireSession, middleware.NoStore)
	users.GET("", userHandler.List)
	users.GET("/me", userHandler.Me)
	users.GET("/type/:id", userHandler.RoleOf, middleware.RequireAnyRole(domain.ManagerOrAdmin...))
	users.PATCH("/update/:id", userHandler.Update, middleware.RequireOwner("id"))
	users.DELETE("/delete/:id", userHandler.Delete, middleware.RequireRole(domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.ReadinessChecks)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// authRateLimiter applies a per-IP token bucket; bursts of twice the rate are allowed.
func authRateLimiter(perSecond float64) echo.MiddlewareFunc {
	burst := int(perSecond * 2)
	if burst < 1 {
		burst = 1
	}
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
		},
	})
}
