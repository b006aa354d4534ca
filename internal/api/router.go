package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/inkframe/cms-api/docs"
	"github.com/inkframe/cms-api/internal/api/handler"
	"github.com/inkframe/cms-api/internal/api/middleware"
	"github.com/inkframe/cms-api/internal/core/ports"
	"github.com/inkframe/cms-api/internal/realtime"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Log      zerolog.Logger
	Tokens   middleware.TokenVerifier
	Auth     ports.AuthService
	Users    ports.UserService
	Contents ports.ContentService
	Uploads  ports.UploadService

	UploadMaxBytes int64
	CORSOrigins    []string

	// Optional. A nil Hub disables /ws/content and a nil LoginLimiter leaves
	// /auth/login unthrottled.
	Hub          *realtime.Hub
	LoginLimiter *middleware.LoginLimiter
	Readiness    map[string]handler.Pinger

	// MetricsRegisterer receives the HTTP metrics. Defaults to the global
	// Prometheus registerer.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Rate limiting keys on the socket peer; forwarded headers are client supplied.
	e.IPExtractor = echo.ExtractIPDirect()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	registerer := d.MetricsRegisterer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: corsOrigins(d.CORSOrigins),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/ws/content"
		},
	}))
	if d.UploadMaxBytes > 0 {
		e.Use(echomiddleware.BodyLimit(bodyLimit(d.UploadMaxBytes)))
	}

	// --- Public routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	login := []echo.MiddlewareFunc{}
	if d.LoginLimiter != nil {
		login = append(login, d.LoginLimiter.Middleware())
	}
	e.POST("/auth/login", authHandler.Login, login...)

	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Readiness)
	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if d.Hub != nil {
		e.GET("/ws/content", echo.WrapHandler(realtime.NewServer(d.Hub, d.CORSOrigins)))
	}

	// --- Protected routes ---
	routes := protectedRoutes(handlers{
		auth:     authHandler,
		users:    handler.NewUserHandler(d.Users),
		contents: handler.NewContentHandler(d.Contents),
		uploads:  handler.NewUploadHandler(d.Uploads, d.UploadMaxBytes),
	})
	guard := []echo.MiddlewareFunc{
		middleware.Auth(d.Tokens, d.Log),
		middleware.Authorize(policyTable(routes), d.Log),
	}
	for _, r := range routes {
		e.Add(r.method, r.path, r.handler, guard...)
	}

	return e
}

// requestLogger writes one zerolog event per request.
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

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// bodyLimit leaves 1 MiB of headroom over the upload limit for multipart
// framing.
func bodyLimit(maxUpload int64) string {
	return fmt.Sprintf("%dK", (maxUpload+(1<<20))/1024)
}
