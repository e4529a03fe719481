package http

import (
	"context"
	stdhttp "net/http"

	"user-service/internal/auth"
	"user-service/internal/config"
	"user-service/internal/http/handler"
	"user-service/internal/http/middleware"
	"user-service/internal/policy"
	"user-service/internal/repository"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const (
	jsonKeyStatus    = "status"
	statusOK         = "ok"
	requestBodyLimit = "1M"
)

type ServerDependencies struct {
	Config         *config.Config
	UserRepo       repository.UserRepository
	RoleRepo       repository.RoleRepository
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	PolicyEngine   *policy.Engine
}

type Server struct {
	echo *echo.Echo
	deps *ServerDependencies
}

func NewServer(deps *ServerDependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.HTTPErrorHandler = CustomHTTPErrorHandler

	e.Server.ReadTimeout = deps.Config.Server.ReadTimeout
	e.Server.WriteTimeout = deps.Config.Server.WriteTimeout

	// Request ID middleware (first, so all logs have request ID)
	e.Use(middleware.RequestID())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(requestBodyLimit))
	e.Use(echomiddleware.CORS())

	// Every request passes through the authenticator; it only installs the
	// principal, policy decisions happen in the handlers.
	e.Use(deps.AuthMiddleware.Authenticate())

	globalRateLimiter := middleware.NewGlobalRateLimiter()
	e.Use(globalRateLimiter.Middleware())

	// Strict rate limiting for the credential-guessing surface
	strictRateLimiter := middleware.NewStrictRateLimiter()

	authHandler := handler.NewAuthHandler(deps.AuthService)
	userHandler := handler.NewUserHandler(deps.UserRepo, deps.PolicyEngine)

	e.GET("/health", healthCheck)

	users := e.Group("/users")
	users.POST("/login", authHandler.Login, strictRateLimiter.Middleware())
	users.GET("", userHandler.ListUsers)
	users.POST("", userHandler.CreateUser)
	users.GET("/:id", userHandler.GetUser)
	users.PUT("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	return &Server{
		echo: e,
		deps: deps,
	}
}

// ServeHTTP dispatches a request through the full middleware and routing
// chain without binding a listener.
func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func healthCheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{
		jsonKeyStatus: statusOK,
	})
}
