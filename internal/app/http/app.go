package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"imagetales/internal/config"
	"imagetales/internal/lib/jwt"
	appmiddleware "imagetales/internal/middleware"
	httprouters "imagetales/internal/transport/http"
	"imagetales/internal/transport/http/dto/response"

	_ "imagetales/docs"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo-contrib/echoprometheus"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	m           *http.ServeMux
	log         *slog.Logger
	e           *echo.Echo
	routers     *httprouters.Routers
	likeLimiter *appmiddleware.RateLimiter
	cfg         *config.Config
}

func New(log *slog.Logger, cfg *config.Config, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", cfg.FileStorage.MaxSize+1<<20)))
	e.Use(appmiddleware.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogMethod:   true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		log.Info("Statsviz start with error", slog.Any("error:", err.Error()))
	}

	return &Server{
		m:           mux,
		log:         log,
		e:           e,
		routers:     routers,
		likeLimiter: appmiddleware.NewRateLimiter(cfg.Gallery.LikeRateLimit, cfg.Gallery.LikeBurst),
		cfg:         cfg,
	}
}

// Handler нужен для тестов через httptest
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(s.addr()); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

// RunLimiterCleanup чистит состояние rate limiter до отмены ctx
func (s *Server) RunLimiterCleanup(ctx context.Context) {
	s.likeLimiter.RunCleanup(ctx)
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.cfg.HTTP.Host, s.cfg.HTTP.Port)
}

func (s *Server) BuildRouters() {
	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return jwt.ParseAccessToken(auth, s.cfg.Token.Secret)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, response.ErrInvalidToken)
		},
	})

	s.e.GET("/", s.routers.Health)

	s.e.Static("/uploads", s.cfg.FileStorage.BaseDir)
	s.e.Static("/generated", s.cfg.FileStorage.GeneratedDir)

	s.e.GET("/metrics", echoprometheus.NewHandler())
	s.e.GET("/swagger/*", echoSwagger.WrapHandler)

	debug := s.e.Group("/debug")
	{
		debug.GET("/statsviz/", echo.WrapHandler(s.m))
		debug.GET("/statsviz/*", echo.WrapHandler(s.m))
	}

	auth := s.e.Group("/auth")
	{
		auth.POST("/register", s.routers.Register)
		auth.POST("/login", s.routers.Login)
		auth.POST("/refresh", s.routers.Refresh)
		auth.POST("/logout", s.routers.Logout, jwtMiddleware)
		auth.GET("/profile", s.routers.Profile, jwtMiddleware)
	}

	gallery := s.e.Group("/gallery")
	{
		gallery.GET("/all", s.routers.ListGallery)
		gallery.GET("/user", s.routers.ListUserGallery, jwtMiddleware)
		gallery.POST("/like/:id", s.routers.ToggleLike, s.likeLimiter.Middleware, jwtMiddleware)
	}

	image := s.e.Group("/image", jwtMiddleware)
	{
		image.POST("/save", s.routers.SaveImage)
		image.POST("/upload", s.routers.UploadImage)
		image.DELETE("/:id", s.routers.DeleteImage)
	}
}
