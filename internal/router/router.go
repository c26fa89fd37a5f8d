package router

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"autods/internal/auth"
	"autods/internal/config"
	"autods/internal/handler"
	"autods/internal/logging"
	"autods/internal/metrics"
	session "autods/internal/middleware"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Page *handler.PageHandler
	Auth *handler.AuthHandler
	File *handler.FileHandler
	CSV  *handler.CSVHandler
	API  *handler.APIHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	jwtService *auth.JWTService,
	resolver session.SessionResolver,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(logging.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	optional := session.OptionalSession(jwtService, resolver, log)
	pages := session.RequireSession(jwtService, resolver, session.RedirectToLogin, log)
	limited := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitRPS)))

	// Pages
	e.GET("/", h.Page.Landing, optional)
	e.GET("/signup", h.Auth.SignupForm)
	e.POST("/signup", h.Auth.Signup, limited)
	e.GET("/login", h.Auth.LoginForm)
	e.POST("/login", h.Auth.Login, limited)
	e.POST("/logout", h.Auth.Logout, optional)
	e.GET("/upload-csv", h.File.UploadForm, optional)
	e.POST("/upload-csv", h.File.Upload, middleware.BodyLimit(bodyLimit(cfg.UploadMaxBytes)), limited, optional)
	e.GET("/my-files", h.File.MyFiles, pages)
	e.GET("/editCSV", h.CSV.EditCSV, optional)

	// JSON API, session token from the cookie or a bearer header
	api := e.Group("/api", session.RequireSession(jwtService, resolver, session.Unauthorized, log))
	api.GET("/files", h.API.ListFiles)
	api.GET("/csv", h.API.ParseCSV)
}

// bodyLimit leaves room for the multipart envelope around the file.
func bodyLimit(maxBytes int64) string {
	const envelope = 64 << 10
	if maxBytes <= 0 {
		return "10M"
	}
	return strconv.FormatInt(maxBytes+envelope, 10) + "B"
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
