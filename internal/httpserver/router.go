package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/job_tracker/internal/jwtmiddleware"
	"github.com/Skotchmaster/job_tracker/internal/middleware/csrf"
	"github.com/Skotchmaster/job_tracker/pkg/db"
	loggingmw "github.com/Skotchmaster/job_tracker/pkg/middleware/logging"
)

const (
	defaultBodyLimit = "1M"
	resumeBodyLimit  = "6M"
)

type Deps struct {
	AuthHandler   *AuthHTTP
	JobHandler    *JobHTTP
	ResumeHandler *ResumeHTTP

	AccessSecret   []byte
	AllowedOrigins []string
	Logger         *slog.Logger
	DB             *gorm.DB
}

// New builds an echo instance with the shared middleware, error handler and
// validator installed, and every route registered.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewValidator()
	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e.Use(ecM.Recover())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(ecM.Secure())
	e.Use(ecM.CORSWithConfig(ecM.CORSConfig{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		AllowCredentials: true,
	}))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB == nil {
			return c.NoContent(http.StatusOK)
		}
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").SetInternal(err)
		}
		return c.NoContent(http.StatusOK)
	})

	bearer := jwtmiddleware.Bearer(d.AccessSecret)
	small := ecM.BodyLimit(defaultBodyLimit)

	auth := e.Group("/api/auth", small)
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	cookieAuth := csrf.OriginGuard(csrf.Config{AllowedOrigins: d.AllowedOrigins, AllowSameOrigin: true})
	auth.POST("/refresh", d.AuthHandler.Refresh, cookieAuth)
	auth.POST("/logout", d.AuthHandler.Logout, cookieAuth)
	auth.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	auth.POST("/reset-password/:token", d.AuthHandler.ResetPassword)
	auth.GET("/me", d.AuthHandler.Me, bearer)
	auth.POST("/change-password", d.AuthHandler.ChangePassword, bearer)

	jobs := e.Group("/api/jobs", small, bearer)
	jobs.GET("", d.JobHandler.List)
	jobs.GET("/stats", d.JobHandler.Stats)
	jobs.GET("/search", d.JobHandler.Search)
	jobs.GET("/:id", d.JobHandler.Get)
	jobs.POST("", d.JobHandler.Create)
	jobs.PATCH("/:id", d.JobHandler.Patch)
	jobs.DELETE("/:id", d.JobHandler.Delete)

	resume := e.Group("/api/resume", ecM.BodyLimit(resumeBodyLimit), bearer)
	resume.POST("/upload", d.ResumeHandler.Upload)
	resume.POST("/compare", d.ResumeHandler.Compare)
	resume.GET("/analyses", d.ResumeHandler.Analyses)
}
