package router

import (
	"fmt"
	"net/http"
	"notifier/internal/interfaces/api/handler"
	"notifier/internal/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Config holds the dependencies for the router.
type Config struct {
	NotificationHandler *handler.NotificationHandler
	Logger              logger.Logger
}

// requestValidator plugs go-playground/validator into echo's Context.Validate.
type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validator.Struct(i); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// NewRouter creates and configures a new Echo router.
func NewRouter(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validator: validator.New()}

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogHost:      true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cfg.Logger.Info(fmt.Sprintf("REQUEST: method=%s, uri=%s, status=%d, latency=%s, req_id=%s",
				v.Method, v.URI, v.Status, v.Latency, v.RequestID,
			))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		MaxAge:       300,
	}))

	// Routes
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	h := cfg.NotificationHandler
	e.POST("/notifications", h.Notify)
	e.GET("/usage", h.UsageAll)
	e.GET("/usage/:channel", h.Usage)
	e.GET("/history", h.RecentHistory)
	e.GET("/history/stats", h.Stats)
	e.GET("/history/:dedupKey", h.History)
	e.POST("/reminders/scan", h.Scan)
	e.GET("/scheduler/status", h.SchedulerStatus)

	cfg.Logger.Info("Router initialized with routes.")
	return e
}
