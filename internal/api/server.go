// Package api HTTP интерфейс бронирования слотов: публичные маршруты клиентов и кабинет тренера
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/metrics"
	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services сервисы, которые обслуживает API
type Services struct {
	Booking   *service.BookingCoordinator
	Publisher *service.SlotPublisher
	Clients   *service.ClientService
	Coaches   *service.CoachService
}

type Server struct {
	echo    *echo.Echo
	svc     Services
	limiter Limiter
	logger  *zap.Logger
}

// NewServer собирает echo с маршрутами. limiter может быть nil, тогда лимита нет.
func NewServer(svc Services, jwtSecret string, limiter Limiter, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	s := &Server{
		echo:    e,
		svc:     svc,
		limiter: limiter,
		logger:  logger,
	}
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(s.requestLogger())
	e.Use(requestMetrics())

	s.registerRoutes(jwtSecret)
	return s
}

func (s *Server) registerRoutes(jwtSecret string) {
	e := s.echo

	e.GET("/healthz", health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")
	v1.GET("/coaches", s.listCoaches)
	v1.POST("/coaches/:id/requests", s.requestLessons, s.rateLimit())
	v1.GET("/slots/:id", s.getSlot)
	v1.POST("/slots/:id/reserve", s.reserveSlot, s.rateLimit())
	v1.GET("/slots/:id/reservation", s.reservationStatus)

	coach := v1.Group("/coach", CoachAuth(jwtSecret))
	coach.PUT("/profile", s.saveProfile)
	coach.GET("/profile", s.getProfile)
	coach.POST("/slots", s.openSlot)
	coach.GET("/slots", s.listSlots)
	coach.GET("/slots/export", s.exportWeek)
	coach.DELETE("/slots/:id", s.deleteSlot)
	coach.GET("/clients", s.listClients)
	coach.PATCH("/clients/:id", s.setClientStatus)
}

func (s *Server) rateLimit() echo.MiddlewareFunc {
	if s.limiter == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return RateLimit(s.limiter, s.logger)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start слушает addr до Shutdown
func (s *Server) Start(addr string) error {
	s.logger.Info("🌐 HTTP server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("HTTP request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	})
}

func requestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.IncHTTP(route, strconv.Itoa(status))
			return err
		}
	}
}

func health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func parseTimeParam(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, raw, loc)
}
