package api

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// errorResponse тело ответа для любой ошибки API
type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func statusFor(code string) int {
	switch code {
	case "not_found", "coach_not_found", "client_not_found":
		return http.StatusNotFound
	case "already_booked", "duplicate_request":
		return http.StatusConflict
	case "not_approved", "name_mismatch":
		return http.StatusForbidden
	case "invalid_input", "invalid_range":
		return http.StatusBadRequest
	case "store_unavailable":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError переводит ошибку сервиса в HTTP ответ с кодом и сообщением для пользователя
func (s *Server) writeError(c echo.Context, err error) error {
	d := service.Describe(err)
	status := statusFor(d.Code)

	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("route", c.Path()),
			zap.String("code", d.Code),
			zap.Error(err),
		)
	}
	if d.Retryable {
		c.Response().Header().Set("Retry-After", "1")
	}

	return c.JSON(status, errorResponse{
		Error:     d.Code,
		Message:   d.Message,
		Retryable: d.Retryable,
	})
}

// httpErrorHandler отдает ошибки echo (404 маршрута, 405, паники) в том же формате
func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		_ = c.JSON(he.Code, errorResponse{Error: "http_error", Message: msg})
		return
	}

	_ = s.writeError(c, err)
}
