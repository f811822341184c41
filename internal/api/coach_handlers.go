package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/export"
	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type openSlotRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

type clientStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED"`
}

// PUT /api/v1/coach/profile
func (s *Server) saveProfile(c echo.Context) error {
	coachID, err := currentCoachID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	var req service.CoachProfile
	if err := bindBody(c, &req); err != nil {
		return s.writeError(c, err)
	}

	coach, err := s.svc.Coaches.SaveProfile(c.Request().Context(), coachID, req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, coach)
}

// GET /api/v1/coach/profile
func (s *Server) getProfile(c echo.Context) error {
	coachID, err := currentCoachID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	coach, err := s.svc.Coaches.Get(c.Request().Context(), coachID)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, coach)
}

// POST /api/v1/coach/slots
func (s *Server) openSlot(c echo.Context) error {
	coachID, err := currentCoachID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	var req openSlotRequest
	if err := bindBody(c, &req); err != nil {
		return s.writeError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return s.writeError(c, err)
	}

	res, err := s.svc.Publisher.OpenSlot(c.Request().Context(), coachID, req.StartTime, req.EndTime)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// GET /api/v1/coach/slots?from=&to=. По умолчанию текущая неделя.
func (s *Server) listSlots(c echo.Context) error {
	coachID, err := currentCoachID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	ctx := c.Request().Context()
	loc := s.svc.Publisher.Location()

	fromRaw, toRaw := c.QueryParam("from"), c.QueryParam("to")
	if fromRaw == "" && toRaw == "" {
		_, slots, err := s.svc.Publisher.WeekSlots(ctx, coachID, time.Now())
		if err != nil {
			return s.writeError(c, err)
		}
		return c.JSON(http.StatusOK, nonNil(slots))
	}

	from, err := parseTimeParam(fromRaw, loc)
	if err != nil {
		return s.writeError(c, fmt.Errorf("%w: invalid from", service.ErrInvalidInput))
	}
	to, err := parseTimeParam(toRaw, loc)
	if err != nil {
		return s.writeError(c, fmt.Errorf("%w: invalid to", service.ErrInvalidInput))
	}

	slots, err := s.svc.Publisher.ListSlots(ctx, coachID, from, to)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(slots))
}

// GET /api/v1/coach/slots/export?week=YYYY-MM-DD
func (s *Server) exportWeek(c echo.Context) error {
	coachID, err := currentCoachID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}
	ctx := c.Request().Context()
	loc := s.svc.Publisher.Location()

	day := time.Now()
	if raw := c.QueryParam("week"); raw != "" {
		day, err = time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			return s.writeError(c, fmt.Errorf("%w: week must be YYYY-MM-DD", service.ErrInvalidInput))
		}
	}

	coach, err := s.svc.Coaches.Get(ctx, coachID)
	if err != nil {
		return s.writeError(c, err)
	}

	weekStart, slots, err := s.svc.Publisher.WeekSlots(ctx, coachID, day)
	if err != nil {
		return s.writeError(c, err)
	}

	data, err := export.WeekSchedule(coach.Name, weekStart, loc, slots)
	if err != nil {
		return s.writeError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.FileName(weekStart)))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

// DELETE /api/v1/coach/slots/:id
func (s *Server) deleteSlot(c echo.Context) error {
	coachID, err := currentCoachID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	slotID, err := pathUUID(c, "id")
	if err != nil {
		return s.writeError(c, err)
	}

	if err := s.svc.Publisher.DeleteSlot(c.Request().Context(), coachID, slotID); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /api/v1/coach/clients?status=
func (s *Server) listClients(c echo.Context) error {
	coachID, err := currentCoachID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	clients, err := s.svc.Clients.List(c.Request().Context(), coachID, model.ClientStatus(c.QueryParam("status")))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, nonNil(clients))
}

// PATCH /api/v1/coach/clients/:id
func (s *Server) setClientStatus(c echo.Context) error {
	coachID, err := currentCoachID(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	clientID, err := pathUUID(c, "id")
	if err != nil {
		return s.writeError(c, err)
	}

	var req clientStatusRequest
	if err := bindBody(c, &req); err != nil {
		return s.writeError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return s.writeError(c, err)
	}

	client, err := s.svc.Clients.SetStatus(c.Request().Context(), coachID, clientID, model.ClientStatus(req.Status))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, client)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
