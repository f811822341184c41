package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type identityRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (r identityRequest) identity() model.Identity {
	return model.Identity{Email: r.Email, Name: r.Name}
}

// slotView публичное представление слота, без данных клиента
type slotView struct {
	ID         uuid.UUID        `json:"id"`
	CoachID    uuid.UUID        `json:"coach_id"`
	StartTime  time.Time        `json:"start_time"`
	EndTime    time.Time        `json:"end_time"`
	Status     model.SlotStatus `json:"status"`
	Date       string           `json:"date"`
	Time       string           `json:"time"`
	BookingURL string           `json:"booking_url"`
}

func (s *Server) newSlotView(slot *model.Slot) slotView {
	summary := s.svc.Publisher.Summarize(slot)
	return slotView{
		ID:         slot.ID,
		CoachID:    slot.CoachID,
		StartTime:  slot.StartTime,
		EndTime:    slot.EndTime,
		Status:     slot.Status,
		Date:       summary.Date,
		Time:       summary.Time,
		BookingURL: summary.BookingURL,
	}
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", service.ErrInvalidInput, name)
	}
	return id, nil
}

func bindBody(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", service.ErrInvalidInput)
	}
	return nil
}

// GET /api/v1/coaches
func (s *Server) listCoaches(c echo.Context) error {
	coaches, err := s.svc.Coaches.List(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}

	type coachView struct {
		ID    uuid.UUID `json:"id"`
		Name  string    `json:"name"`
		Sport string    `json:"sport"`
	}
	out := make([]coachView, 0, len(coaches))
	for _, coach := range coaches {
		out = append(out, coachView{ID: coach.ID, Name: coach.Name, Sport: coach.Sport})
	}
	return c.JSON(http.StatusOK, out)
}

// POST /api/v1/coaches/:id/requests
func (s *Server) requestLessons(c echo.Context) error {
	coachID, err := pathUUID(c, "id")
	if err != nil {
		return s.writeError(c, err)
	}

	var req identityRequest
	if err := bindBody(c, &req); err != nil {
		return s.writeError(c, err)
	}

	client, err := s.svc.Clients.RequestLessons(c.Request().Context(), coachID, req.identity())
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":     client.ID,
		"status": client.Status,
	})
}

// GET /api/v1/slots/:id
func (s *Server) getSlot(c echo.Context) error {
	slotID, err := pathUUID(c, "id")
	if err != nil {
		return s.writeError(c, err)
	}

	slot, err := s.svc.Publisher.GetSlot(c.Request().Context(), slotID)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, s.newSlotView(slot))
}

// POST /api/v1/slots/:id/reserve
func (s *Server) reserveSlot(c echo.Context) error {
	slotID, err := pathUUID(c, "id")
	if err != nil {
		return s.writeError(c, err)
	}

	var req identityRequest
	if err := bindBody(c, &req); err != nil {
		return s.writeError(c, err)
	}

	slot, err := s.svc.Booking.ReserveSlot(c.Request().Context(), slotID, req.identity())
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "reserved",
		"slot":   s.newSlotView(slot),
	})
}

// GET /api/v1/slots/:id/reservation?email=
func (s *Server) reservationStatus(c echo.Context) error {
	slotID, err := pathUUID(c, "id")
	if err != nil {
		return s.writeError(c, err)
	}

	state, err := s.svc.Booking.ReservationStatus(c.Request().Context(), slotID, c.QueryParam("email"))
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"state": state})
}
