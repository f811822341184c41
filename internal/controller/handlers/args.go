package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/google/uuid"
)

// splitArgs делит текст сообщения на аргументы, отбрасывая команду
func splitArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", service.ErrInvalidInput, what)
	}
	return id, nil
}

// parseIdentity email и полное имя из аргументов "<email> <full name...>"
func parseIdentity(args []string) (model.Identity, bool) {
	if len(args) < 2 {
		return model.Identity{}, false
	}
	return model.Identity{
		Email: args[0],
		Name:  strings.Join(args[1:], " "),
	}, true
}

// parseSlotTimes разбирает "<YYYY-MM-DD> <HH:MM> <HH:MM>" в часовом поясе loc
func parseSlotTimes(args []string, loc *time.Location) (time.Time, time.Time, error) {
	if len(args) != 3 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: expected date, start and end", service.ErrInvalidInput)
	}

	day, err := time.ParseInLocation(inputDateLayout, args[0], loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date must look like 2026-10-19", service.ErrInvalidInput)
	}

	start, err := clockOn(day, args[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := clockOn(day, args[2])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func clockOn(day time.Time, raw string) (time.Time, error) {
	t, err := time.Parse(inputTimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time must look like 09:30", service.ErrInvalidInput)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
