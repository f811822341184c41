package api

import (
	"fmt"

	"github.com/Freeeeeet/lesson_slots/internal/service"
	"github.com/go-playground/validator/v10"
)

// requestValidator подключает validator/v10 к c.Validate
type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	return nil
}
