package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Freeeeeet/lesson_slots/internal/model"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// singleline: без управляющих символов, значение попадает в заголовки писем
	_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsFunc(fl.Field().String(), unicode.IsControl)
	})
	return v
}

// validateStruct проверяет теги validate и возвращает ошибку, оборачивающую ErrInvalidInput
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
}

// normalizeIdentity нормализует и проверяет заявленную личность клиента
func normalizeIdentity(claim model.Identity) (model.Identity, error) {
	claim = claim.Normalize()
	if err := validateStruct(claim); err != nil {
		return model.Identity{}, err
	}
	return claim, nil
}
