package service

import (
	"errors"
	"fmt"
)

// Ошибки бронирования. Все, кроме ErrStoreUnavailable, окончательные: повтор того же запроса даст тот же ответ.
var (
	ErrSlotNotFound  = errors.New("slot not found")
	ErrAlreadyBooked = errors.New("slot already booked")

	ErrIneligible   = errors.New("client is not eligible")
	ErrNotApproved  = fmt.Errorf("%w: not approved by coach", ErrIneligible)
	ErrNameMismatch = fmt.Errorf("%w: name does not match", ErrIneligible)

	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidRange = fmt.Errorf("%w: start time must be before end time", ErrInvalidInput)

	ErrStoreUnavailable = errors.New("store unavailable")
	ErrDuplicateRequest = errors.New("lesson request already exists")

	ErrCoachNotFound  = errors.New("coach not found")
	ErrClientNotFound = errors.New("client not found")
)

// Description код и сообщение для пользователя по ошибке сервиса
type Description struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Describe сопоставляет ошибку коду и понятному сообщению. Неизвестные ошибки -> "internal".
func Describe(err error) Description {
	switch {
	case errors.Is(err, ErrSlotNotFound):
		return Description{Code: "not_found", Message: "This slot does not exist or has been removed by the coach."}
	case errors.Is(err, ErrAlreadyBooked):
		return Description{Code: "already_booked", Message: "Sorry, someone else already booked this slot. Please pick another time."}
	case errors.Is(err, ErrNotApproved):
		return Description{Code: "not_approved", Message: "You are not an approved client of this coach. Please request lessons first."}
	case errors.Is(err, ErrNameMismatch):
		return Description{Code: "name_mismatch", Message: "The name does not match the one on record with this coach."}
	case errors.Is(err, ErrInvalidRange):
		return Description{Code: "invalid_range", Message: "The slot must end after it starts."}
	case errors.Is(err, ErrInvalidInput):
		return Description{Code: "invalid_input", Message: "Some fields are missing or malformed: " + err.Error()}
	case errors.Is(err, ErrStoreUnavailable):
		return Description{Code: "store_unavailable", Message: "The booking service is temporarily unavailable. Please try again.", Retryable: true}
	case errors.Is(err, ErrDuplicateRequest):
		return Description{Code: "duplicate_request", Message: "You already have a request with this coach."}
	case errors.Is(err, ErrCoachNotFound):
		return Description{Code: "coach_not_found", Message: "This coach does not exist."}
	case errors.Is(err, ErrClientNotFound):
		return Description{Code: "client_not_found", Message: "This client does not exist."}
	default:
		return Description{Code: "internal", Message: "Something went wrong. Please try again later."}
	}
}

// IsRetryable true только для временной недоступности хранилища
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// storeError переводит ошибку хранилища в ErrStoreUnavailable, сохраняя причину
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
