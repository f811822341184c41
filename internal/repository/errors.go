package repository

import "errors"

// ErrDuplicate возвращается при нарушении уникальности (например, повторная заявка клиента к тренеру)
var ErrDuplicate = errors.New("duplicate record")
