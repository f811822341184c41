package model

import "strings"

// Identity заявленная личность клиента: email и имя, как их ввёл клиент
type Identity struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name" validate:"required,max=200,singleline"`
}

// Normalize приводит email к нижнему регистру и обрезает пробелы
func (i Identity) Normalize() Identity {
	return Identity{
		Email: NormalizeEmail(i.Email),
		Name:  strings.TrimSpace(i.Name),
	}
}

// NormalizeEmail каноничная форма email для хранения и поиска
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
