package handlers

// Форматы ввода в командах бота
const (
	inputDateLayout = "2006-01-02"
	inputTimeLayout = "15:04"
)
