package slots

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slot not found")

	// ErrInternal возвращается при внутренних ошибках аллокатора
	ErrInternal = errors.New("slots: internal error")
)
