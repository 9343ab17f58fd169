package transition_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("transition_booking: booking not found")

	// ErrUnknownAction возвращается при неизвестном действии перехода
	ErrUnknownAction = errors.New("transition_booking: unknown action")

	// ErrBookingNotEnded возвращается при попытке завершить бронирование,
	// окно которого ещё не закончилось
	ErrBookingNotEnded = errors.New("transition_booking: booking has not ended yet")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("transition_booking: internal error")
)
