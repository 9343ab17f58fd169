package create_booking

import "errors"

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrCustomerNotFound возвращается, когда клиент не найден
	ErrCustomerNotFound = errors.New("create_booking: customer not found")

	// ErrPetNotFound возвращается, когда один из питомцев не найден
	ErrPetNotFound = errors.New("create_booking: pet not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
