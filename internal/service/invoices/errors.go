package invoices

import "errors"

var (
	// ErrInvoiceNotFound возвращается, когда счет не найден
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrChargeNotFound возвращается, когда начисление не найдено
	ErrChargeNotFound = errors.New("charge not found")

	// ErrChargeAttached возвращается при попытке привязать начисление,
	// уже привязанное к другому счету
	ErrChargeAttached = errors.New("charge is attached to another invoice")

	// ErrCustomerNotSet возвращается при попытке отправить счет без клиента
	ErrCustomerNotSet = errors.New("invoice has no customer")

	// ErrNotSent возвращается при попытке повторной отправки счета,
	// который еще не отправлялся
	ErrNotSent = errors.New("invoice has not been sent")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
