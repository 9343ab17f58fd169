package charges

import "errors"

var (
	// ErrChargeNotFound возвращается, когда начисление не найдено
	ErrChargeNotFound = errors.New("charge not found")

	// ErrInvalidAmount возвращается при некорректной сумме возврата
	ErrInvalidAmount = errors.New("invalid refund amount")

	// ErrInvalidUpdate возвращается при некорректных полях изменения начисления
	ErrInvalidUpdate = errors.New("invalid charge update")

	// ErrChargeNotEditable возвращается при попытке изменить начисление,
	// привязанное к счету, который уже нельзя редактировать
	ErrChargeNotEditable = errors.New("charge cannot be modified on a non-draft invoice")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
