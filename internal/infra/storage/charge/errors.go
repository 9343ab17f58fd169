package charge

import "errors"

var (
	// ErrChargeNotFound возвращается, когда платеж не найден
	ErrChargeNotFound = errors.New("charge.repository: charge not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("charge.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("charge.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("charge.repository: failed to scan row")
)
