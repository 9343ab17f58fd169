package slot

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slot.repository: slot not found")

	// ErrDuplicateWindow возвращается при попытке создать слот с уже занятым окном (start, end)
	// Вызывающий код разрешает гонку повторным чтением по окну
	ErrDuplicateWindow = errors.New("slot.repository: slot window already exists")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("slot.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("slot.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("slot.repository: failed to scan row")
)
