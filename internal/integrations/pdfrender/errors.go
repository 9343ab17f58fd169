package pdfrender

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("pdfrender client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("pdfrender client: invalid response")

	// ErrRenderFailed возвращается, когда сервис не смог отрисовать документ
	ErrRenderFailed = errors.New("pdfrender client: render failed")
)
