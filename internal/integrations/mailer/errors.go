package mailer

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("mailer client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("mailer client: invalid response")

	// ErrSendRejected возвращается, когда сервис отклонил письмо
	ErrSendRejected = errors.New("mailer client: send rejected")

	// ErrServiceDegraded возвращается при применении graceful degradation
	// Указывает, что сервис рассылки недоступен; отправку можно повторить позже
	ErrServiceDegraded = errors.New("mailer unavailable: graceful degradation applied")
)
