package mailer

// SendInvoiceEmailRequest запрос на отправку счета по электронной почте
type SendInvoiceEmailRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Filename string `json:"filename,omitempty"`
	// PDF счета, base64 в JSON
	Attachment []byte `json:"attachment,omitempty"`
}

// ErrorResponse модель ошибки от сервиса рассылки
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
