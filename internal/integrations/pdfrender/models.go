package pdfrender

// LineItem строка счета в запросе на отрисовку
type LineItem struct {
	Name     string `json:"name"`
	Line     string `json:"line"`
	Quantity int    `json:"quantity"`
	Amount   string `json:"amount"`
}

// RenderInvoiceRequest запрос на отрисовку PDF счета
type RenderInvoiceRequest struct {
	Number         string `json:"number"`
	CustomerName   string `json:"customer_name"`
	InvoiceAddress string `json:"invoice_address"`
	Details        string `json:"details,omitempty"`
	Due            string `json:"due,omitempty"`

	Items      []LineItem `json:"items"`
	Subtotal   string     `json:"subtotal"`
	Adjustment string     `json:"adjustment"`
	Total      string     `json:"total"`
	Currency   string     `json:"currency"`
}

// ErrorResponse модель ошибки от сервиса отрисовки
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
