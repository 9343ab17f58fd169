package domain

import "time"

// Defaults
const (
	// DefaultCurrency валюта по умолчанию, если не задана в конфигурации
	DefaultCurrency = "GBP"

	// DefaultInvoiceDueDays срок оплаты счета по умолчанию (от даты отправки)
	DefaultInvoiceDueDays = 7

	// DefaultServiceLength длительность услуги по умолчанию
	DefaultServiceLength = 60 * time.Minute

	// DefaultServiceBookedLength блокируемое в расписании время по умолчанию
	DefaultServiceBookedLength = 120 * time.Minute
)

// Validation constants
const (
	MaxChargeNameLength = 255
)

// Time format constants
const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = time.RFC3339
)
