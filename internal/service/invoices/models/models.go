package models

import (
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// CreateInvoiceRequest запрос на создание черновика счета
type CreateInvoiceRequest struct {
	CustomerID int64      // Клиент, которому выставляется счет
	Details    string     // Описание счета
	Adjustment *string    // Корректировка итога (скидка или надбавка)
	Due        *time.Time // Срок оплаты (nil = назначается при отправке)
	ChargeIDs  []int64    // Начисления, привязываемые к счету
}

// UpdateInvoiceRequest запрос на изменение черновика счета
type UpdateInvoiceRequest struct {
	Details    *string
	Adjustment *string
	Due        *time.Time
}

// SendInvoiceRequest параметры отправки счета
type SendInvoiceRequest struct {
	To        *string // Адрес получателя (nil = invoice email клиента)
	SendEmail *bool   // Отправлять ли письмо (nil = true)
	Notes     *string // Заметки к отправке
}

// ChargeLine строка начисления в составе счета
type ChargeLine struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Line     string `json:"line"`
	Quantity int    `json:"quantity"`
	Amount   string `json:"amount"`
	State    string `json:"state"`
}

// PaymentLine строка платежа в составе счета
type PaymentLine struct {
	ID      int64     `json:"id"`
	Amount  string    `json:"amount"`
	Created time.Time `json:"created_at"`
}

// Totals вычисляемые денежные поля счета
type Totals struct {
	Subtotal string `json:"subtotal"`
	Total    string `json:"total"`
	Paid     string `json:"paid"`
	Unpaid   string `json:"unpaid"`
}

// InvoiceResponse модель ответа со счетом
type InvoiceResponse struct {
	ID         int64  `json:"id"`
	Number     string `json:"number"`
	CustomerID *int64 `json:"customer_id,omitempty"`

	Details    string     `json:"details,omitempty"`
	Due        *time.Time `json:"due,omitempty"`
	Adjustment string     `json:"adjustment"`
	State      string     `json:"state"`
	Currency   string     `json:"currency"`

	CustomerName   string `json:"customer_name,omitempty"`
	InvoiceAddress string `json:"invoice_address,omitempty"`
	SentTo         string `json:"sent_to,omitempty"`
	SendNotes      string `json:"send_notes,omitempty"`

	Charges  []ChargeLine  `json:"charges"`
	Payments []PaymentLine `json:"payments"`
	Totals   Totals        `json:"totals"`
	Overdue  bool          `json:"overdue"`

	AvailableActions []string `json:"available_actions"`

	// Результат отправки письма, заполняется переходами send/resend
	EmailSent *bool `json:"email_sent,omitempty"`

	PaidOn    *time.Time `json:"paid_on,omitempty"`
	SentOn    *time.Time `json:"sent_on,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FromDomainInvoice конвертирует доменный счет с начислениями и платежами
// в response
func FromDomainInvoice(
	inv *domain.Invoice,
	charges []*domain.Charge,
	payments []*domain.Payment,
	totals domain.InvoiceTotals,
	overdue bool,
	currency string,
) *InvoiceResponse {
	actions := domain.AvailableInvoiceActions(inv.State)
	actionNames := make([]string, 0, len(actions))
	for _, a := range actions {
		actionNames = append(actionNames, string(a))
	}

	resp := &InvoiceResponse{
		ID:               inv.ID,
		Number:           inv.Name(),
		CustomerID:       inv.CustomerID,
		Details:          inv.Details,
		Due:              inv.Due,
		Adjustment:       inv.Adjustment.Amount.String(),
		State:            string(inv.State),
		Currency:         currency,
		CustomerName:     inv.CustomerName,
		InvoiceAddress:   inv.InvoiceAddress,
		SentTo:           inv.SentTo,
		SendNotes:        inv.SendNotes,
		Charges:          make([]ChargeLine, 0, len(charges)),
		Payments:         make([]PaymentLine, 0, len(payments)),
		Overdue:          overdue,
		AvailableActions: actionNames,
		PaidOn:           inv.PaidOn,
		SentOn:           inv.SentOn,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}

	resp.Totals = Totals{
		Subtotal: totals.Subtotal.Amount.String(),
		Total:    totals.Total.Amount.String(),
		Paid:     totals.Paid.Amount.String(),
		Unpaid:   totals.Unpaid.Amount.String(),
	}

	for _, c := range charges {
		resp.Charges = append(resp.Charges, ChargeLine{
			ID:       c.ID,
			Name:     c.Name,
			Line:     c.Line.Amount.String(),
			Quantity: c.Quantity,
			Amount:   c.Amount().Amount.String(),
			State:    string(c.State),
		})
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, PaymentLine{
			ID:      p.ID,
			Amount:  p.Amount.Amount.String(),
			Created: p.CreatedAt,
		})
	}

	return resp
}
