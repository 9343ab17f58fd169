package models

import (
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// UpdateChargeRequest запрос на изменение начисления (nil = поле не меняется)
type UpdateChargeRequest struct {
	Name     *string
	Line     *string
	Quantity *int
}

// ChargeResponse модель ответа с начислением
type ChargeResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Line     string `json:"line"`
	Quantity int    `json:"quantity"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	State    string `json:"state"`

	ParentChargeID *int64 `json:"parent_charge_id,omitempty"`
	CustomerID     *int64 `json:"customer_id,omitempty"`
	InvoiceID      *int64 `json:"invoice_id,omitempty"`
	BookingID      *int64 `json:"booking_id,omitempty"`

	AvailableActions []string `json:"available_actions"`

	PaidOn    *time.Time `json:"paid_on,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FromDomainCharge конвертирует доменное начисление в response
func FromDomainCharge(c *domain.Charge) *ChargeResponse {
	actions := domain.AvailableChargeActions(c.State)
	actionNames := make([]string, 0, len(actions))
	for _, a := range actions {
		actionNames = append(actionNames, string(a))
	}

	return &ChargeResponse{
		ID:               c.ID,
		Name:             c.Name,
		Line:             c.Line.Amount.String(),
		Quantity:         c.Quantity,
		Amount:           c.Amount().Amount.String(),
		Currency:         c.Line.Currency,
		State:            string(c.State),
		ParentChargeID:   c.ParentChargeID,
		CustomerID:       c.CustomerID,
		InvoiceID:        c.InvoiceID,
		BookingID:        c.BookingID,
		AvailableActions: actionNames,
		PaidOn:           c.PaidOn,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
