package models

import (
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// ChargeLine строка начисления в составе бронирования
type ChargeLine struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Amount   string    `json:"amount"`
	Currency string    `json:"currency"`
	State    string    `json:"state"`
	PaidOn   *string   `json:"paid_on,omitempty"`
	Created  time.Time `json:"created_at"`
}

// BookingResponse модель ответа с бронированием
type BookingResponse struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	ServiceID  int64     `json:"service_id"`
	SlotID     *int64    `json:"slot_id,omitempty"`
	PetIDs     []int64   `json:"pet_ids"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	State      string    `json:"state"`

	Cost              string  `json:"cost"`
	CostPerAdditional *string `json:"cost_per_additional,omitempty"`
	Currency          string  `json:"currency"`

	AvailableActions []string     `json:"available_actions"`
	Charges          []ChargeLine `json:"charges,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookingListResponse модель ответа со списком бронирований
type BookingListResponse struct {
	Bookings []*BookingResponse `json:"bookings"`
}

// FromDomainBooking конвертирует доменное бронирование в response
func FromDomainBooking(b *domain.Booking, charges []*domain.Charge) *BookingResponse {
	actions := domain.AvailableBookingActions(b.State)
	actionNames := make([]string, 0, len(actions))
	for _, a := range actions {
		actionNames = append(actionNames, string(a))
	}

	resp := &BookingResponse{
		ID:               b.ID,
		CustomerID:       b.CustomerID,
		ServiceID:        b.ServiceID,
		SlotID:           b.SlotID,
		PetIDs:           b.PetIDs,
		Start:            b.Start,
		End:              b.End,
		State:            string(b.State),
		Cost:             b.Cost.Amount.String(),
		Currency:         b.Cost.Currency,
		AvailableActions: actionNames,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
	if b.CostPerAdditional != nil {
		s := b.CostPerAdditional.Amount.String()
		resp.CostPerAdditional = &s
	}

	for _, c := range charges {
		line := ChargeLine{
			ID:       c.ID,
			Name:     c.Name,
			Amount:   c.Amount().Amount.String(),
			Currency: c.Line.Currency,
			State:    string(c.State),
			Created:  c.CreatedAt,
		}
		if c.PaidOn != nil {
			s := c.PaidOn.Format(domain.DateFormat)
			line.PaidOn = &s
		}
		resp.Charges = append(resp.Charges, line)
	}

	return resp
}

// FromDomainBookingList конвертирует список доменных бронирований
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	out := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, FromDomainBooking(b, nil))
	}
	return &BookingListResponse{Bookings: out}
}
