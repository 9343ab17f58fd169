package transition_booking

import (
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// Request модель запроса на переход бронирования
type Request struct {
	BookingID int64  // ID бронирования
	Action    string // Действие: process, confirm, cancel, reopen, complete
}

// Response модель ответа с бронированием после перехода
type Response struct {
	ID               int64
	CustomerID       int64
	ServiceID        int64
	SlotID           *int64
	PetIDs           []int64
	Start            time.Time
	End              time.Time
	State            string
	AvailableActions []string

	// Начисления, созданные переходом complete (пусто для остальных действий)
	GeneratedChargeIDs []int64

	UpdatedAt time.Time
}

// FromDomainBooking конвертирует доменное бронирование в response
func FromDomainBooking(b *domain.Booking, chargeIDs []int64) *Response {
	actions := domain.AvailableBookingActions(b.State)
	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, string(a))
	}

	return &Response{
		ID:                 b.ID,
		CustomerID:         b.CustomerID,
		ServiceID:          b.ServiceID,
		SlotID:             b.SlotID,
		PetIDs:             b.PetIDs,
		Start:              b.Start,
		End:                b.End,
		State:              string(b.State),
		AvailableActions:   names,
		GeneratedChargeIDs: chargeIDs,
		UpdatedAt:          b.UpdatedAt,
	}
}
