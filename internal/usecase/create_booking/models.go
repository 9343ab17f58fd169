package create_booking

import (
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// Request модель запроса на создание бронирования
type Request struct {
	CustomerID int64      // ID клиента
	ServiceID  int64      // ID услуги
	PetIDs     []int64    // Питомцы, участвующие в бронировании
	Start      time.Time  // Начало окна
	End        *time.Time // Конец окна (nil = start + booked_length услуги)
	State      *string    // Начальное состояние: enquiry или preliminary (nil = preliminary)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID         int64
	CustomerID int64
	ServiceID  int64
	SlotID     *int64
	PetIDs     []int64
	Start      time.Time
	End        time.Time
	State      string

	Cost              string  // Разовая стоимость услуги
	CostPerAdditional *string // Стоимость за каждого дополнительного питомца
	Currency          string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FromDomainBooking конвертирует доменное бронирование в response
func FromDomainBooking(b *domain.Booking) *Response {
	resp := &Response{
		ID:         b.ID,
		CustomerID: b.CustomerID,
		ServiceID:  b.ServiceID,
		SlotID:     b.SlotID,
		PetIDs:     b.PetIDs,
		Start:      b.Start,
		End:        b.End,
		State:      string(b.State),
		Cost:       b.Cost.Amount.String(),
		Currency:   b.Cost.Currency,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	if b.CostPerAdditional != nil {
		s := b.CostPerAdditional.Amount.String()
		resp.CostPerAdditional = &s
	}
	return resp
}
