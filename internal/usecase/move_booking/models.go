package move_booking

import (
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// Request модель запроса на перенос бронирования
type Request struct {
	BookingID int64      // ID бронирования
	Start     time.Time  // Новое начало окна
	End       *time.Time // Новый конец окна (nil = сохранить длительность)
}

// Response модель ответа с перенесенным бронированием
type Response struct {
	ID         int64
	CustomerID int64
	ServiceID  int64
	SlotID     *int64
	Start      time.Time
	End        time.Time
	State      string
	UpdatedAt  time.Time
}

// FromDomainBooking конвертирует доменное бронирование в response
func FromDomainBooking(b *domain.Booking) *Response {
	return &Response{
		ID:         b.ID,
		CustomerID: b.CustomerID,
		ServiceID:  b.ServiceID,
		SlotID:     b.SlotID,
		Start:      b.Start,
		End:        b.End,
		State:      string(b.State),
		UpdatedAt:  b.UpdatedAt,
	}
}
