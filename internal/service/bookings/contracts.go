package bookings

import (
	"context"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByCustomerID(ctx context.Context, customerID int64) ([]*domain.Booking, error)
}

// ChargeRepository интерфейс репозитория начислений
type ChargeRepository interface {
	GetByBookingID(ctx context.Context, bookingID int64) ([]*domain.Charge, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
