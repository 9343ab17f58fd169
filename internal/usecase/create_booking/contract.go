package create_booking

import (
	"context"
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// ServiceRepository интерфейс каталога услуг
type ServiceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
}

// CustomerRepository интерфейс репозитория клиентов
type CustomerRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	GetPetsByIDs(ctx context.Context, ids []int64) ([]*domain.Pet, error)
}

// SlotAllocator интерфейс аллокатора слотов
type SlotAllocator interface {
	Allocate(ctx context.Context, start, end time.Time, service *domain.Service, customerID int64, petCount int, excludeBookingID int64) (*domain.Slot, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
