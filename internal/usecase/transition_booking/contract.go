package transition_booking

import (
	"context"
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateState(ctx context.Context, id int64, state domain.BookingState) error
	UpdateStateAndSlot(ctx context.Context, id int64, state domain.BookingState, slotID *int64) error
}

// ChargeRepository интерфейс репозитория начислений
type ChargeRepository interface {
	Create(ctx context.Context, charge *domain.Charge) (*domain.Charge, error)
}

// ServiceRepository интерфейс каталога услуг
type ServiceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
}

// CustomerRepository интерфейс репозитория клиентов
type CustomerRepository interface {
	GetPetsByIDs(ctx context.Context, ids []int64) ([]*domain.Pet, error)
}

// SlotAllocator интерфейс аллокатора слотов
type SlotAllocator interface {
	Allocate(ctx context.Context, start, end time.Time, service *domain.Service, customerID int64, petCount int, excludeBookingID int64) (*domain.Slot, error)
	ReleaseIfEmpty(ctx context.Context, slotID int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
