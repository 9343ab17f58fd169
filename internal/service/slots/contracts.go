package slots

import (
	"context"
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	Create(ctx context.Context, s *domain.Slot) (*domain.Slot, error)
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
	GetByWindow(ctx context.Context, start, end time.Time) (*domain.Slot, error)
	GetOverlapping(ctx context.Context, start, end time.Time, excludeID int64) ([]*domain.Slot, error)
	UpdateWindow(ctx context.Context, id int64, start, end time.Time) error
	DeleteIfEmpty(ctx context.Context, id int64) (bool, error)
	DeleteEmpty(ctx context.Context) (int64, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetBySlotID(ctx context.Context, slotID int64, activeOnly bool) ([]*domain.Booking, error)
	CountBySlotIDs(ctx context.Context, slotIDs []int64) (map[int64]int, error)
	UpdateWindow(ctx context.Context, id int64, start, end time.Time) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
