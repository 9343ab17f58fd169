package move_slot

import (
	"context"
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// SlotAllocator интерфейс аллокатора слотов
type SlotAllocator interface {
	MoveSlot(ctx context.Context, slotID int64, newStart time.Time, newEnd *time.Time) (*domain.Slot, error)
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
