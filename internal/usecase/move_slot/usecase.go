package move_slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/internal/service/slots"
)

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("move_slot: slot not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("move_slot: invalid input data")
)

// Request модель запроса на перенос слота
type Request struct {
	SlotID int64      // ID слота
	Start  time.Time  // Новое начало окна
	End    *time.Time // Новый конец окна (nil = сохранить длительность)
}

// Response модель ответа с перенесенным слотом
type Response struct {
	ID    int64     `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// UseCase use case для переноса слота целиком, со всеми бронированиями
type UseCase struct {
	allocator SlotAllocator
	txManager TransactionManager
	logger    Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(allocator SlotAllocator, txManager TransactionManager, logger Logger) *UseCase {
	return &UseCase{
		allocator: allocator,
		txManager: txManager,
		logger:    logger,
	}
}

// Execute переносит слот и все его бронирования на новое окно
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("MoveSlot: slot=%d, start=%s", req.SlotID, req.Start.Format(domain.DateTimeFormat))

	if req.SlotID <= 0 {
		return nil, fmt.Errorf("%w: slotID must be positive", ErrInvalidInput)
	}
	if req.Start.IsZero() {
		return nil, fmt.Errorf("%w: start is required", ErrInvalidInput)
	}
	if req.End != nil && !req.End.After(req.Start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidInput)
	}

	var result *domain.Slot
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		slot, err := uc.allocator.MoveSlot(txCtx, req.SlotID, req.Start, req.End)
		if err != nil {
			if errors.Is(err, slots.ErrSlotNotFound) {
				uc.logger.Warn("MoveSlot: slot id=%d not found", req.SlotID)
				return ErrSlotNotFound
			}
			return err
		}
		result = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Response{ID: result.ID, Start: result.Start, End: result.End}, nil
}
