package move_slot

import (
	"context"

	moveSlot "github.com/cerberus-crm/booking-service/internal/usecase/move_slot"
)

type MoveSlotUseCase interface {
	Execute(ctx context.Context, req *moveSlot.Request) (*moveSlot.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
