package transition_booking

import (
	"context"

	transitionBooking "github.com/cerberus-crm/booking-service/internal/usecase/transition_booking"
)

type TransitionBookingUseCase interface {
	Execute(ctx context.Context, req *transitionBooking.Request) (*transitionBooking.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
