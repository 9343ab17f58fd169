package move_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/cerberus-crm/booking-service/internal/domain"
	bookingRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/booking"
)

// UseCase use case для переноса бронирования на новое окно
type UseCase struct {
	bookingRepo BookingRepository
	serviceRepo ServiceRepository
	allocator   SlotAllocator
	txManager   TransactionManager
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	serviceRepo ServiceRepository,
	allocator SlotAllocator,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		serviceRepo: serviceRepo,
		allocator:   allocator,
		txManager:   txManager,
		logger:      logger,
	}
}

// Execute переносит бронирование на новое окно. Бронирование получает
// слот с новым окном (существующий или свежесозданный), старый слот
// удаляется, если опустел. Длительность сохраняется, если конец не задан
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("MoveBooking: booking=%d, start=%s", req.BookingID, req.Start.Format(domain.DateTimeFormat))

	if req.BookingID <= 0 {
		return nil, fmt.Errorf("%w: bookingID must be positive", ErrInvalidInput)
	}
	if req.Start.IsZero() {
		return nil, fmt.Errorf("%w: start is required", ErrInvalidInput)
	}
	if req.End != nil && !req.End.After(req.Start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidInput)
	}

	var result *domain.Booking
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("MoveBooking: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("MoveBooking: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		if !booking.CanMove() {
			uc.logger.Warn("MoveBooking: booking id=%d in state=%s cannot be moved", booking.ID, booking.State)
			return domain.ErrNotMoveable
		}

		end := req.Start.Add(booking.Duration())
		if req.End != nil {
			end = *req.End
		}

		service, err := uc.serviceRepo.GetByID(txCtx, booking.ServiceID)
		if err != nil {
			uc.logger.Error("MoveBooking: failed to get service id=%d: %v", booking.ServiceID, err)
			return fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
		}

		slot, err := uc.allocator.Allocate(txCtx, req.Start, end, service, booking.CustomerID, len(booking.PetIDs), booking.ID)
		if err != nil {
			return err
		}

		oldSlotID := booking.SlotID
		if err := uc.bookingRepo.UpdateSlot(txCtx, booking.ID, &slot.ID, &req.Start, &end); err != nil {
			uc.logger.Error("MoveBooking: failed to move booking id=%d to slot id=%d: %v", booking.ID, slot.ID, err)
			return fmt.Errorf("%w: failed to move booking: %v", ErrInternal, err)
		}

		booking.SlotID = &slot.ID
		booking.Start = req.Start
		booking.End = end

		if oldSlotID != nil && *oldSlotID != slot.ID {
			if err := uc.allocator.ReleaseIfEmpty(txCtx, *oldSlotID); err != nil {
				return err
			}
		}

		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("MoveBooking: booking id=%d moved to [%s, %s)",
		result.ID, result.Start.Format(domain.DateTimeFormat), result.End.Format(domain.DateTimeFormat))
	return FromDomainBooking(result), nil
}
