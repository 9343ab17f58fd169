package transition_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/cerberus-crm/booking-service/internal/domain"
	bookingRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/booking"
	serviceRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/service"
)

// UseCase use case для переходов бронирования по state machine
type UseCase struct {
	bookingRepo  BookingRepository
	chargeRepo   ChargeRepository
	serviceRepo  ServiceRepository
	customerRepo CustomerRepository
	allocator    SlotAllocator
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	chargeRepo ChargeRepository,
	serviceRepo ServiceRepository,
	customerRepo CustomerRepository,
	allocator SlotAllocator,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		chargeRepo:   chargeRepo,
		serviceRepo:  serviceRepo,
		customerRepo: customerRepo,
		allocator:    allocator,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет провайдер времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute выполняет переход бронирования
// Переход и его побочные эффекты (освобождение слота при отмене,
// повторная аллокация при reopen, генерация начислений при complete)
// выполняются в одной сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("TransitionBooking: booking=%d, action=%s", req.BookingID, req.Action)

	action := domain.BookingAction(req.Action)
	switch action {
	case domain.BookingActionProcess, domain.BookingActionConfirm, domain.BookingActionCancel,
		domain.BookingActionReopen, domain.BookingActionComplete:
	default:
		uc.logger.Warn("TransitionBooking: unknown action %q", req.Action)
		return nil, ErrUnknownAction
	}

	var (
		result    *domain.Booking
		chargeIDs []int64
	)

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("TransitionBooking: booking id=%d not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("TransitionBooking: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		next, err := domain.NextBookingState(booking.State, action)
		if err != nil {
			uc.logger.Warn("TransitionBooking: %s not allowed from %s for booking id=%d",
				action, booking.State, booking.ID)
			return err
		}

		switch action {
		case domain.BookingActionCancel:
			err = uc.cancel(txCtx, booking, next)
		case domain.BookingActionReopen:
			err = uc.reopen(txCtx, booking, next)
		case domain.BookingActionComplete:
			chargeIDs, err = uc.complete(txCtx, booking, next)
		default:
			err = uc.updateState(txCtx, booking, next)
		}
		if err != nil {
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("TransitionBooking: booking id=%d moved to state=%s", result.ID, result.State)
	return FromDomainBooking(result, chargeIDs), nil
}

func (uc *UseCase) updateState(ctx context.Context, booking *domain.Booking, next domain.BookingState) error {
	if err := uc.bookingRepo.UpdateState(ctx, booking.ID, next); err != nil {
		uc.logger.Error("TransitionBooking: failed to update booking id=%d state: %v", booking.ID, err)
		return fmt.Errorf("%w: failed to update state: %v", ErrInternal, err)
	}
	booking.State = next
	return nil
}

// cancel отвязывает бронирование от слота и удаляет слот, если он опустел.
// Состояние и слот меняются одним оператором, иначе нарушается
// CHECK-ограничение консистентности state/slot_id
func (uc *UseCase) cancel(ctx context.Context, booking *domain.Booking, next domain.BookingState) error {
	slotID := booking.SlotID

	if err := uc.bookingRepo.UpdateStateAndSlot(ctx, booking.ID, next, nil); err != nil {
		uc.logger.Error("TransitionBooking: failed to cancel booking id=%d: %v", booking.ID, err)
		return fmt.Errorf("%w: failed to update state: %v", ErrInternal, err)
	}
	booking.State = next
	booking.SlotID = nil

	if slotID != nil {
		if err := uc.allocator.ReleaseIfEmpty(ctx, *slotID); err != nil {
			return err
		}
	}
	return nil
}

// reopen возвращает отмененное бронирование в работу, заново аллоцируя слот
// на прежнее окно. Если окно уже занято, переход отклоняется
func (uc *UseCase) reopen(ctx context.Context, booking *domain.Booking, next domain.BookingState) error {
	service, err := uc.serviceRepo.GetByID(ctx, booking.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			uc.logger.Error("TransitionBooking: service id=%d missing for booking id=%d", booking.ServiceID, booking.ID)
		}
		return fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	slot, err := uc.allocator.Allocate(ctx, booking.Start, booking.End, service, booking.CustomerID, len(booking.PetIDs), booking.ID)
	if err != nil {
		return err
	}

	if err := uc.bookingRepo.UpdateStateAndSlot(ctx, booking.ID, next, &slot.ID); err != nil {
		uc.logger.Error("TransitionBooking: failed to reopen booking id=%d: %v", booking.ID, err)
		return fmt.Errorf("%w: failed to update state: %v", ErrInternal, err)
	}
	booking.State = next
	booking.SlotID = &slot.ID
	return nil
}

// complete завершает бронирование и создает начисления: при тарифе
// cost_per_additional каждый питомец начисляется отдельной строкой,
// первый по полной стоимости
func (uc *UseCase) complete(ctx context.Context, booking *domain.Booking, next domain.BookingState) ([]int64, error) {
	now := uc.timeProvider.Now()
	if !booking.CanComplete(now) {
		uc.logger.Warn("TransitionBooking: booking id=%d ends at %s, cannot complete before that",
			booking.ID, booking.End.Format(domain.DateTimeFormat))
		return nil, ErrBookingNotEnded
	}

	service, err := uc.serviceRepo.GetByID(ctx, booking.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	pets, err := uc.customerRepo.GetPetsByIDs(ctx, booking.PetIDs)
	if err != nil {
		uc.logger.Error("TransitionBooking: failed to get pets for booking id=%d: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: failed to get pets: %v", ErrInternal, err)
	}
	petNames := make([]string, 0, len(pets))
	for _, p := range pets {
		petNames = append(petNames, p.Name)
	}

	if err := uc.bookingRepo.UpdateState(ctx, booking.ID, next); err != nil {
		uc.logger.Error("TransitionBooking: failed to complete booking id=%d: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: failed to update state: %v", ErrInternal, err)
	}
	booking.State = next

	chargeIDs := make([]int64, 0, len(petNames))
	for _, charge := range booking.BookingCharges(service.Name, petNames) {
		created, err := uc.chargeRepo.Create(ctx, charge)
		if err != nil {
			uc.logger.Error("TransitionBooking: failed to create charge for booking id=%d: %v", booking.ID, err)
			return nil, fmt.Errorf("%w: failed to create charge: %v", ErrInternal, err)
		}
		chargeIDs = append(chargeIDs, created.ID)
	}

	uc.logger.Info("TransitionBooking: booking id=%d completed, %d charges generated", booking.ID, len(chargeIDs))
	return chargeIDs, nil
}
