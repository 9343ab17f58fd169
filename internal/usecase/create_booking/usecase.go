package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/cerberus-crm/booking-service/internal/domain"
	customerRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/customer"
	serviceRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/service"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	serviceRepo  ServiceRepository
	customerRepo CustomerRepository
	allocator    SlotAllocator
	txManager    TransactionManager
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	serviceRepo ServiceRepository,
	customerRepo CustomerRepository,
	allocator SlotAllocator,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		serviceRepo:  serviceRepo,
		customerRepo: customerRepo,
		allocator:    allocator,
		txManager:    txManager,
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
// Аллокация слота и вставка бронирования идут в одной сериализуемой
// транзакции: конкурентное заполнение того же окна будет отклонено
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: customer=%d, service=%d, pets=%d, start=%s",
		req.CustomerID, req.ServiceID, len(req.PetIDs), req.Start.Format(domain.DateTimeFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем услугу
	service, err := uc.serviceRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	// 3. Получаем клиента
	if _, err := uc.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, customerRepo.ErrCustomerNotFound) {
			uc.logger.Warn("CreateBooking: customer id=%d not found", req.CustomerID)
			return nil, ErrCustomerNotFound
		}
		uc.logger.Error("CreateBooking: failed to get customer id=%d: %v", req.CustomerID, err)
		return nil, fmt.Errorf("%w: failed to get customer: %v", ErrInternal, err)
	}

	// 4. Получаем питомцев и проверяем принадлежность клиенту
	pets, err := uc.customerRepo.GetPetsByIDs(ctx, req.PetIDs)
	if err != nil {
		if errors.Is(err, customerRepo.ErrPetNotFound) {
			uc.logger.Warn("CreateBooking: some pets not found: %v", req.PetIDs)
			return nil, ErrPetNotFound
		}
		uc.logger.Error("CreateBooking: failed to get pets: %v", err)
		return nil, fmt.Errorf("%w: failed to get pets: %v", ErrInternal, err)
	}

	// 5. Вычисляем окно бронирования
	end := req.Start.Add(service.BookedLength)
	if req.End != nil {
		end = *req.End
	}

	booking := &domain.Booking{
		CustomerID: req.CustomerID,
		ServiceID:  req.ServiceID,
		PetIDs:     req.PetIDs,
		Start:      req.Start,
		End:        end,
		State:      initialState(req),
		// Снимок цен услуги на момент бронирования
		Cost:              service.Cost,
		CostPerAdditional: service.CostPerAdditional,
	}

	if err := booking.ValidatePetOwnership(pets); err != nil {
		uc.logger.Warn("CreateBooking: pet ownership check failed for customer=%d: %v", req.CustomerID, err)
		return nil, err
	}

	// 6. Аллоцируем слот и сохраняем бронирование атомарно
	var result *domain.Booking
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		slot, err := uc.allocator.Allocate(txCtx, req.Start, end, service, req.CustomerID, len(req.PetIDs), 0)
		if err != nil {
			return err
		}

		booking.SlotID = &slot.ID
		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d in slot id=%d, state=%s",
		result.ID, *result.SlotID, result.State)

	return FromDomainBooking(result), nil
}
