package bookings

import (
	"context"
	"errors"
	"fmt"

	bookingRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/booking"
	"github.com/cerberus-crm/booking-service/internal/service/bookings/models"
)

// Service сервис чтения бронирований
type Service struct {
	bookingRepo BookingRepository
	chargeRepo  ChargeRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(bookingRepo BookingRepository, chargeRepo ChargeRepository, logger Logger) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		chargeRepo:  chargeRepo,
		logger:      logger,
	}
}

// GetByID получает бронирование вместе с порожденными им начислениями
// и списком доступных действий
func (s *Service) GetByID(ctx context.Context, id int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d", id)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByID: booking id=%d not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	charges, err := s.chargeRepo.GetByBookingID(ctx, id)
	if err != nil {
		s.logger.Error("GetByID: failed to load charges for booking id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - load charges: %v", ErrInternal, err)
	}

	return models.FromDomainBooking(booking, charges), nil
}

// GetCustomerBookings получает историю бронирований клиента
func (s *Service) GetCustomerBookings(ctx context.Context, customerID int64) (*models.BookingListResponse, error) {
	s.logger.Info("GetCustomerBookings: fetching bookings for customer=%d", customerID)

	bookings, err := s.bookingRepo.GetByCustomerID(ctx, customerID)
	if err != nil {
		s.logger.Error("GetCustomerBookings: repository error for customer=%d: %v", customerID, err)
		return nil, fmt.Errorf("%w: GetCustomerBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetCustomerBookings: fetched %d bookings for customer=%d", len(bookings), customerID)
	return models.FromDomainBookingList(bookings), nil
}
