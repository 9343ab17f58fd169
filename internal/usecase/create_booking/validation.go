package create_booking

import (
	"fmt"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.CustomerID <= 0 {
		return fmt.Errorf("%w: customerID must be positive", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if len(req.PetIDs) == 0 {
		return fmt.Errorf("%w: at least one pet is required", ErrInvalidInput)
	}
	seen := make(map[int64]struct{}, len(req.PetIDs))
	for _, id := range req.PetIDs {
		if id <= 0 {
			return fmt.Errorf("%w: petID must be positive", ErrInvalidInput)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: duplicate petID %d", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}
	}

	if req.Start.IsZero() {
		return fmt.Errorf("%w: start is required", ErrInvalidInput)
	}
	if req.End != nil && !req.End.After(req.Start) {
		return fmt.Errorf("%w: end must be after start", ErrInvalidInput)
	}

	if req.State != nil {
		switch domain.BookingState(*req.State) {
		case domain.BookingStateEnquiry, domain.BookingStatePreliminary:
		default:
			return fmt.Errorf("%w: initial state must be enquiry or preliminary", ErrInvalidInput)
		}
	}

	return nil
}

// initialState возвращает начальное состояние бронирования
func initialState(req *Request) domain.BookingState {
	if req.State != nil {
		return domain.BookingState(*req.State)
	}
	return domain.BookingStatePreliminary
}
