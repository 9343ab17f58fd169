package create_booking

import (
	"errors"
	"net/http"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/domain"
	createBooking "github.com/cerberus-crm/booking-service/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidWindow      = "некорректное окно бронирования, ожидается RFC3339"
	msgServiceNotFound    = "услуга не найдена"
	msgCustomerNotFound   = "клиент не найден"
	msgPetNotFound        = "питомец не найден"
	msgPetOwnership       = "питомец не принадлежит клиенту"
	msgSlotOverlaps       = "окно пересекается с занятым слотом"
	msgIncorrectService   = "слот занят бронированиями другой услуги"
	msgMaxPets            = "превышен лимит питомцев на слот"
	msgMaxCustomers       = "превышен лимит клиентов на слот"
)

type Handler struct {
	useCase CreateBookingUseCase
	logger  Logger
}

func NewHandler(useCase CreateBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindow)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, createBooking.ErrServiceNotFound):
			h.logger.Warn("POST /bookings - Service not found: service_id=%d", req.ServiceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, createBooking.ErrCustomerNotFound):
			h.logger.Warn("POST /bookings - Customer not found: customer_id=%d", req.CustomerID)
			handlers.RespondNotFound(w, msgCustomerNotFound)

		case errors.Is(err, createBooking.ErrPetNotFound):
			h.logger.Warn("POST /bookings - Pet not found: customer_id=%d", req.CustomerID)
			handlers.RespondNotFound(w, msgPetNotFound)

		case errors.Is(err, domain.ErrPetOwnership):
			h.logger.Warn("POST /bookings - Pet ownership violation: customer_id=%d", req.CustomerID)
			handlers.RespondBadRequest(w, msgPetOwnership)

		case errors.Is(err, domain.ErrSlotOverlaps):
			h.logger.Warn("POST /bookings - Slot overlaps: customer_id=%d", req.CustomerID)
			handlers.RespondConflict(w, msgSlotOverlaps)

		case errors.Is(err, domain.ErrIncorrectService):
			h.logger.Warn("POST /bookings - Incorrect service: customer_id=%d, service_id=%d", req.CustomerID, req.ServiceID)
			handlers.RespondConflict(w, msgIncorrectService)

		case errors.Is(err, domain.ErrMaxPets):
			h.logger.Warn("POST /bookings - Max pets exceeded: customer_id=%d", req.CustomerID)
			handlers.RespondConflict(w, msgMaxPets)

		case errors.Is(err, domain.ErrMaxCustomers):
			h.logger.Warn("POST /bookings - Max customers exceeded: customer_id=%d", req.CustomerID)
			handlers.RespondConflict(w, msgMaxCustomers)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: customer_id=%d, error=%v", req.CustomerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking created successfully: booking_id=%d, customer_id=%d",
		result.ID, req.CustomerID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
