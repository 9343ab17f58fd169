package get_customer_bookings

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
)

const (
	msgInvalidCustomerID = "некорректный ID клиента"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/customers/{customerId}/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	customerID, err := strconv.ParseInt(vars["customerId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /customers/{id}/bookings - Invalid customer ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidCustomerID)
		return
	}

	list, err := h.service.GetCustomerBookings(r.Context(), customerID)
	if err != nil {
		h.logger.Error("GET /customers/{id}/bookings - Failed to list bookings: customer_id=%d, error=%v", customerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /customers/{id}/bookings - Listed %d bookings: customer_id=%d", len(list.Bookings), customerID)
	handlers.RespondJSON(w, http.StatusOK, list)
}
