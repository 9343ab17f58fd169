package create_booking

import (
	"time"

	createBooking "github.com/cerberus-crm/booking-service/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	CustomerID int64   `json:"customerId"`
	ServiceID  int64   `json:"serviceId"`
	PetIDs     []int64 `json:"petIds"`
	Start      string  `json:"start"`           // RFC3339
	End        *string `json:"end,omitempty"`   // RFC3339, nil = start + booked length услуги
	State      *string `json:"state,omitempty"` // enquiry | preliminary
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID                int64   `json:"id"`
	CustomerID        int64   `json:"customerId"`
	ServiceID         int64   `json:"serviceId"`
	SlotID            *int64  `json:"slotId,omitempty"`
	PetIDs            []int64 `json:"petIds"`
	Start             string  `json:"start"`
	End               string  `json:"end"`
	State             string  `json:"state"`
	Cost              string  `json:"cost"`
	CostPerAdditional *string `json:"costPerAdditional,omitempty"`
	Currency          string  `json:"currency"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest() (*createBooking.Request, error) {
	start, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return nil, err
	}

	var end *time.Time
	if r.End != nil {
		parsed, err := time.Parse(time.RFC3339, *r.End)
		if err != nil {
			return nil, err
		}
		end = &parsed
	}

	return &createBooking.Request{
		CustomerID: r.CustomerID,
		ServiceID:  r.ServiceID,
		PetIDs:     r.PetIDs,
		Start:      start,
		End:        end,
		State:      r.State,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:                resp.ID,
		CustomerID:        resp.CustomerID,
		ServiceID:         resp.ServiceID,
		SlotID:            resp.SlotID,
		PetIDs:            resp.PetIDs,
		Start:             resp.Start.Format(time.RFC3339),
		End:               resp.End.Format(time.RFC3339),
		State:             resp.State,
		Cost:              resp.Cost,
		CostPerAdditional: resp.CostPerAdditional,
		Currency:          resp.Currency,
		CreatedAt:         resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         resp.UpdatedAt.Format(time.RFC3339),
	}
}
