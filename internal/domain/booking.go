package domain

import (
	"fmt"
	"time"

	"github.com/cerberus-crm/booking-service/pkg/ptr"
)

// BookingState represents the lifecycle state of a booking
type BookingState string

const (
	BookingStateEnquiry     BookingState = "enquiry"
	BookingStatePreliminary BookingState = "preliminary"
	BookingStateConfirmed   BookingState = "confirmed"
	BookingStateCanceled    BookingState = "canceled"
	BookingStateCompleted   BookingState = "completed"
)

// BookingAction is a named transition on the booking state machine
type BookingAction string

const (
	BookingActionProcess  BookingAction = "process"
	BookingActionConfirm  BookingAction = "confirm"
	BookingActionCancel   BookingAction = "cancel"
	BookingActionReopen   BookingAction = "reopen"
	BookingActionComplete BookingAction = "complete"
)

// BookingStates all valid booking states, used for state validation
var BookingStates = []BookingState{
	BookingStateEnquiry,
	BookingStatePreliminary,
	BookingStateConfirmed,
	BookingStateCanceled,
	BookingStateCompleted,
}

// bookingTransitions is the explicit transition table of the booking state
// machine. Guards and side effects run in the use case layer; this table
// answers only "is (source, action) -> target legal".
var bookingTransitions = map[BookingState]map[BookingAction]BookingState{
	BookingStateEnquiry: {
		BookingActionProcess: BookingStatePreliminary,
		BookingActionCancel:  BookingStateCanceled,
	},
	BookingStatePreliminary: {
		BookingActionConfirm: BookingStateConfirmed,
		BookingActionCancel:  BookingStateCanceled,
	},
	BookingStateConfirmed: {
		BookingActionCancel:   BookingStateCanceled,
		BookingActionComplete: BookingStateCompleted,
	},
	BookingStateCanceled: {
		BookingActionReopen: BookingStateEnquiry,
	},
}

// NextBookingState resolves the target state for an action from the given
// source state, or ErrTransitionNotAllowed.
func NextBookingState(state BookingState, action BookingAction) (BookingState, error) {
	target, ok := bookingTransitions[state][action]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrTransitionNotAllowed, action, state)
	}
	return target, nil
}

// AvailableBookingActions lists the actions legal from the given state,
// in a stable order.
func AvailableBookingActions(state BookingState) []BookingAction {
	ordered := []BookingAction{
		BookingActionProcess,
		BookingActionConfirm,
		BookingActionComplete,
		BookingActionReopen,
		BookingActionCancel,
	}

	var actions []BookingAction
	for _, a := range ordered {
		if _, ok := bookingTransitions[state][a]; ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// Booking occupies a slot for one customer with one or more of their pets.
// A non-canceled booking always has a slot; a canceled booking never does.
type Booking struct {
	ID         int64
	CustomerID int64
	ServiceID  int64
	SlotID     *int64
	PetIDs     []int64

	Start time.Time
	End   time.Time
	State BookingState

	// Costs are denormalized from the service at booking time so later
	// service edits do not change agreed prices.
	Cost              Money
	CostPerAdditional *Money

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Duration returns the length of the booked window.
func (b *Booking) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// CanMove reports whether the booking may be shifted to a new window.
func (b *Booking) CanMove() bool {
	switch b.State {
	case BookingStateEnquiry, BookingStatePreliminary, BookingStateConfirmed:
		return true
	}
	return false
}

// CanComplete reports whether the completion guard holds: the booked window
// must be fully in the past.
func (b *Booking) CanComplete(now time.Time) bool {
	return b.End.Before(now)
}

// IsActive reports whether the booking still occupies its slot.
func (b *Booking) IsActive() bool {
	return b.State != BookingStateCanceled
}

// ValidatePetOwnership checks that every pet on the booking belongs to the
// booking's customer.
func (b *Booking) ValidatePetOwnership(pets []*Pet) error {
	byID := make(map[int64]*Pet, len(pets))
	for _, p := range pets {
		byID[p.ID] = p
	}

	for _, id := range b.PetIDs {
		pet, ok := byID[id]
		if !ok || pet.CustomerID != b.CustomerID {
			return fmt.Errorf("%w: pet id=%d", ErrPetOwnership, id)
		}
	}
	return nil
}

// BookingCharges builds the charges generated when the booking completes.
// With per-additional pricing set, each pet is charged separately: the first
// at the full cost, the rest at the per-additional rate. Without it a single
// charge covers the whole booking.
func (b *Booking) BookingCharges(serviceName string, petNames []string) []*Charge {
	mkCharge := func(name string, line Money) *Charge {
		return &Charge{
			Name:       truncate(name, MaxChargeNameLength),
			Line:       line,
			Quantity:   1,
			State:      ChargeStateUnpaid,
			CustomerID: ptr.Ptr(b.CustomerID),
			BookingID:  ptr.Ptr(b.ID),
		}
	}

	if b.CostPerAdditional == nil || len(petNames) == 0 {
		name := serviceName
		if len(petNames) > 0 {
			name = fmt.Sprintf("%s for %s", serviceName, joinNames(petNames))
		}
		return []*Charge{mkCharge(name, b.Cost)}
	}

	charges := make([]*Charge, 0, len(petNames))
	cost := b.Cost
	for i, pet := range petNames {
		charges = append(charges, mkCharge(fmt.Sprintf("%s for %s", serviceName, pet), cost))
		if i == 0 {
			cost = *b.CostPerAdditional
		}
	}
	return charges
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

// truncate caps the name at limit characters, never splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
