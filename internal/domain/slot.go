package domain

import (
	"fmt"
	"time"
)

// Slot is a shared time window that one or more bookings occupy concurrently.
// Identity is the exact (start, end) pair; the persistence layer enforces
// uniqueness. A slot with no bookings is garbage.
type Slot struct {
	ID    int64
	Start time.Time
	End   time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Duration returns the slot window length.
func (s *Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Matches reports whether the other slot has the identical window.
func (s *Slot) Matches(other *Slot) bool {
	return s.Start.Equal(other.Start) && s.End.Equal(other.End)
}

// WindowsOverlap reports whether two windows overlap, contain one another,
// or are exactly equal. Touching boundaries do not count.
func WindowsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	straddlesStart := bStart.Before(aStart) && bEnd.After(aStart)
	straddlesEnd := bStart.Before(aEnd) && bEnd.After(aEnd)
	equal := bStart.Equal(aStart) && bEnd.Equal(aEnd)
	contained := bStart.After(aStart) && bEnd.Before(aEnd)

	return straddlesStart || straddlesEnd || equal || contained
}

// SlotOccupancy is a slot together with its active bookings, as loaded under
// the allocation transaction. All derived slot properties are computed from
// it rather than stored.
type SlotOccupancy struct {
	Slot     *Slot
	Bookings []*Booking
}

// ServiceID returns the common service of the slot's bookings, or nil for an
// empty slot.
func (o *SlotOccupancy) ServiceID() *int64 {
	if len(o.Bookings) == 0 {
		return nil
	}
	return &o.Bookings[0].ServiceID
}

// PetCount is the total number of pets across the slot's bookings.
func (o *SlotOccupancy) PetCount() int {
	count := 0
	for _, b := range o.Bookings {
		count += len(b.PetIDs)
	}
	return count
}

// Customers is the set of customer ids with a booking in the slot.
func (o *SlotOccupancy) Customers() map[int64]struct{} {
	customers := make(map[int64]struct{}, len(o.Bookings))
	for _, b := range o.Bookings {
		customers[b.CustomerID] = struct{}{}
	}
	return customers
}

// CustomerCount is the number of distinct customers in the slot.
func (o *SlotOccupancy) CustomerCount() int {
	return len(o.Customers())
}

// CanMove reports whether every booking in the slot is in a moveable state.
func (o *SlotOccupancy) CanMove() bool {
	for _, b := range o.Bookings {
		if !b.CanMove() {
			return false
		}
	}
	return true
}

// ValidateBooking checks that the slot can legally accept the given booking
// under the service's capacity limits.
//
// Capacity policy: an allocation is rejected when current + new > max; it is
// never silently truncated. A customer already present in the slot does not
// count again towards the customer limit.
func (o *SlotOccupancy) ValidateBooking(service *Service, customerID int64, petCount int) error {
	if sid := o.ServiceID(); sid != nil && *sid != service.ID {
		return fmt.Errorf("%w: slot is for service id=%d", ErrIncorrectService, *sid)
	}

	if o.PetCount()+petCount > service.MaxPets {
		return fmt.Errorf("%w: max %d", ErrMaxPets, service.MaxPets)
	}

	if _, present := o.Customers()[customerID]; !present {
		if o.CustomerCount()+1 > service.MaxCustomers {
			return fmt.Errorf("%w: max %d", ErrMaxCustomers, service.MaxCustomers)
		}
	}

	return nil
}
