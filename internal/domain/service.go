package domain

import "time"

// Service represents a bookable service in the catalog (a walk, a grooming
// session, a vet visit). Capacity limits apply per booking slot. Existing
// slots are not affected by later changes to the service.
type Service struct {
	ID                int64
	Name              string
	Length            time.Duration // nominal duration of the service itself
	BookedLength      time.Duration // time blocked out in the diary
	Cost              Money
	CostPerAdditional *Money // incremental cost per additional pet, nil = flat rate
	MaxPets           int
	MaxCustomers      int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LengthMinutes returns the nominal duration in whole minutes.
func (s *Service) LengthMinutes() int {
	return int(s.Length / time.Minute)
}

// BookedLengthMinutes returns the blocked-out duration in whole minutes.
func (s *Service) BookedLengthMinutes() int {
	return int(s.BookedLength / time.Minute)
}
