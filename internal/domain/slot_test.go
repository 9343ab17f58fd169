package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

func TestWindowsOverlap(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	at := func(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

	for _, tt := range []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{
			name:   "identical windows",
			aStart: at(0), aEnd: at(60),
			bStart: at(0), bEnd: at(60),
			want: true,
		},
		{
			name:   "b straddles a start",
			aStart: at(0), aEnd: at(60),
			bStart: at(-30), bEnd: at(30),
			want: true,
		},
		{
			name:   "b straddles a end",
			aStart: at(0), aEnd: at(60),
			bStart: at(30), bEnd: at(90),
			want: true,
		},
		{
			name:   "b contained in a",
			aStart: at(0), aEnd: at(60),
			bStart: at(15), bEnd: at(45),
			want: true,
		},
		{
			name:   "b contains a",
			aStart: at(0), aEnd: at(60),
			bStart: at(-30), bEnd: at(90),
			want: true,
		},
		{
			name:   "touching boundaries do not overlap",
			aStart: at(0), aEnd: at(60),
			bStart: at(60), bEnd: at(120),
			want: false,
		},
		{
			name:   "disjoint windows",
			aStart: at(0), aEnd: at(60),
			bStart: at(120), bEnd: at(180),
			want: false,
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, domain.WindowsOverlap(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}

func TestSlotOccupancy_ValidateBooking(t *testing.T) {
	t.Parallel()

	svc := &domain.Service{ID: 1, MaxPets: 4, MaxCustomers: 2}
	slot := &domain.Slot{ID: 100}

	booking := func(customerID int64, serviceID int64, pets ...int64) *domain.Booking {
		return &domain.Booking{CustomerID: customerID, ServiceID: serviceID, PetIDs: pets}
	}

	t.Run("empty slot accepts any service", func(t *testing.T) {
		t.Parallel()

		o := &domain.SlotOccupancy{Slot: slot}
		require.NoError(t, o.ValidateBooking(svc, 10, 4))
	})

	t.Run("pets up to the limit, fifth pet rejected", func(t *testing.T) {
		t.Parallel()

		o := &domain.SlotOccupancy{
			Slot:     slot,
			Bookings: []*domain.Booking{booking(10, 1, 1, 2), booking(20, 1, 3, 4)},
		}
		require.ErrorIs(t, o.ValidateBooking(svc, 10, 1), domain.ErrMaxPets)
	})

	t.Run("service mismatch rejected", func(t *testing.T) {
		t.Parallel()

		o := &domain.SlotOccupancy{
			Slot:     slot,
			Bookings: []*domain.Booking{booking(10, 2, 1)},
		}
		require.ErrorIs(t, o.ValidateBooking(svc, 20, 1), domain.ErrIncorrectService)
	})

	t.Run("new customer above the limit rejected", func(t *testing.T) {
		t.Parallel()

		o := &domain.SlotOccupancy{
			Slot:     slot,
			Bookings: []*domain.Booking{booking(10, 1, 1), booking(20, 1, 2)},
		}
		require.ErrorIs(t, o.ValidateBooking(svc, 30, 1), domain.ErrMaxCustomers)
	})

	t.Run("existing customer does not count twice", func(t *testing.T) {
		t.Parallel()

		o := &domain.SlotOccupancy{
			Slot:     slot,
			Bookings: []*domain.Booking{booking(10, 1, 1), booking(20, 1, 2)},
		}
		require.NoError(t, o.ValidateBooking(svc, 10, 1))
	})
}

func TestSlotOccupancy_CanMove(t *testing.T) {
	t.Parallel()

	slot := &domain.Slot{ID: 100}

	o := &domain.SlotOccupancy{
		Slot: slot,
		Bookings: []*domain.Booking{
			{State: domain.BookingStateConfirmed},
			{State: domain.BookingStatePreliminary},
		},
	}
	require.True(t, o.CanMove())

	o.Bookings = append(o.Bookings, &domain.Booking{State: domain.BookingStateCompleted})
	require.False(t, o.CanMove())
}

func TestSlot_Matches(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	a := &domain.Slot{Start: start, End: end}
	b := &domain.Slot{Start: start.In(time.FixedZone("X", 3600)), End: end}
	require.True(t, a.Matches(b))

	c := &domain.Slot{Start: start.Add(time.Minute), End: end}
	require.False(t, a.Matches(c))
}
