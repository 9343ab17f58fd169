package domain_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

func TestNextBookingState(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name    string
		state   domain.BookingState
		action  domain.BookingAction
		want    domain.BookingState
		wantErr bool
	}{
		{
			name:   "enquiry process",
			state:  domain.BookingStateEnquiry,
			action: domain.BookingActionProcess,
			want:   domain.BookingStatePreliminary,
		},
		{
			name:   "enquiry cancel",
			state:  domain.BookingStateEnquiry,
			action: domain.BookingActionCancel,
			want:   domain.BookingStateCanceled,
		},
		{
			name:   "preliminary confirm",
			state:  domain.BookingStatePreliminary,
			action: domain.BookingActionConfirm,
			want:   domain.BookingStateConfirmed,
		},
		{
			name:   "preliminary cancel",
			state:  domain.BookingStatePreliminary,
			action: domain.BookingActionCancel,
			want:   domain.BookingStateCanceled,
		},
		{
			name:   "confirmed complete",
			state:  domain.BookingStateConfirmed,
			action: domain.BookingActionComplete,
			want:   domain.BookingStateCompleted,
		},
		{
			name:   "confirmed cancel",
			state:  domain.BookingStateConfirmed,
			action: domain.BookingActionCancel,
			want:   domain.BookingStateCanceled,
		},
		{
			name:   "canceled reopen",
			state:  domain.BookingStateCanceled,
			action: domain.BookingActionReopen,
			want:   domain.BookingStateEnquiry,
		},
		{
			name:    "enquiry confirm is illegal",
			state:   domain.BookingStateEnquiry,
			action:  domain.BookingActionConfirm,
			wantErr: true,
		},
		{
			name:    "enquiry complete is illegal",
			state:   domain.BookingStateEnquiry,
			action:  domain.BookingActionComplete,
			wantErr: true,
		},
		{
			name:    "canceled cancel is illegal",
			state:   domain.BookingStateCanceled,
			action:  domain.BookingActionCancel,
			wantErr: true,
		},
		{
			name:    "completed is terminal",
			state:   domain.BookingStateCompleted,
			action:  domain.BookingActionCancel,
			wantErr: true,
		},
		{
			name:    "completed cannot reopen",
			state:   domain.BookingStateCompleted,
			action:  domain.BookingActionReopen,
			wantErr: true,
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := domain.NextBookingState(tt.state, tt.action)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrTransitionNotAllowed)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAvailableBookingActions(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		state domain.BookingState
		want  []domain.BookingAction
	}{
		{
			state: domain.BookingStateEnquiry,
			want:  []domain.BookingAction{domain.BookingActionProcess, domain.BookingActionCancel},
		},
		{
			state: domain.BookingStatePreliminary,
			want:  []domain.BookingAction{domain.BookingActionConfirm, domain.BookingActionCancel},
		},
		{
			state: domain.BookingStateConfirmed,
			want:  []domain.BookingAction{domain.BookingActionComplete, domain.BookingActionCancel},
		},
		{
			state: domain.BookingStateCanceled,
			want:  []domain.BookingAction{domain.BookingActionReopen},
		},
		{
			state: domain.BookingStateCompleted,
			want:  nil,
		},
	} {
		tt := tt
		t.Run(string(tt.state), func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, domain.AvailableBookingActions(tt.state))
		})
	}
}

func TestBooking_CanComplete(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b := &domain.Booking{
		Start: now.Add(-2 * time.Hour),
		End:   now.Add(-time.Hour),
		State: domain.BookingStateConfirmed,
	}

	require.True(t, b.CanComplete(now))

	// the window has not ended yet
	b.End = now.Add(time.Hour)
	require.False(t, b.CanComplete(now))

	// exactly at the boundary does not count as ended
	b.End = now
	require.False(t, b.CanComplete(now))
}

func TestBooking_CanMove(t *testing.T) {
	t.Parallel()

	for state, want := range map[domain.BookingState]bool{
		domain.BookingStateEnquiry:     true,
		domain.BookingStatePreliminary: true,
		domain.BookingStateConfirmed:   true,
		domain.BookingStateCanceled:    false,
		domain.BookingStateCompleted:   false,
	} {
		b := &domain.Booking{State: state}
		require.Equal(t, want, b.CanMove(), "state %s", state)
	}
}

func TestBooking_ValidatePetOwnership(t *testing.T) {
	t.Parallel()

	pets := []*domain.Pet{
		{ID: 1, Name: "Rex", CustomerID: 10},
		{ID: 2, Name: "Bella", CustomerID: 10},
		{ID: 3, Name: "Milo", CustomerID: 20},
	}

	b := &domain.Booking{CustomerID: 10, PetIDs: []int64{1, 2}}
	require.NoError(t, b.ValidatePetOwnership(pets))

	// pet belongs to another customer
	b = &domain.Booking{CustomerID: 10, PetIDs: []int64{1, 3}}
	require.ErrorIs(t, b.ValidatePetOwnership(pets), domain.ErrPetOwnership)

	// unknown pet
	b = &domain.Booking{CustomerID: 10, PetIDs: []int64{99}}
	require.ErrorIs(t, b.ValidatePetOwnership(pets), domain.ErrPetOwnership)
}

func TestBooking_BookingCharges(t *testing.T) {
	t.Parallel()

	mustMoney := func(s string) domain.Money {
		return domain.NewMoney(decimal.RequireFromString(s), "GBP")
	}

	t.Run("flat rate produces a single charge", func(t *testing.T) {
		t.Parallel()

		b := &domain.Booking{
			ID:         7,
			CustomerID: 10,
			Cost:       mustMoney("25.00"),
		}

		charges := b.BookingCharges("Dog Walk", []string{"Rex", "Bella"})
		require.Len(t, charges, 1)
		require.Equal(t, "Dog Walk for Rex, Bella", charges[0].Name)
		require.True(t, charges[0].Line.Amount.Equal(decimal.RequireFromString("25.00")))
		require.Equal(t, domain.ChargeStateUnpaid, charges[0].State)
		require.NotNil(t, charges[0].BookingID)
		require.Equal(t, int64(7), *charges[0].BookingID)
	})

	t.Run("per-additional pricing charges each pet", func(t *testing.T) {
		t.Parallel()

		additional := mustMoney("10.00")
		b := &domain.Booking{
			ID:                7,
			CustomerID:        10,
			Cost:              mustMoney("25.00"),
			CostPerAdditional: &additional,
		}

		charges := b.BookingCharges("Dog Walk", []string{"Rex", "Bella", "Milo"})
		require.Len(t, charges, 3)
		require.Equal(t, "Dog Walk for Rex", charges[0].Name)
		require.True(t, charges[0].Line.Amount.Equal(decimal.RequireFromString("25.00")))
		require.True(t, charges[1].Line.Amount.Equal(decimal.RequireFromString("10.00")))
		require.True(t, charges[2].Line.Amount.Equal(decimal.RequireFromString("10.00")))
	})

	t.Run("no pet names falls back to a single charge", func(t *testing.T) {
		t.Parallel()

		additional := mustMoney("10.00")
		b := &domain.Booking{
			ID:                7,
			CustomerID:        10,
			Cost:              mustMoney("25.00"),
			CostPerAdditional: &additional,
		}

		charges := b.BookingCharges("Dog Walk", nil)
		require.Len(t, charges, 1)
		require.Equal(t, "Dog Walk", charges[0].Name)
	})

	t.Run("long multi-byte name is capped on a rune boundary", func(t *testing.T) {
		t.Parallel()

		b := &domain.Booking{
			ID:         7,
			CustomerID: 10,
			Cost:       mustMoney("25.00"),
		}

		service := strings.Repeat("Ё", domain.MaxChargeNameLength+50)
		charges := b.BookingCharges(service, []string{"Рекс"})
		require.Len(t, charges, 1)
		require.True(t, utf8.ValidString(charges[0].Name))
		require.Equal(t, domain.MaxChargeNameLength, utf8.RuneCountInString(charges[0].Name))
	})
}
