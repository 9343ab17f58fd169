package transition_booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cerberus-crm/booking-service/internal/domain"
	bookingRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/booking"
	"github.com/cerberus-crm/booking-service/internal/usecase/transition_booking"
)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type passTxManager struct{}

func (passTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) UpdateState(ctx context.Context, id int64, state domain.BookingState) error {
	r.bookings[id].State = state
	return r.checkConsistency(id)
}

func (r *fakeBookingRepo) UpdateStateAndSlot(ctx context.Context, id int64, state domain.BookingState, slotID *int64) error {
	b := r.bookings[id]
	b.State = state
	b.SlotID = slotID
	return r.checkConsistency(id)
}

// checkConsistency повторяет CHECK-ограничение схемы: оно проверяется
// Postgres после каждого UPDATE, а не в конце транзакции
func (r *fakeBookingRepo) checkConsistency(id int64) error {
	b := r.bookings[id]
	if b.State == domain.BookingStateCanceled && b.SlotID != nil {
		return errors.New("pq: check constraint violation: canceled booking with slot")
	}
	if b.State != domain.BookingStateCanceled && b.SlotID == nil {
		return errors.New("pq: check constraint violation: active booking without slot")
	}
	return nil
}

type fakeChargeRepo struct {
	created []*domain.Charge
	nextID  int64
}

func (r *fakeChargeRepo) Create(ctx context.Context, c *domain.Charge) (*domain.Charge, error) {
	r.nextID++
	c.ID = r.nextID
	r.created = append(r.created, c)
	return c, nil
}

type fakeServiceRepo struct {
	service *domain.Service
}

func (r *fakeServiceRepo) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	return r.service, nil
}

type fakeCustomerRepo struct {
	pets map[int64]*domain.Pet
}

func (r *fakeCustomerRepo) GetPetsByIDs(ctx context.Context, ids []int64) ([]*domain.Pet, error) {
	out := make([]*domain.Pet, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.pets[id])
	}
	return out, nil
}

type fakeAllocator struct {
	slot        *domain.Slot
	allocateErr error

	released []int64
}

func (a *fakeAllocator) Allocate(ctx context.Context, start, end time.Time, service *domain.Service, customerID int64, petCount int, excludeBookingID int64) (*domain.Slot, error) {
	if a.allocateErr != nil {
		return nil, a.allocateErr
	}
	return a.slot, nil
}

func (a *fakeAllocator) ReleaseIfEmpty(ctx context.Context, slotID int64) error {
	a.released = append(a.released, slotID)
	return nil
}

type fixture struct {
	bookings  *fakeBookingRepo
	charges   *fakeChargeRepo
	allocator *fakeAllocator
	uc        *transition_booking.UseCase
}

func newFixture(now time.Time) *fixture {
	gbp := func(s string) domain.Money {
		return domain.NewMoney(decimal.RequireFromString(s), "GBP")
	}
	additional := gbp("10.00")

	bookings := &fakeBookingRepo{bookings: make(map[int64]*domain.Booking)}
	charges := &fakeChargeRepo{}
	services := &fakeServiceRepo{service: &domain.Service{
		ID: 1, Name: "Dog Walk", MaxPets: 4, MaxCustomers: 2,
		Cost: gbp("25.00"), CostPerAdditional: &additional,
	}}
	customers := &fakeCustomerRepo{pets: map[int64]*domain.Pet{
		1: {ID: 1, Name: "Rex", CustomerID: 10},
		2: {ID: 2, Name: "Bella", CustomerID: 10},
	}}
	allocator := &fakeAllocator{slot: &domain.Slot{ID: 200}}

	uc := transition_booking.NewUseCase(bookings, charges, services, customers, allocator, passTxManager{}, nopLogger{}).
		WithTimeProvider(fixedTime{now: now})

	return &fixture{bookings: bookings, charges: charges, allocator: allocator, uc: uc}
}

func seedBooking(f *fixture, state domain.BookingState, start, end time.Time) *domain.Booking {
	gbp := func(s string) domain.Money {
		return domain.NewMoney(decimal.RequireFromString(s), "GBP")
	}
	additional := gbp("10.00")
	slotID := int64(100)

	b := &domain.Booking{
		ID: 1, CustomerID: 10, ServiceID: 1,
		PetIDs: []int64{1, 2},
		Start:  start, End: end, State: state,
		Cost: gbp("25.00"), CostPerAdditional: &additional,
	}
	if state != domain.BookingStateCanceled {
		b.SlotID = &slotID
	}
	f.bookings.bookings[b.ID] = b
	return b
}

func TestUseCase_Execute_Confirm(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(now)
	seedBooking(f, domain.BookingStatePreliminary, now.Add(time.Hour), now.Add(2*time.Hour))

	resp, err := f.uc.Execute(context.Background(), &transition_booking.Request{BookingID: 1, Action: "confirm"})
	require.NoError(t, err)
	require.Equal(t, "confirmed", resp.State)
	require.Equal(t, []string{"complete", "cancel"}, resp.AvailableActions)
	require.Empty(t, resp.GeneratedChargeIDs)
}

func TestUseCase_Execute_IllegalTransition(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(now)
	seedBooking(f, domain.BookingStateEnquiry, now.Add(time.Hour), now.Add(2*time.Hour))

	_, err := f.uc.Execute(context.Background(), &transition_booking.Request{BookingID: 1, Action: "confirm"})
	require.ErrorIs(t, err, domain.ErrTransitionNotAllowed)
}

func TestUseCase_Execute_UnknownAction(t *testing.T) {
	t.Parallel()

	f := newFixture(time.Now())

	_, err := f.uc.Execute(context.Background(), &transition_booking.Request{BookingID: 1, Action: "explode"})
	require.ErrorIs(t, err, transition_booking.ErrUnknownAction)
}

func TestUseCase_Execute_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(time.Now())

	_, err := f.uc.Execute(context.Background(), &transition_booking.Request{BookingID: 404, Action: "cancel"})
	require.ErrorIs(t, err, transition_booking.ErrBookingNotFound)
}

func TestUseCase_Execute_Cancel(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(now)
	seedBooking(f, domain.BookingStateConfirmed, now.Add(time.Hour), now.Add(2*time.Hour))

	resp, err := f.uc.Execute(context.Background(), &transition_booking.Request{BookingID: 1, Action: "cancel"})
	require.NoError(t, err)
	require.Equal(t, "canceled", resp.State)

	// бронирование отвязано от слота, слот отдан сборщику
	require.Nil(t, resp.SlotID)
	require.Nil(t, f.bookings.bookings[1].SlotID)
	require.Equal(t, []int64{100}, f.allocator.released)
}

func TestUseCase_Execute_Reopen(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(now)
	seedBooking(f, domain.BookingStateCanceled, now.Add(time.Hour), now.Add(2*time.Hour))

	resp, err := f.uc.Execute(context.Background(), &transition_booking.Request{BookingID: 1, Action: "reopen"})
	require.NoError(t, err)
	require.Equal(t, "enquiry", resp.State)
	require.NotNil(t, resp.SlotID)
	require.Equal(t, int64(200), *resp.SlotID)
}

func TestUseCase_Execute_Reopen_WindowTaken(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(now)
	seedBooking(f, domain.BookingStateCanceled, now.Add(time.Hour), now.Add(2*time.Hour))
	f.allocator.allocateErr = domain.ErrSlotOverlaps

	_, err := f.uc.Execute(context.Background(), &transition_booking.Request{BookingID: 1, Action: "reopen"})
	require.ErrorIs(t, err, domain.ErrSlotOverlaps)
	require.Equal(t, domain.BookingStateCanceled, f.bookings.bookings[1].State)
}

func TestUseCase_Execute_Complete(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(now)
	seedBooking(f, domain.BookingStateConfirmed, now.Add(-2*time.Hour), now.Add(-time.Hour))

	resp, err := f.uc.Execute(context.Background(), &transition_booking.Request{BookingID: 1, Action: "complete"})
	require.NoError(t, err)
	require.Equal(t, "completed", resp.State)
	require.Empty(t, resp.AvailableActions)

	// тариф cost_per_additional: отдельное начисление на каждого питомца
	require.Equal(t, []int64{1, 2}, resp.GeneratedChargeIDs)
	require.Len(t, f.charges.created, 2)
	require.Equal(t, "Dog Walk for Rex", f.charges.created[0].Name)
	require.True(t, f.charges.created[0].Line.Amount.Equal(decimal.RequireFromString("25.00")))
	require.Equal(t, "Dog Walk for Bella", f.charges.created[1].Name)
	require.True(t, f.charges.created[1].Line.Amount.Equal(decimal.RequireFromString("10.00")))

	for _, c := range f.charges.created {
		require.Equal(t, domain.ChargeStateUnpaid, c.State)
		require.NotNil(t, c.BookingID)
		require.Equal(t, int64(1), *c.BookingID)
	}
}

func TestUseCase_Execute_Complete_BeforeEnd(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(now)
	seedBooking(f, domain.BookingStateConfirmed, now.Add(-time.Hour), now.Add(time.Hour))

	_, err := f.uc.Execute(context.Background(), &transition_booking.Request{BookingID: 1, Action: "complete"})
	require.ErrorIs(t, err, transition_booking.ErrBookingNotEnded)
	require.Empty(t, f.charges.created)
	require.Equal(t, domain.BookingStateConfirmed, f.bookings.bookings[1].State)
}
