package create_booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cerberus-crm/booking-service/internal/domain"
	customerRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/customer"
	serviceRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/service"
	"github.com/cerberus-crm/booking-service/internal/usecase/create_booking"
)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type passTxManager struct{}

func (passTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeBookingRepo struct {
	created *domain.Booking
}

func (r *fakeBookingRepo) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	b.ID = 1
	r.created = b
	return b, nil
}

type fakeServiceRepo struct {
	services map[int64]*domain.Service
}

func (r *fakeServiceRepo) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, serviceRepo.ErrServiceNotFound
	}
	return svc, nil
}

type fakeCustomerRepo struct {
	customers map[int64]*domain.Customer
	pets      map[int64]*domain.Pet
}

func (r *fakeCustomerRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, customerRepo.ErrCustomerNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) GetPetsByIDs(ctx context.Context, ids []int64) ([]*domain.Pet, error) {
	out := make([]*domain.Pet, 0, len(ids))
	for _, id := range ids {
		p, ok := r.pets[id]
		if !ok {
			return nil, customerRepo.ErrPetNotFound
		}
		out = append(out, p)
	}
	return out, nil
}

type fakeAllocator struct {
	slot *domain.Slot
	err  error

	gotStart, gotEnd time.Time
	gotPetCount      int
}

func (a *fakeAllocator) Allocate(ctx context.Context, start, end time.Time, service *domain.Service, customerID int64, petCount int, excludeBookingID int64) (*domain.Slot, error) {
	a.gotStart, a.gotEnd = start, end
	a.gotPetCount = petCount
	if a.err != nil {
		return nil, a.err
	}
	return a.slot, nil
}

func fixtures() (*fakeBookingRepo, *fakeServiceRepo, *fakeCustomerRepo, *fakeAllocator) {
	gbp := func(s string) domain.Money {
		return domain.NewMoney(decimal.RequireFromString(s), "GBP")
	}
	additional := gbp("10.00")

	bookings := &fakeBookingRepo{}
	services := &fakeServiceRepo{services: map[int64]*domain.Service{
		1: {
			ID: 1, Name: "Dog Walk",
			Length: time.Hour, BookedLength: 2 * time.Hour,
			Cost: gbp("25.00"), CostPerAdditional: &additional,
			MaxPets: 4, MaxCustomers: 2,
		},
	}}
	customers := &fakeCustomerRepo{
		customers: map[int64]*domain.Customer{10: {ID: 10, Name: "Alice", InvoiceEmail: "alice@example.com"}},
		pets: map[int64]*domain.Pet{
			1: {ID: 1, Name: "Rex", CustomerID: 10},
			2: {ID: 2, Name: "Bella", CustomerID: 10},
			3: {ID: 3, Name: "Milo", CustomerID: 20},
		},
	}
	allocator := &fakeAllocator{slot: &domain.Slot{ID: 100}}

	return bookings, services, customers, allocator
}

func TestUseCase_Execute(t *testing.T) {
	t.Parallel()

	bookings, services, customers, allocator := fixtures()
	uc := create_booking.NewUseCase(bookings, services, customers, allocator, passTxManager{}, nopLogger{})

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	resp, err := uc.Execute(context.Background(), &create_booking.Request{
		CustomerID: 10,
		ServiceID:  1,
		PetIDs:     []int64{1, 2},
		Start:      start,
	})
	require.NoError(t, err)

	require.Equal(t, int64(1), resp.ID)
	require.Equal(t, "preliminary", resp.State)
	require.NotNil(t, resp.SlotID)
	require.Equal(t, int64(100), *resp.SlotID)

	// конец окна по умолчанию = start + booked_length услуги
	require.True(t, resp.End.Equal(start.Add(2*time.Hour)))
	require.True(t, allocator.gotEnd.Equal(start.Add(2*time.Hour)))
	require.Equal(t, 2, allocator.gotPetCount)

	// снимок цен услуги на момент бронирования
	require.Equal(t, "25", resp.Cost)
	require.Equal(t, "GBP", resp.Currency)
	require.NotNil(t, resp.CostPerAdditional)
	require.Equal(t, "10", *resp.CostPerAdditional)
}

func TestUseCase_Execute_ExplicitEndAndState(t *testing.T) {
	t.Parallel()

	bookings, services, customers, allocator := fixtures()
	uc := create_booking.NewUseCase(bookings, services, customers, allocator, passTxManager{}, nopLogger{})

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	state := "enquiry"

	resp, err := uc.Execute(context.Background(), &create_booking.Request{
		CustomerID: 10,
		ServiceID:  1,
		PetIDs:     []int64{1},
		Start:      start,
		End:        &end,
		State:      &state,
	})
	require.NoError(t, err)
	require.Equal(t, "enquiry", resp.State)
	require.True(t, resp.End.Equal(end))
}

func TestUseCase_Execute_Validation(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	badState := "confirmed"
	endBeforeStart := start.Add(-time.Hour)

	for _, tt := range []struct {
		name string
		req  *create_booking.Request
	}{
		{
			name: "no pets",
			req:  &create_booking.Request{CustomerID: 10, ServiceID: 1, Start: start},
		},
		{
			name: "duplicate pets",
			req:  &create_booking.Request{CustomerID: 10, ServiceID: 1, PetIDs: []int64{1, 1}, Start: start},
		},
		{
			name: "zero start",
			req:  &create_booking.Request{CustomerID: 10, ServiceID: 1, PetIDs: []int64{1}},
		},
		{
			name: "end before start",
			req:  &create_booking.Request{CustomerID: 10, ServiceID: 1, PetIDs: []int64{1}, Start: start, End: &endBeforeStart},
		},
		{
			name: "illegal initial state",
			req:  &create_booking.Request{CustomerID: 10, ServiceID: 1, PetIDs: []int64{1}, Start: start, State: &badState},
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			bookings, services, customers, allocator := fixtures()
			uc := create_booking.NewUseCase(bookings, services, customers, allocator, passTxManager{}, nopLogger{})

			_, err := uc.Execute(context.Background(), tt.req)
			require.ErrorIs(t, err, create_booking.ErrInvalidInput)
		})
	}
}

func TestUseCase_Execute_NotFound(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	bookings, services, customers, allocator := fixtures()
	uc := create_booking.NewUseCase(bookings, services, customers, allocator, passTxManager{}, nopLogger{})

	_, err := uc.Execute(context.Background(), &create_booking.Request{
		CustomerID: 10, ServiceID: 404, PetIDs: []int64{1}, Start: start,
	})
	require.ErrorIs(t, err, create_booking.ErrServiceNotFound)

	_, err = uc.Execute(context.Background(), &create_booking.Request{
		CustomerID: 404, ServiceID: 1, PetIDs: []int64{1}, Start: start,
	})
	require.ErrorIs(t, err, create_booking.ErrCustomerNotFound)

	_, err = uc.Execute(context.Background(), &create_booking.Request{
		CustomerID: 10, ServiceID: 1, PetIDs: []int64{404}, Start: start,
	})
	require.ErrorIs(t, err, create_booking.ErrPetNotFound)
}

func TestUseCase_Execute_PetOwnership(t *testing.T) {
	t.Parallel()

	bookings, services, customers, allocator := fixtures()
	uc := create_booking.NewUseCase(bookings, services, customers, allocator, passTxManager{}, nopLogger{})

	// питомец id=3 принадлежит другому клиенту
	_, err := uc.Execute(context.Background(), &create_booking.Request{
		CustomerID: 10,
		ServiceID:  1,
		PetIDs:     []int64{1, 3},
		Start:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, domain.ErrPetOwnership)
	require.Nil(t, bookings.created)
}

func TestUseCase_Execute_AllocationRejected(t *testing.T) {
	t.Parallel()

	bookings, services, customers, allocator := fixtures()
	allocator.err = domain.ErrMaxPets
	uc := create_booking.NewUseCase(bookings, services, customers, allocator, passTxManager{}, nopLogger{})

	_, err := uc.Execute(context.Background(), &create_booking.Request{
		CustomerID: 10,
		ServiceID:  1,
		PetIDs:     []int64{1},
		Start:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, domain.ErrMaxPets)
	require.Nil(t, bookings.created)
}
