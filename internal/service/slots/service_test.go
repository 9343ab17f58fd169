package slots_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cerberus-crm/booking-service/internal/domain"
	slotRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/slot"
	"github.com/cerberus-crm/booking-service/internal/service/slots"
)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

// fakeSlotRepo хранит слоты в памяти, воспроизводя семантику репозитория:
// GetByWindow по точному окну, ErrDuplicateWindow при повторной вставке
type fakeSlotRepo struct {
	slots  map[int64]*domain.Slot
	nextID int64

	// createHook позволяет вмешаться в Create для имитации гонки
	createHook func()
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: make(map[int64]*domain.Slot), nextID: 1}
}

func (r *fakeSlotRepo) Create(ctx context.Context, s *domain.Slot) (*domain.Slot, error) {
	if r.createHook != nil {
		r.createHook()
	}
	for _, existing := range r.slots {
		if existing.Start.Equal(s.Start) && existing.End.Equal(s.End) {
			return nil, slotRepo.ErrDuplicateWindow
		}
	}
	s.ID = r.nextID
	r.nextID++
	r.slots[s.ID] = &domain.Slot{ID: s.ID, Start: s.Start, End: s.End}
	return s, nil
}

func (r *fakeSlotRepo) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	s, ok := r.slots[id]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSlotRepo) GetByWindow(ctx context.Context, start, end time.Time) (*domain.Slot, error) {
	for _, s := range r.slots {
		if s.Start.Equal(start) && s.End.Equal(end) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, slotRepo.ErrSlotNotFound
}

func (r *fakeSlotRepo) GetOverlapping(ctx context.Context, start, end time.Time, excludeID int64) ([]*domain.Slot, error) {
	var out []*domain.Slot
	for _, s := range r.slots {
		if s.ID == excludeID {
			continue
		}
		if domain.WindowsOverlap(start, end, s.Start, s.End) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) UpdateWindow(ctx context.Context, id int64, start, end time.Time) error {
	s, ok := r.slots[id]
	if !ok {
		return slotRepo.ErrSlotNotFound
	}
	// уникальный индекс окна действует и при переносе
	for _, other := range r.slots {
		if other.ID != id && other.Start.Equal(start) && other.End.Equal(end) {
			return slotRepo.ErrDuplicateWindow
		}
	}
	s.Start = start
	s.End = end
	return nil
}

func (r *fakeSlotRepo) DeleteIfEmpty(ctx context.Context, id int64) (bool, error) {
	// fakeBookingRepo решает занятость; фейк считает слот пустым,
	// если его нет в occupied
	if _, ok := r.slots[id]; !ok {
		return false, nil
	}
	delete(r.slots, id)
	return true, nil
}

func (r *fakeSlotRepo) DeleteEmpty(ctx context.Context) (int64, error) {
	count := int64(len(r.slots))
	r.slots = make(map[int64]*domain.Slot)
	return count, nil
}

type fakeBookingRepo struct {
	bySlot map[int64][]*domain.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bySlot: make(map[int64][]*domain.Booking)}
}

func (r *fakeBookingRepo) add(slotID int64, b *domain.Booking) {
	b.SlotID = &slotID
	r.bySlot[slotID] = append(r.bySlot[slotID], b)
}

func (r *fakeBookingRepo) GetBySlotID(ctx context.Context, slotID int64, activeOnly bool) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range r.bySlot[slotID] {
		if activeOnly && !b.IsActive() {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *fakeBookingRepo) CountBySlotIDs(ctx context.Context, slotIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int)
	for _, id := range slotIDs {
		for _, b := range r.bySlot[id] {
			if b.IsActive() {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (r *fakeBookingRepo) UpdateWindow(ctx context.Context, id int64, start, end time.Time) error {
	for _, bookings := range r.bySlot {
		for _, b := range bookings {
			if b.ID == id {
				b.Start = start
				b.End = end
				return nil
			}
		}
	}
	return nil
}

func testService() *domain.Service {
	return &domain.Service{ID: 1, Name: "Dog Walk", MaxPets: 4, MaxCustomers: 2}
}

func window(minutes int) (time.Time, time.Time) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
	return start, start.Add(time.Hour)
}

func TestAllocator_Allocate_FindOrCreate(t *testing.T) {
	t.Parallel()

	slotsRepo := newFakeSlotRepo()
	bookingsRepo := newFakeBookingRepo()
	allocator := slots.NewAllocator(slotsRepo, bookingsRepo, nopLogger{})

	ctx := context.Background()
	start, end := window(0)

	first, err := allocator.Allocate(ctx, start, end, testService(), 10, 1, 0)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	// второй запрос на то же окно получает тот же слот
	second, err := allocator.Allocate(ctx, start, end, testService(), 20, 1, 0)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, slotsRepo.slots, 1)
}

func TestAllocator_Allocate_DuplicateWindowRace(t *testing.T) {
	t.Parallel()

	slotsRepo := newFakeSlotRepo()
	bookingsRepo := newFakeBookingRepo()
	allocator := slots.NewAllocator(slotsRepo, bookingsRepo, nopLogger{})

	ctx := context.Background()
	start, end := window(0)

	// конкурент вставляет то же окно между выборкой и вставкой
	slotsRepo.createHook = func() {
		slotsRepo.createHook = nil
		slotsRepo.slots[99] = &domain.Slot{ID: 99, Start: start, End: end}
	}

	slot, err := allocator.Allocate(ctx, start, end, testService(), 10, 1, 0)
	require.NoError(t, err)
	require.Equal(t, int64(99), slot.ID)
}

func TestAllocator_Allocate_CapacityLimits(t *testing.T) {
	t.Parallel()

	slotsRepo := newFakeSlotRepo()
	bookingsRepo := newFakeBookingRepo()
	allocator := slots.NewAllocator(slotsRepo, bookingsRepo, nopLogger{})

	ctx := context.Background()
	start, end := window(0)

	slot, err := allocator.Allocate(ctx, start, end, testService(), 10, 2, 0)
	require.NoError(t, err)
	bookingsRepo.add(slot.ID, &domain.Booking{
		ID: 1, CustomerID: 10, ServiceID: 1, PetIDs: []int64{1, 2},
		Start: start, End: end, State: domain.BookingStateConfirmed,
	})

	// еще два питомца другого клиента помещаются
	_, err = allocator.Allocate(ctx, start, end, testService(), 20, 2, 0)
	require.NoError(t, err)
	bookingsRepo.add(slot.ID, &domain.Booking{
		ID: 2, CustomerID: 20, ServiceID: 1, PetIDs: []int64{3, 4},
		Start: start, End: end, State: domain.BookingStateConfirmed,
	})

	// пятый питомец не помещается
	_, err = allocator.Allocate(ctx, start, end, testService(), 10, 1, 0)
	require.ErrorIs(t, err, domain.ErrMaxPets)

	// третий клиент не помещается
	otherService := testService()
	otherService.MaxPets = 10
	_, err = allocator.Allocate(ctx, start, end, otherService, 30, 1, 0)
	require.ErrorIs(t, err, domain.ErrMaxCustomers)

	// отмененное бронирование не занимает место
	bookingsRepo.bySlot[slot.ID][1].State = domain.BookingStateCanceled
	_, err = allocator.Allocate(ctx, start, end, testService(), 10, 2, 0)
	require.NoError(t, err)
}

func TestAllocator_Allocate_OverlapRejected(t *testing.T) {
	t.Parallel()

	slotsRepo := newFakeSlotRepo()
	bookingsRepo := newFakeBookingRepo()
	allocator := slots.NewAllocator(slotsRepo, bookingsRepo, nopLogger{})

	ctx := context.Background()
	start, end := window(0)

	occupied, err := allocator.Allocate(ctx, start, end, testService(), 10, 1, 0)
	require.NoError(t, err)
	bookingsRepo.add(occupied.ID, &domain.Booking{
		ID: 1, CustomerID: 10, ServiceID: 1, PetIDs: []int64{1},
		Start: start, End: end, State: domain.BookingStateConfirmed,
	})

	// окно со сдвигом на полчаса пересекается с занятым слотом
	shiftedStart, shiftedEnd := window(30)
	_, err = allocator.Allocate(ctx, shiftedStart, shiftedEnd, testService(), 20, 1, 0)
	require.ErrorIs(t, err, domain.ErrSlotOverlaps)

	// соседнее окно встык не пересекается
	nextStart, nextEnd := window(60)
	_, err = allocator.Allocate(ctx, nextStart, nextEnd, testService(), 20, 1, 0)
	require.NoError(t, err)
}

func TestAllocator_Allocate_EmptyOverlappingSlotTolerated(t *testing.T) {
	t.Parallel()

	slotsRepo := newFakeSlotRepo()
	bookingsRepo := newFakeBookingRepo()
	allocator := slots.NewAllocator(slotsRepo, bookingsRepo, nopLogger{})

	ctx := context.Background()
	start, end := window(0)

	// пустой слот остался от отмененного бронирования
	_, err := allocator.Allocate(ctx, start, end, testService(), 10, 1, 0)
	require.NoError(t, err)

	shiftedStart, shiftedEnd := window(30)
	_, err = allocator.Allocate(ctx, shiftedStart, shiftedEnd, testService(), 20, 1, 0)
	require.NoError(t, err)
}

func TestAllocator_Allocate_ExcludedBookingDoesNotBlock(t *testing.T) {
	t.Parallel()

	slotsRepo := newFakeSlotRepo()
	bookingsRepo := newFakeBookingRepo()
	allocator := slots.NewAllocator(slotsRepo, bookingsRepo, nopLogger{})

	ctx := context.Background()
	start, end := window(0)

	occupied, err := allocator.Allocate(ctx, start, end, testService(), 10, 1, 0)
	require.NoError(t, err)
	bookingsRepo.add(occupied.ID, &domain.Booking{
		ID: 7, CustomerID: 10, ServiceID: 1, PetIDs: []int64{1},
		Start: start, End: end, State: domain.BookingStateConfirmed,
	})

	// переносимое бронирование само занимает пересекающийся слот
	shiftedStart, shiftedEnd := window(30)
	_, err = allocator.Allocate(ctx, shiftedStart, shiftedEnd, testService(), 10, 1, 7)
	require.NoError(t, err)
}

func TestAllocator_MoveSlot(t *testing.T) {
	t.Parallel()

	slotsRepo := newFakeSlotRepo()
	bookingsRepo := newFakeBookingRepo()
	allocator := slots.NewAllocator(slotsRepo, bookingsRepo, nopLogger{})

	ctx := context.Background()
	start, end := window(0)

	slot, err := allocator.Allocate(ctx, start, end, testService(), 10, 1, 0)
	require.NoError(t, err)
	bookingsRepo.add(slot.ID, &domain.Booking{
		ID: 1, CustomerID: 10, ServiceID: 1, PetIDs: []int64{1},
		Start: start, End: end, State: domain.BookingStateConfirmed,
	})

	newStart, _ := window(180)
	moved, err := allocator.MoveSlot(ctx, slot.ID, newStart, nil)
	require.NoError(t, err)
	require.True(t, moved.Start.Equal(newStart))
	// длительность сохраняется, если конец не задан
	require.Equal(t, time.Hour, moved.Duration())

	// окно бронирования переносится вместе со слотом
	bookings, err := bookingsRepo.GetBySlotID(ctx, slot.ID, true)
	require.NoError(t, err)
	require.True(t, bookings[0].Start.Equal(newStart))
}

func TestAllocator_MoveSlot_NonMoveableBooking(t *testing.T) {
	t.Parallel()

	slotsRepo := newFakeSlotRepo()
	bookingsRepo := newFakeBookingRepo()
	allocator := slots.NewAllocator(slotsRepo, bookingsRepo, nopLogger{})

	ctx := context.Background()
	start, end := window(0)

	slot, err := allocator.Allocate(ctx, start, end, testService(), 10, 1, 0)
	require.NoError(t, err)
	bookingsRepo.add(slot.ID, &domain.Booking{
		ID: 1, CustomerID: 10, ServiceID: 1, PetIDs: []int64{1},
		Start: start, End: end, State: domain.BookingStateCompleted,
	})

	newStart, _ := window(180)
	_, err = allocator.MoveSlot(ctx, slot.ID, newStart, nil)
	require.ErrorIs(t, err, domain.ErrNotMoveable)
}

func TestAllocator_MoveSlot_WindowTaken(t *testing.T) {
	t.Parallel()

	slotsRepo := newFakeSlotRepo()
	bookingsRepo := newFakeBookingRepo()
	allocator := slots.NewAllocator(slotsRepo, bookingsRepo, nopLogger{})

	ctx := context.Background()
	start, end := window(0)

	// пустой слот на целевом окне проходит проверку пересечений,
	// но уникальный индекс окна отклоняет перенос
	_, err := allocator.Allocate(ctx, start, end, testService(), 10, 1, 0)
	require.NoError(t, err)

	otherStart, otherEnd := window(180)
	other, err := allocator.Allocate(ctx, otherStart, otherEnd, testService(), 10, 1, 0)
	require.NoError(t, err)

	_, err = allocator.MoveSlot(ctx, other.ID, start, nil)
	require.ErrorIs(t, err, domain.ErrSlotOverlaps)

	// слот остается на прежнем окне
	kept, err := slotsRepo.GetByID(ctx, other.ID)
	require.NoError(t, err)
	require.True(t, kept.Start.Equal(otherStart))
	require.True(t, kept.End.Equal(otherEnd))
}

func TestAllocator_MoveSlot_NotFound(t *testing.T) {
	t.Parallel()

	allocator := slots.NewAllocator(newFakeSlotRepo(), newFakeBookingRepo(), nopLogger{})

	newStart, _ := window(0)
	_, err := allocator.MoveSlot(context.Background(), 404, newStart, nil)
	require.ErrorIs(t, err, slots.ErrSlotNotFound)
}
