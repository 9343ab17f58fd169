package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
	slotRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/slot"
)

// Allocator распределяет бронирования по слотам
// Все методы должны вызываться внутри сериализуемой транзакции:
// аллокатор полагается на блокировки строк (FOR UPDATE) для защиты
// от конкурентного заполнения одного окна
type Allocator struct {
	slotRepo    SlotRepository
	bookingRepo BookingRepository
	logger      Logger
}

// NewAllocator создает новый экземпляр аллокатора слотов
func NewAllocator(slotRepo SlotRepository, bookingRepo BookingRepository, logger Logger) *Allocator {
	return &Allocator{
		slotRepo:    slotRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Allocate находит или создает слот с окном [start, end) и проверяет,
// что бронирование в него помещается: услуга совпадает, лимиты питомцев
// и клиентов не превышены, окно не пересекается с другими занятыми слотами.
//
// excludeBookingID исключает бронирование из проверок вместимости и
// пересечений - используется при переносе существующего бронирования
// (0 = ничего не исключать)
func (a *Allocator) Allocate(
	ctx context.Context,
	start, end time.Time,
	service *domain.Service,
	customerID int64,
	petCount int,
	excludeBookingID int64,
) (*domain.Slot, error) {
	slot, err := a.findOrCreate(ctx, start, end)
	if err != nil {
		return nil, err
	}

	bookings, err := a.bookingRepo.GetBySlotID(ctx, slot.ID, true)
	if err != nil {
		a.logger.Error("Allocate: failed to load bookings for slot id=%d: %v", slot.ID, err)
		return nil, fmt.Errorf("%w: Allocate - load slot bookings: %v", ErrInternal, err)
	}

	occupancy := domain.SlotOccupancy{
		Slot:     slot,
		Bookings: withoutBooking(bookings, excludeBookingID),
	}
	if err := occupancy.ValidateBooking(service, customerID, petCount); err != nil {
		a.logger.Warn("Allocate: slot id=%d rejects booking for customer=%d: %v", slot.ID, customerID, err)
		return nil, err
	}

	if err := a.checkOverlaps(ctx, start, end, slot.ID, excludeBookingID); err != nil {
		return nil, err
	}

	return slot, nil
}

// MoveSlot переносит слот вместе со всеми его бронированиями на новое окно.
// Перенос возможен только если все бронирования слота переносимы
// (в состояниях enquiry/preliminary/confirmed).
// Если newEnd == nil, длительность окна сохраняется
func (a *Allocator) MoveSlot(ctx context.Context, slotID int64, newStart time.Time, newEnd *time.Time) (*domain.Slot, error) {
	slot, err := a.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		a.logger.Error("MoveSlot: failed to load slot id=%d: %v", slotID, err)
		return nil, fmt.Errorf("%w: MoveSlot - load slot: %v", ErrInternal, err)
	}

	end := newStart.Add(slot.End.Sub(slot.Start))
	if newEnd != nil {
		end = *newEnd
	}

	bookings, err := a.bookingRepo.GetBySlotID(ctx, slot.ID, true)
	if err != nil {
		a.logger.Error("MoveSlot: failed to load bookings for slot id=%d: %v", slot.ID, err)
		return nil, fmt.Errorf("%w: MoveSlot - load slot bookings: %v", ErrInternal, err)
	}

	occupancy := domain.SlotOccupancy{Slot: slot, Bookings: bookings}
	if !occupancy.CanMove() {
		a.logger.Warn("MoveSlot: slot id=%d has non-moveable bookings", slot.ID)
		return nil, domain.ErrNotMoveable
	}

	if err := a.checkOverlaps(ctx, newStart, end, slot.ID, 0); err != nil {
		return nil, err
	}

	if err := a.slotRepo.UpdateWindow(ctx, slot.ID, newStart, end); err != nil {
		// Целевое окно уже принадлежит другому слоту
		if errors.Is(err, slotRepo.ErrDuplicateWindow) {
			a.logger.Warn("MoveSlot: slot id=%d window [%s, %s) already taken",
				slot.ID, newStart.Format(time.RFC3339), end.Format(time.RFC3339))
			return nil, domain.ErrSlotOverlaps
		}
		a.logger.Error("MoveSlot: failed to update slot id=%d window: %v", slot.ID, err)
		return nil, fmt.Errorf("%w: MoveSlot - update slot window: %v", ErrInternal, err)
	}
	for _, b := range bookings {
		if err := a.bookingRepo.UpdateWindow(ctx, b.ID, newStart, end); err != nil {
			a.logger.Error("MoveSlot: failed to update booking id=%d window: %v", b.ID, err)
			return nil, fmt.Errorf("%w: MoveSlot - update booking window: %v", ErrInternal, err)
		}
	}

	a.logger.Info("MoveSlot: slot id=%d moved to [%s, %s), %d bookings updated",
		slot.ID, newStart.Format(time.RFC3339), end.Format(time.RFC3339), len(bookings))

	slot.Start = newStart
	slot.End = end
	return slot, nil
}

// ReleaseIfEmpty удаляет слот, если к нему больше не привязано ни одного
// бронирования. Вызывается после отмены или переноса бронирования
func (a *Allocator) ReleaseIfEmpty(ctx context.Context, slotID int64) error {
	deleted, err := a.slotRepo.DeleteIfEmpty(ctx, slotID)
	if err != nil {
		a.logger.Error("ReleaseIfEmpty: failed to delete slot id=%d: %v", slotID, err)
		return fmt.Errorf("%w: ReleaseIfEmpty - delete slot: %v", ErrInternal, err)
	}
	if deleted {
		a.logger.Info("ReleaseIfEmpty: removed empty slot id=%d", slotID)
	}
	return nil
}

// CleanEmptySlots удаляет все слоты без бронирований
func (a *Allocator) CleanEmptySlots(ctx context.Context) (int64, error) {
	count, err := a.slotRepo.DeleteEmpty(ctx)
	if err != nil {
		a.logger.Error("CleanEmptySlots: failed to delete empty slots: %v", err)
		return 0, fmt.Errorf("%w: CleanEmptySlots - delete empty slots: %v", ErrInternal, err)
	}
	if count > 0 {
		a.logger.Info("CleanEmptySlots: removed %d empty slots", count)
	}
	return count, nil
}

// findOrCreate возвращает слот с точно совпадающим окном, создавая его
// при отсутствии. Гонка двух конкурентных созданий разрешается через
// уникальный индекс (start_at, end_at): проигравший перечитывает слот
func (a *Allocator) findOrCreate(ctx context.Context, start, end time.Time) (*domain.Slot, error) {
	slot, err := a.slotRepo.GetByWindow(ctx, start, end)
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, slotRepo.ErrSlotNotFound) {
		a.logger.Error("findOrCreate: failed to fetch slot window: %v", err)
		return nil, fmt.Errorf("%w: findOrCreate - fetch slot: %v", ErrInternal, err)
	}

	slot, err = a.slotRepo.Create(ctx, &domain.Slot{Start: start, End: end})
	if err == nil {
		return slot, nil
	}
	if !errors.Is(err, slotRepo.ErrDuplicateWindow) {
		a.logger.Error("findOrCreate: failed to create slot: %v", err)
		return nil, fmt.Errorf("%w: findOrCreate - create slot: %v", ErrInternal, err)
	}

	// Слот создан конкурентной транзакцией между выборкой и вставкой
	slot, err = a.slotRepo.GetByWindow(ctx, start, end)
	if err != nil {
		a.logger.Error("findOrCreate: failed to re-fetch slot after duplicate: %v", err)
		return nil, fmt.Errorf("%w: findOrCreate - re-fetch slot: %v", ErrInternal, err)
	}
	return slot, nil
}

// checkOverlaps проверяет, что окно [start, end) не пересекается
// с другими занятыми слотами. Пустые пересекающиеся слоты не мешают:
// они остаются от отмененных бронирований и будут собраны сборщиком
func (a *Allocator) checkOverlaps(ctx context.Context, start, end time.Time, excludeSlotID, excludeBookingID int64) error {
	overlapping, err := a.slotRepo.GetOverlapping(ctx, start, end, excludeSlotID)
	if err != nil {
		a.logger.Error("checkOverlaps: failed to fetch overlapping slots: %v", err)
		return fmt.Errorf("%w: checkOverlaps - fetch overlapping slots: %v", ErrInternal, err)
	}
	if len(overlapping) == 0 {
		return nil
	}

	slotIDs := make([]int64, 0, len(overlapping))
	for _, s := range overlapping {
		slotIDs = append(slotIDs, s.ID)
	}

	counts, err := a.bookingRepo.CountBySlotIDs(ctx, slotIDs)
	if err != nil {
		a.logger.Error("checkOverlaps: failed to count bookings for overlapping slots: %v", err)
		return fmt.Errorf("%w: checkOverlaps - count bookings: %v", ErrInternal, err)
	}

	for _, s := range overlapping {
		occupied := counts[s.ID]
		if occupied == 0 {
			continue
		}
		if excludeBookingID != 0 {
			// Переносимое бронирование может занимать пересекающийся слот -
			// оно освободит его при переносе
			bookings, err := a.bookingRepo.GetBySlotID(ctx, s.ID, true)
			if err != nil {
				a.logger.Error("checkOverlaps: failed to load bookings for slot id=%d: %v", s.ID, err)
				return fmt.Errorf("%w: checkOverlaps - load slot bookings: %v", ErrInternal, err)
			}
			if len(withoutBooking(bookings, excludeBookingID)) == 0 {
				continue
			}
		}
		a.logger.Warn("checkOverlaps: window [%s, %s) overlaps occupied slot id=%d",
			start.Format(time.RFC3339), end.Format(time.RFC3339), s.ID)
		return domain.ErrSlotOverlaps
	}

	return nil
}

func withoutBooking(bookings []*domain.Booking, excludeID int64) []*domain.Booking {
	if excludeID == 0 {
		return bookings
	}
	filtered := make([]*domain.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.ID != excludeID {
			filtered = append(filtered, b)
		}
	}
	return filtered
}
