package domain

import "errors"

// Booking slot allocation failures. Always caused by the request itself and
// recoverable by picking different parameters.
var (
	// ErrIncorrectService слот уже занят бронированиями другой услуги
	ErrIncorrectService = errors.New("domain: slot is booked for a different service")

	// ErrMaxPets в слоте достигнут лимит питомцев для услуги
	ErrMaxPets = errors.New("domain: slot has max pets for service")

	// ErrMaxCustomers в слоте достигнут лимит клиентов для услуги
	ErrMaxCustomers = errors.New("domain: slot has max customers for service")

	// ErrSlotOverlaps слот пересекается с другим занятым слотом
	ErrSlotOverlaps = errors.New("domain: slot overlaps another slot")
)

var (
	// ErrTransitionNotAllowed переход состояния не разрешен из текущего состояния
	ErrTransitionNotAllowed = errors.New("domain: state transition not allowed")

	// ErrChargeRefund возврат превышает доступную сумму или платеж уже возвращен полностью
	ErrChargeRefund = errors.New("domain: charge refund error")

	// ErrCustomerDataIssues у клиента есть проблемы с данными (например, не указан email для счетов)
	ErrCustomerDataIssues = errors.New("domain: customer has outstanding data issues")

	// ErrPetOwnership в бронировании есть питомцы другого клиента
	ErrPetOwnership = errors.New("domain: booking has pets from a different customer")

	// ErrCurrencyMismatch арифметика между разными валютами
	ErrCurrencyMismatch = errors.New("domain: money currency mismatch")

	// ErrInvalidAmount некорректная денежная сумма
	ErrInvalidAmount = errors.New("domain: invalid money amount")

	// ErrNotMoveable бронирование или слот нельзя перенести в текущем состоянии
	ErrNotMoveable = errors.New("domain: not in a moveable state")
)
