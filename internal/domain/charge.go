package domain

import (
	"fmt"
	"time"
)

// ChargeState represents the financial state of a charge
type ChargeState string

const (
	ChargeStateUnpaid ChargeState = "unpaid"
	ChargeStatePaid   ChargeState = "paid"
	ChargeStateVoid   ChargeState = "void"
	ChargeStateRefund ChargeState = "refund"
)

// ChargeAction is a named transition on the charge state machine
type ChargeAction string

const (
	ChargeActionPay    ChargeAction = "pay"
	ChargeActionVoid   ChargeAction = "void"
	ChargeActionRefund ChargeAction = "refund"
)

// chargeTransitions covers the state-changing actions. Refund is not in the
// table: it leaves the parent charge in paid and creates a child charge, so
// it is guarded separately (see CanRefund).
var chargeTransitions = map[ChargeState]map[ChargeAction]ChargeState{
	ChargeStateUnpaid: {
		ChargeActionPay:  ChargeStatePaid,
		ChargeActionVoid: ChargeStateVoid,
	},
}

// NextChargeState resolves the target state for an action, or
// ErrTransitionNotAllowed.
func NextChargeState(state ChargeState, action ChargeAction) (ChargeState, error) {
	target, ok := chargeTransitions[state][action]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrTransitionNotAllowed, action, state)
	}
	return target, nil
}

// AvailableChargeActions lists the actions legal from the given state.
func AvailableChargeActions(state ChargeState) []ChargeAction {
	var actions []ChargeAction
	for _, a := range []ChargeAction{ChargeActionPay, ChargeActionVoid} {
		if _, ok := chargeTransitions[state][a]; ok {
			actions = append(actions, a)
		}
	}
	if state == ChargeStatePaid {
		actions = append(actions, ChargeActionRefund)
	}
	return actions
}

// Charge is a line item of money owed (or, for refunds, returned).
// A refund charge is a child with negative amount linked via ParentChargeID.
// A charge with a BookingID originated from a completed booking.
type Charge struct {
	ID       int64
	Name     string
	Line     Money
	Quantity int
	State    ChargeState

	ParentChargeID *int64
	CustomerID     *int64
	InvoiceID      *int64
	BookingID      *int64

	PaidOn    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Amount is the charge total: line price times quantity.
func (c *Charge) Amount() Money {
	return c.Line.MulInt(int64(c.Quantity))
}

// IsBookingCharge reports whether the charge was generated by a booking.
func (c *Charge) IsBookingCharge() bool {
	return c.BookingID != nil
}

// CanRefund reports whether a refund may be issued against the charge.
func (c *Charge) CanRefund() bool {
	return c.State == ChargeStatePaid
}

// RefundableAmount computes the balance still refundable given the existing
// refund children. Returns ErrChargeRefund once the charge is refunded in
// full.
func (c *Charge) RefundableAmount(refunds []*Charge) (Money, error) {
	refunded := ZeroMoney(c.Line.Currency)
	for _, r := range refunds {
		sum, err := refunded.Add(r.Amount())
		if err != nil {
			return Money{}, err
		}
		refunded = sum
	}

	// refunded is negative or zero; the remaining balance is amount + refunded
	remaining, err := c.Amount().Add(refunded)
	if err != nil {
		return Money{}, err
	}

	if !remaining.IsPositive() {
		return Money{}, fmt.Errorf("%w: charge has already been refunded in full", ErrChargeRefund)
	}

	return remaining, nil
}

// NewRefund builds the child refund charge for the given amount. The amount
// must not exceed the refundable balance computed from refunds.
func (c *Charge) NewRefund(amount *Money, refunds []*Charge) (*Charge, error) {
	if !c.CanRefund() {
		return nil, fmt.Errorf("%w: refund from %s", ErrTransitionNotAllowed, c.State)
	}

	refundable, err := c.RefundableAmount(refunds)
	if err != nil {
		return nil, err
	}

	if amount == nil {
		amount = &refundable
	}

	cmp, err := amount.Cmp(refundable)
	if err != nil {
		return nil, err
	}
	if cmp > 0 {
		return nil, fmt.Errorf("%w: refund amount exceeds the refundable amount", ErrChargeRefund)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: refund amount must be positive", ErrChargeRefund)
	}

	return &Charge{
		Name:           truncate(c.Name+" - Refund", MaxChargeNameLength),
		Line:           amount.Neg(),
		Quantity:       1,
		State:          ChargeStateRefund,
		ParentChargeID: &c.ID,
		CustomerID:     c.CustomerID,
	}, nil
}
