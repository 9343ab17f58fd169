package domain

import (
	"fmt"
	"time"
)

// InvoiceState represents the lifecycle state of an invoice
type InvoiceState string

const (
	InvoiceStateDraft  InvoiceState = "draft"
	InvoiceStateUnpaid InvoiceState = "unpaid"
	InvoiceStatePaid   InvoiceState = "paid"
	InvoiceStateVoid   InvoiceState = "void"
)

// InvoiceAction is a named transition on the invoice state machine
type InvoiceAction string

const (
	InvoiceActionSend InvoiceAction = "send"
	InvoiceActionPay  InvoiceAction = "pay"
	InvoiceActionVoid InvoiceAction = "void"
)

var invoiceTransitions = map[InvoiceState]map[InvoiceAction]InvoiceState{
	InvoiceStateDraft: {
		InvoiceActionSend: InvoiceStateUnpaid,
		InvoiceActionVoid: InvoiceStateVoid,
	},
	InvoiceStateUnpaid: {
		InvoiceActionPay:  InvoiceStatePaid,
		InvoiceActionVoid: InvoiceStateVoid,
	},
}

// NextInvoiceState resolves the target state for an action, or
// ErrTransitionNotAllowed.
func NextInvoiceState(state InvoiceState, action InvoiceAction) (InvoiceState, error) {
	target, ok := invoiceTransitions[state][action]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrTransitionNotAllowed, action, state)
	}
	return target, nil
}

// AvailableInvoiceActions lists the actions legal from the given state.
func AvailableInvoiceActions(state InvoiceState) []InvoiceAction {
	var actions []InvoiceAction
	for _, a := range []InvoiceAction{InvoiceActionSend, InvoiceActionPay, InvoiceActionVoid} {
		if _, ok := invoiceTransitions[state][a]; ok {
			actions = append(actions, a)
		}
	}
	return actions
}

// Invoice aggregates charges for a customer. Customer name and address are
// snapshotted onto the invoice when it is sent, so later customer edits do
// not rewrite history.
type Invoice struct {
	ID         int64
	CustomerID *int64

	Details    string
	Due        *time.Time
	Adjustment Money
	State      InvoiceState

	CustomerName   string
	InvoiceAddress string
	SentTo         string
	SendNotes      string

	PaidOn    *time.Time
	SentOn    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Name is the display number of the invoice.
func (i *Invoice) Name() string {
	return fmt.Sprintf("INV-%03d", i.ID)
}

// CanEdit reports whether invoice fields (and its charges' financial fields)
// may still be mutated. Snapshot writes performed during the send transition
// itself bypass this through the repository.
func (i *Invoice) CanEdit() bool {
	return i.State == InvoiceStateDraft
}

// CanSend reports whether the send guard holds: a customer is attached and
// has no outstanding data issues.
func (i *Invoice) CanSend(customer *Customer) bool {
	return i.CustomerID != nil && customer != nil && customer.CanBeInvoiced()
}

// Overdue reports whether the invoice is unpaid past its due date.
func (i *Invoice) Overdue(today time.Time) bool {
	return i.State == InvoiceStateUnpaid && i.Due != nil && i.Due.Before(today)
}

// InvoiceTotals are the derived money fields of an invoice. They are
// recomputed from charges and payments on every read, never stored.
type InvoiceTotals struct {
	Subtotal Money
	Total    Money
	Paid     Money
	Unpaid   Money
}

// ComputeInvoiceTotals folds the invoice's charges and payments:
// subtotal = sum of charge amounts, total = subtotal + adjustment,
// paid = sum of payments, unpaid = total - paid.
func ComputeInvoiceTotals(invoice *Invoice, charges []*Charge, payments []*Payment, currency string) (InvoiceTotals, error) {
	subtotal := ZeroMoney(currency)
	for _, c := range charges {
		sum, err := subtotal.Add(c.Amount())
		if err != nil {
			return InvoiceTotals{}, err
		}
		subtotal = sum
	}

	adjustment := invoice.Adjustment
	if adjustment.Currency == "" {
		adjustment = ZeroMoney(currency)
	}

	total, err := subtotal.Add(adjustment)
	if err != nil {
		return InvoiceTotals{}, err
	}

	paid := ZeroMoney(currency)
	for _, p := range payments {
		sum, err := paid.Add(p.Amount)
		if err != nil {
			return InvoiceTotals{}, err
		}
		paid = sum
	}

	unpaid, err := total.Sub(paid)
	if err != nil {
		return InvoiceTotals{}, err
	}

	return InvoiceTotals{
		Subtotal: subtotal,
		Total:    total,
		Paid:     paid,
		Unpaid:   unpaid,
	}, nil
}

// Payment records money received against an invoice. The amount is never
// negative; refunds are modelled as refund charges, not negative payments.
type Payment struct {
	ID         int64
	InvoiceID  *int64
	CustomerID *int64
	Amount     Money

	CreatedAt time.Time
	UpdatedAt time.Time
}
