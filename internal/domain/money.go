package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in a single currency.
// Arithmetic between two Money values requires matching currencies.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// NewMoney builds a Money value from a decimal amount and a currency code.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// NewMoneyFromString parses a decimal string like "10.50".
func NewMoneyFromString(amount string, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// ZeroMoney returns the zero amount in the given currency.
func ZeroMoney(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.checkCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// MulInt returns m multiplied by an integer quantity.
func (m Money) MulInt(n int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(n)), Currency: m.Currency}
}

// Cmp compares two Money values: -1 if m < other, 0 if equal, 1 if m > other.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.checkCurrency(other); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(other.Amount), nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}

func (m Money) checkCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}
