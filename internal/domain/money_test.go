package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

func TestMoney_Arithmetic(t *testing.T) {
	t.Parallel()

	a := domain.NewMoney(decimal.RequireFromString("10.50"), "GBP")
	b := domain.NewMoney(decimal.RequireFromString("4.25"), "GBP")

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.True(t, sum.Amount.Equal(decimal.RequireFromString("14.75")))

	diff, err := a.Sub(b)
	require.NoError(t, err)
	require.True(t, diff.Amount.Equal(decimal.RequireFromString("6.25")))

	require.True(t, a.Neg().Amount.Equal(decimal.RequireFromString("-10.50")))
	require.True(t, a.MulInt(3).Amount.Equal(decimal.RequireFromString("31.50")))

	cmp, err := a.Cmp(b)
	require.NoError(t, err)
	require.Equal(t, 1, cmp)
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	t.Parallel()

	gbp := domain.NewMoney(decimal.RequireFromString("10"), "GBP")
	usd := domain.NewMoney(decimal.RequireFromString("10"), "USD")

	_, err := gbp.Add(usd)
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = gbp.Sub(usd)
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)

	_, err = gbp.Cmp(usd)
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestNewMoneyFromString(t *testing.T) {
	t.Parallel()

	m, err := domain.NewMoneyFromString("10.50", "GBP")
	require.NoError(t, err)
	require.True(t, m.Amount.Equal(decimal.RequireFromString("10.50")))
	require.Equal(t, "GBP", m.Currency)

	_, err = domain.NewMoneyFromString("not a number", "GBP")
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestMoney_Predicates(t *testing.T) {
	t.Parallel()

	require.True(t, domain.ZeroMoney("GBP").IsZero())
	require.True(t, domain.NewMoney(decimal.RequireFromString("1"), "GBP").IsPositive())
	require.True(t, domain.NewMoney(decimal.RequireFromString("-1"), "GBP").IsNegative())
}

func TestMoney_String(t *testing.T) {
	t.Parallel()

	m := domain.NewMoney(decimal.RequireFromString("10.5"), "GBP")
	require.Equal(t, "10.50 GBP", m.String())
}
