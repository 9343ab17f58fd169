package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

func TestNextChargeState(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name    string
		state   domain.ChargeState
		action  domain.ChargeAction
		want    domain.ChargeState
		wantErr bool
	}{
		{
			name:   "unpaid pay",
			state:  domain.ChargeStateUnpaid,
			action: domain.ChargeActionPay,
			want:   domain.ChargeStatePaid,
		},
		{
			name:   "unpaid void",
			state:  domain.ChargeStateUnpaid,
			action: domain.ChargeActionVoid,
			want:   domain.ChargeStateVoid,
		},
		{
			name:    "paid pay is illegal",
			state:   domain.ChargeStatePaid,
			action:  domain.ChargeActionPay,
			wantErr: true,
		},
		{
			name:    "paid void is illegal",
			state:   domain.ChargeStatePaid,
			action:  domain.ChargeActionVoid,
			wantErr: true,
		},
		{
			name:    "refund is not a table transition",
			state:   domain.ChargeStatePaid,
			action:  domain.ChargeActionRefund,
			wantErr: true,
		},
		{
			name:    "void is terminal",
			state:   domain.ChargeStateVoid,
			action:  domain.ChargeActionPay,
			wantErr: true,
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := domain.NextChargeState(tt.state, tt.action)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrTransitionNotAllowed)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAvailableChargeActions(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]domain.ChargeAction{domain.ChargeActionPay, domain.ChargeActionVoid},
		domain.AvailableChargeActions(domain.ChargeStateUnpaid))
	require.Equal(t,
		[]domain.ChargeAction{domain.ChargeActionRefund},
		domain.AvailableChargeActions(domain.ChargeStatePaid))
	require.Empty(t, domain.AvailableChargeActions(domain.ChargeStateVoid))
	require.Empty(t, domain.AvailableChargeActions(domain.ChargeStateRefund))
}

func TestCharge_Amount(t *testing.T) {
	t.Parallel()

	c := &domain.Charge{
		Line:     domain.NewMoney(decimal.RequireFromString("12.50"), "GBP"),
		Quantity: 4,
	}
	require.True(t, c.Amount().Amount.Equal(decimal.RequireFromString("50.00")))
	require.Equal(t, "GBP", c.Amount().Currency)
}

func TestCharge_NewRefund(t *testing.T) {
	t.Parallel()

	gbp := func(s string) domain.Money {
		return domain.NewMoney(decimal.RequireFromString(s), "GBP")
	}

	paid := func() *domain.Charge {
		return &domain.Charge{
			ID:       1,
			Name:     "Dog Walk for Rex",
			Line:     gbp("1000"),
			Quantity: 1,
			State:    domain.ChargeStatePaid,
		}
	}

	t.Run("partial refund then full remainder", func(t *testing.T) {
		t.Parallel()

		c := paid()

		one := gbp("1")
		first, err := c.NewRefund(&one, nil)
		require.NoError(t, err)
		require.Equal(t, domain.ChargeStateRefund, first.State)
		require.True(t, first.Line.Amount.Equal(decimal.RequireFromString("-1")))
		require.NotNil(t, first.ParentChargeID)
		require.Equal(t, int64(1), *first.ParentChargeID)

		// nil amount refunds whatever is still refundable
		second, err := c.NewRefund(nil, []*domain.Charge{first})
		require.NoError(t, err)
		require.True(t, second.Line.Amount.Equal(decimal.RequireFromString("-999")))

		// nothing left to refund
		_, err = c.NewRefund(nil, []*domain.Charge{first, second})
		require.ErrorIs(t, err, domain.ErrChargeRefund)
	})

	t.Run("refund above the refundable balance is rejected", func(t *testing.T) {
		t.Parallel()

		c := paid()
		over := gbp("1000.01")
		_, err := c.NewRefund(&over, nil)
		require.ErrorIs(t, err, domain.ErrChargeRefund)
	})

	t.Run("non-positive refund amount is rejected", func(t *testing.T) {
		t.Parallel()

		c := paid()
		zero := gbp("0")
		_, err := c.NewRefund(&zero, nil)
		require.ErrorIs(t, err, domain.ErrChargeRefund)

		negative := gbp("-5")
		_, err = c.NewRefund(&negative, nil)
		require.ErrorIs(t, err, domain.ErrChargeRefund)
	})

	t.Run("only paid charges can be refunded", func(t *testing.T) {
		t.Parallel()

		c := paid()
		c.State = domain.ChargeStateUnpaid
		_, err := c.NewRefund(nil, nil)
		require.ErrorIs(t, err, domain.ErrTransitionNotAllowed)
	})
}

func TestCharge_RefundableAmount(t *testing.T) {
	t.Parallel()

	gbp := func(s string) domain.Money {
		return domain.NewMoney(decimal.RequireFromString(s), "GBP")
	}

	c := &domain.Charge{Line: gbp("30"), Quantity: 2, State: domain.ChargeStatePaid}

	remaining, err := c.RefundableAmount(nil)
	require.NoError(t, err)
	require.True(t, remaining.Amount.Equal(decimal.RequireFromString("60")))

	refunds := []*domain.Charge{{Line: gbp("-25"), Quantity: 1}}
	remaining, err = c.RefundableAmount(refunds)
	require.NoError(t, err)
	require.True(t, remaining.Amount.Equal(decimal.RequireFromString("35")))
}
