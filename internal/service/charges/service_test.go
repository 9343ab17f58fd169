package charges_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cerberus-crm/booking-service/internal/domain"
	chargeRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/charge"
	invoiceRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/invoice"
	"github.com/cerberus-crm/booking-service/internal/service/charges"
	"github.com/cerberus-crm/booking-service/internal/service/charges/models"
	"github.com/cerberus-crm/booking-service/pkg/ptr"
)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type passTxManager struct{}

func (passTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeChargeRepo struct {
	charges map[int64]*domain.Charge
	nextID  int64
}

func newFakeChargeRepo() *fakeChargeRepo {
	return &fakeChargeRepo{charges: make(map[int64]*domain.Charge)}
}

func (r *fakeChargeRepo) seed(c *domain.Charge) *domain.Charge {
	if c.ID == 0 {
		r.nextID++
		c.ID = r.nextID
	} else if c.ID > r.nextID {
		r.nextID = c.ID
	}
	r.charges[c.ID] = c
	return c
}

func (r *fakeChargeRepo) Create(ctx context.Context, c *domain.Charge) (*domain.Charge, error) {
	r.nextID++
	c.ID = r.nextID
	r.charges[c.ID] = c
	return c, nil
}

func (r *fakeChargeRepo) GetByID(ctx context.Context, id int64) (*domain.Charge, error) {
	c, ok := r.charges[id]
	if !ok {
		return nil, chargeRepo.ErrChargeNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeChargeRepo) GetRefunds(ctx context.Context, parentChargeID int64) ([]*domain.Charge, error) {
	var out []*domain.Charge
	for _, c := range r.charges {
		if c.ParentChargeID != nil && *c.ParentChargeID == parentChargeID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeChargeRepo) Update(ctx context.Context, c *domain.Charge, frozen bool) error {
	stored, ok := r.charges[c.ID]
	if !ok {
		return chargeRepo.ErrChargeNotFound
	}
	stored.InvoiceID = c.InvoiceID
	if !frozen {
		stored.Name = c.Name
		stored.Line = c.Line
		stored.Quantity = c.Quantity
		stored.CustomerID = c.CustomerID
	}
	return nil
}

func (r *fakeChargeRepo) UpdateState(ctx context.Context, id int64, state domain.ChargeState) error {
	r.charges[id].State = state
	return nil
}

func (r *fakeChargeRepo) SetInvoice(ctx context.Context, id int64, invoiceID *int64) error {
	r.charges[id].InvoiceID = invoiceID
	return nil
}

type fakeInvoiceRepo struct {
	invoices map[int64]*domain.Invoice
}

func newFakeInvoiceRepo(invoices ...*domain.Invoice) *fakeInvoiceRepo {
	r := &fakeInvoiceRepo{invoices: make(map[int64]*domain.Invoice)}
	for _, inv := range invoices {
		r.invoices[inv.ID] = inv
	}
	return r
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, invoiceRepo.ErrInvoiceNotFound
	}
	cp := *inv
	return &cp, nil
}

func newService(repo *fakeChargeRepo, invoices ...*domain.Invoice) *charges.Service {
	return charges.NewService(repo, newFakeInvoiceRepo(invoices...), passTxManager{}, nopLogger{})
}

func gbp(s string) domain.Money {
	return domain.NewMoney(decimal.RequireFromString(s), "GBP")
}

func TestService_Pay(t *testing.T) {
	t.Parallel()

	repo := newFakeChargeRepo()
	repo.seed(&domain.Charge{Line: gbp("25.00"), Quantity: 1, State: domain.ChargeStateUnpaid})
	svc := newService(repo)

	resp, err := svc.Pay(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "paid", resp.State)
	require.Equal(t, []string{"refund"}, resp.AvailableActions)

	// повторная оплата недопустима
	_, err = svc.Pay(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrTransitionNotAllowed)
}

func TestService_Void(t *testing.T) {
	t.Parallel()

	repo := newFakeChargeRepo()
	invoiceID := int64(5)
	repo.seed(&domain.Charge{Line: gbp("25.00"), Quantity: 1, State: domain.ChargeStateUnpaid, InvoiceID: &invoiceID})
	svc := newService(repo)

	resp, err := svc.Void(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "void", resp.State)

	// аннулированное начисление отвязывается от счета
	require.Nil(t, resp.InvoiceID)
	require.Nil(t, repo.charges[1].InvoiceID)
}

func TestService_Void_PaidCharge(t *testing.T) {
	t.Parallel()

	repo := newFakeChargeRepo()
	repo.seed(&domain.Charge{Line: gbp("25.00"), Quantity: 1, State: domain.ChargeStatePaid})
	svc := newService(repo)

	_, err := svc.Void(context.Background(), 1)
	require.ErrorIs(t, err, domain.ErrTransitionNotAllowed)
}

func TestService_Refund(t *testing.T) {
	t.Parallel()

	repo := newFakeChargeRepo()
	repo.seed(&domain.Charge{Name: "Dog Walk for Rex", Line: gbp("1000"), Quantity: 1, State: domain.ChargeStatePaid})
	svc := newService(repo)

	one := "1"
	first, err := svc.Refund(context.Background(), 1, &one)
	require.NoError(t, err)
	require.Equal(t, "refund", first.State)
	require.Equal(t, "-1", first.Line)
	require.Equal(t, "Dog Walk for Rex - Refund", first.Name)
	require.NotNil(t, first.ParentChargeID)
	require.Equal(t, int64(1), *first.ParentChargeID)

	// родитель остается оплаченным
	require.Equal(t, domain.ChargeStatePaid, repo.charges[1].State)

	// без суммы возвращается весь остаток
	second, err := svc.Refund(context.Background(), 1, nil)
	require.NoError(t, err)
	require.Equal(t, "-999", second.Line)

	// остатка больше нет
	_, err = svc.Refund(context.Background(), 1, nil)
	require.ErrorIs(t, err, domain.ErrChargeRefund)
}

func TestService_Refund_InvalidAmount(t *testing.T) {
	t.Parallel()

	repo := newFakeChargeRepo()
	repo.seed(&domain.Charge{Line: gbp("1000"), Quantity: 1, State: domain.ChargeStatePaid})
	svc := newService(repo)

	junk := "not a number"
	_, err := svc.Refund(context.Background(), 1, &junk)
	require.ErrorIs(t, err, charges.ErrInvalidAmount)

	over := "1000.01"
	_, err = svc.Refund(context.Background(), 1, &over)
	require.ErrorIs(t, err, domain.ErrChargeRefund)
}

func TestService_Refund_UnpaidCharge(t *testing.T) {
	t.Parallel()

	repo := newFakeChargeRepo()
	repo.seed(&domain.Charge{Line: gbp("1000"), Quantity: 1, State: domain.ChargeStateUnpaid})
	svc := newService(repo)

	_, err := svc.Refund(context.Background(), 1, nil)
	require.ErrorIs(t, err, domain.ErrTransitionNotAllowed)
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	repo := newFakeChargeRepo()
	repo.seed(&domain.Charge{Line: gbp("25.00"), Quantity: 1, State: domain.ChargeStateUnpaid})
	svc := newService(repo)

	resp, err := svc.Delete(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "void", resp.State)
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	repo := newFakeChargeRepo()
	repo.seed(&domain.Charge{Name: "Dog Walk for Rex", Line: gbp("25.00"), Quantity: 1, State: domain.ChargeStateUnpaid})
	svc := newService(repo)

	name := "Dog Walk for Rex and Bella"
	line := "30.00"
	quantity := 2
	resp, err := svc.Update(context.Background(), 1, &models.UpdateChargeRequest{
		Name:     &name,
		Line:     &line,
		Quantity: &quantity,
	})
	require.NoError(t, err)
	require.Equal(t, "Dog Walk for Rex and Bella", resp.Name)
	require.Equal(t, "30", resp.Line)
	require.Equal(t, 2, resp.Quantity)
	require.Equal(t, "60", resp.Amount)

	require.Equal(t, "Dog Walk for Rex and Bella", repo.charges[1].Name)
	require.Equal(t, 2, repo.charges[1].Quantity)
}

func TestService_Update_DraftInvoiceCharge(t *testing.T) {
	t.Parallel()

	repo := newFakeChargeRepo()
	invoiceID := int64(5)
	repo.seed(&domain.Charge{Name: "Dog Walk", Line: gbp("25.00"), Quantity: 1, State: domain.ChargeStateUnpaid, InvoiceID: &invoiceID})
	svc := newService(repo, &domain.Invoice{ID: 5, State: domain.InvoiceStateDraft})

	// черновик еще редактируется, начисление не заморожено
	line := "40.00"
	resp, err := svc.Update(context.Background(), 1, &models.UpdateChargeRequest{Line: &line})
	require.NoError(t, err)
	require.Equal(t, "40", resp.Line)
}

func TestService_Update_FrozenOnSentInvoice(t *testing.T) {
	t.Parallel()

	repo := newFakeChargeRepo()
	invoiceID := int64(5)
	repo.seed(&domain.Charge{Name: "Dog Walk", Line: gbp("25.00"), Quantity: 1, State: domain.ChargeStateUnpaid, InvoiceID: &invoiceID})
	svc := newService(repo, &domain.Invoice{ID: 5, State: domain.InvoiceStateUnpaid})

	line := "40.00"
	_, err := svc.Update(context.Background(), 1, &models.UpdateChargeRequest{Line: &line})
	require.ErrorIs(t, err, charges.ErrChargeNotEditable)

	// исторические суммы выставленного счета не меняются
	require.True(t, repo.charges[1].Line.Amount.Equal(decimal.RequireFromString("25.00")))
}

func TestService_Update_InvalidFields(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		req  models.UpdateChargeRequest
	}{
		{
			name: "empty name",
			req:  models.UpdateChargeRequest{Name: ptr.Ptr("")},
		},
		{
			name: "junk line",
			req:  models.UpdateChargeRequest{Line: ptr.Ptr("not a number")},
		},
		{
			name: "zero quantity",
			req:  models.UpdateChargeRequest{Quantity: ptr.Ptr(0)},
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newFakeChargeRepo()
			repo.seed(&domain.Charge{Name: "Dog Walk", Line: gbp("25.00"), Quantity: 1, State: domain.ChargeStateUnpaid})
			svc := newService(repo)

			_, err := svc.Update(context.Background(), 1, &tt.req)
			require.ErrorIs(t, err, charges.ErrInvalidUpdate)
		})
	}
}

func TestService_NotFound(t *testing.T) {
	t.Parallel()

	svc := newService(newFakeChargeRepo())

	_, err := svc.Pay(context.Background(), 404)
	require.ErrorIs(t, err, charges.ErrChargeNotFound)
}
