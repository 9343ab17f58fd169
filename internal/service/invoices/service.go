package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/cerberus-crm/booking-service/internal/domain"
	chargeRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/charge"
	customerRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/customer"
	invoiceRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/invoice"
	"github.com/cerberus-crm/booking-service/internal/service/invoices/models"
)

// Service сервис жизненного цикла счетов
type Service struct {
	invoiceRepo  InvoiceRepository
	chargeRepo   ChargeRepository
	paymentRepo  PaymentRepository
	customerRepo CustomerRepository
	mailerClient MailerClient
	pdfClient    PDFRenderClient
	txManager    TransactionManager
	timeProvider TimeProvider
	currency     string
	dueDays      int
	logger       Logger
}

// NewService создает новый экземпляр сервиса счетов
func NewService(
	invoiceRepo InvoiceRepository,
	chargeRepo ChargeRepository,
	paymentRepo PaymentRepository,
	customerRepo CustomerRepository,
	mailerClient MailerClient,
	pdfClient PDFRenderClient,
	txManager TransactionManager,
	currency string,
	dueDays int,
	logger Logger,
) *Service {
	return &Service{
		invoiceRepo:  invoiceRepo,
		chargeRepo:   chargeRepo,
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
		mailerClient: mailerClient,
		pdfClient:    pdfClient,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		currency:     currency,
		dueDays:      dueDays,
		logger:       logger,
	}
}

// WithTimeProvider подменяет провайдер времени (для тестов)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Create создает черновик счета и привязывает к нему начисления.
// Начисление без клиента наследует клиента счета
func (s *Service) Create(ctx context.Context, req *models.CreateInvoiceRequest) (*models.InvoiceResponse, error) {
	s.logger.Info("Create: creating invoice for customer=%d with %d charges", req.CustomerID, len(req.ChargeIDs))

	if req.CustomerID <= 0 {
		return nil, fmt.Errorf("%w: customerID must be positive", ErrInvalidInput)
	}

	adjustment := domain.ZeroMoney(s.currency)
	if req.Adjustment != nil {
		parsed, err := domain.NewMoneyFromString(*req.Adjustment, s.currency)
		if err != nil {
			s.logger.Warn("Create: invalid adjustment %q: %v", *req.Adjustment, err)
			return nil, fmt.Errorf("%w: invalid adjustment: %v", ErrInvalidInput, err)
		}
		adjustment = parsed
	}

	if _, err := s.customerRepo.GetByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, customerRepo.ErrCustomerNotFound) {
			s.logger.Warn("Create: customer id=%d not found", req.CustomerID)
			return nil, fmt.Errorf("%w: customer id=%d", ErrInvalidInput, req.CustomerID)
		}
		s.logger.Error("Create: failed to get customer id=%d: %v", req.CustomerID, err)
		return nil, fmt.Errorf("%w: Create - get customer: %v", ErrInternal, err)
	}

	var invoiceID int64
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		created, err := s.invoiceRepo.Create(txCtx, &domain.Invoice{
			CustomerID: &req.CustomerID,
			Details:    req.Details,
			Due:        req.Due,
			Adjustment: adjustment,
			State:      domain.InvoiceStateDraft,
		})
		if err != nil {
			s.logger.Error("Create: failed to create invoice: %v", err)
			return fmt.Errorf("%w: Create - create invoice: %v", ErrInternal, err)
		}

		for _, chargeID := range req.ChargeIDs {
			if err := s.attachCharge(txCtx, created, chargeID); err != nil {
				return err
			}
		}

		invoiceID = created.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Create: invoice id=%d created", invoiceID)
	return s.Get(ctx, invoiceID)
}

// Update изменяет поля черновика. Отправленные счета не редактируются
func (s *Service) Update(ctx context.Context, invoiceID int64, req *models.UpdateInvoiceRequest) (*models.InvoiceResponse, error) {
	s.logger.Info("Update: updating invoice id=%d", invoiceID)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		invoice, err := s.getLocked(txCtx, invoiceID)
		if err != nil {
			return err
		}

		if !invoice.CanEdit() {
			s.logger.Warn("Update: invoice id=%d in state=%s is not editable", invoice.ID, invoice.State)
			return fmt.Errorf("%w: edit from %s", domain.ErrTransitionNotAllowed, invoice.State)
		}

		if req.Details != nil {
			invoice.Details = *req.Details
		}
		if req.Due != nil {
			invoice.Due = req.Due
		}
		if req.Adjustment != nil {
			parsed, err := domain.NewMoneyFromString(*req.Adjustment, s.currency)
			if err != nil {
				return fmt.Errorf("%w: invalid adjustment: %v", ErrInvalidInput, err)
			}
			invoice.Adjustment = parsed
		}

		if err := s.invoiceRepo.UpdateDraft(txCtx, invoice); err != nil {
			s.logger.Error("Update: failed to update invoice id=%d: %v", invoice.ID, err)
			return fmt.Errorf("%w: Update - update draft: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, invoiceID)
}

// Get получает счет с начислениями, платежами и вычисленными итогами
func (s *Service) Get(ctx context.Context, invoiceID int64) (*models.InvoiceResponse, error) {
	var resp *models.InvoiceResponse
	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		view, err := s.loadView(txCtx, invoiceID)
		if err != nil {
			return err
		}
		resp = view
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Pay переводит счет unpaid -> paid: оплачивает все неоплаченные начисления
// и записывает один платеж на непогашенный остаток
func (s *Service) Pay(ctx context.Context, invoiceID int64) (*models.InvoiceResponse, error) {
	s.logger.Info("Pay: paying invoice id=%d", invoiceID)

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		invoice, err := s.getLocked(txCtx, invoiceID)
		if err != nil {
			return err
		}

		next, err := domain.NextInvoiceState(invoice.State, domain.InvoiceActionPay)
		if err != nil {
			s.logger.Warn("Pay: invoice id=%d in state=%s cannot be paid", invoice.ID, invoice.State)
			return err
		}

		charges, err := s.chargeRepo.GetByInvoiceID(txCtx, invoice.ID)
		if err != nil {
			s.logger.Error("Pay: failed to load charges for invoice id=%d: %v", invoice.ID, err)
			return fmt.Errorf("%w: Pay - load charges: %v", ErrInternal, err)
		}
		payments, err := s.paymentRepo.GetByInvoiceID(txCtx, invoice.ID)
		if err != nil {
			s.logger.Error("Pay: failed to load payments for invoice id=%d: %v", invoice.ID, err)
			return fmt.Errorf("%w: Pay - load payments: %v", ErrInternal, err)
		}

		totals, err := domain.ComputeInvoiceTotals(invoice, charges, payments, s.currency)
		if err != nil {
			s.logger.Error("Pay: failed to compute totals for invoice id=%d: %v", invoice.ID, err)
			return fmt.Errorf("%w: Pay - compute totals: %v", ErrInternal, err)
		}

		for _, c := range charges {
			if c.State != domain.ChargeStateUnpaid {
				continue
			}
			if err := s.chargeRepo.UpdateState(txCtx, c.ID, domain.ChargeStatePaid); err != nil {
				s.logger.Error("Pay: failed to pay charge id=%d: %v", c.ID, err)
				return fmt.Errorf("%w: Pay - pay charge: %v", ErrInternal, err)
			}
		}

		if totals.Unpaid.IsPositive() {
			if _, err := s.paymentRepo.Create(txCtx, &domain.Payment{
				InvoiceID:  &invoice.ID,
				CustomerID: invoice.CustomerID,
				Amount:     totals.Unpaid,
			}); err != nil {
				s.logger.Error("Pay: failed to record payment for invoice id=%d: %v", invoice.ID, err)
				return fmt.Errorf("%w: Pay - record payment: %v", ErrInternal, err)
			}
		}

		if err := s.invoiceRepo.UpdateState(txCtx, invoice.ID, next); err != nil {
			s.logger.Error("Pay: failed to update invoice id=%d: %v", invoice.ID, err)
			return fmt.Errorf("%w: Pay - update state: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Pay: invoice id=%d paid", invoiceID)
	return s.Get(ctx, invoiceID)
}

// Void аннулирует счет из состояний draft/unpaid
func (s *Service) Void(ctx context.Context, invoiceID int64) (*models.InvoiceResponse, error) {
	s.logger.Info("Void: voiding invoice id=%d", invoiceID)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		invoice, err := s.getLocked(txCtx, invoiceID)
		if err != nil {
			return err
		}

		next, err := domain.NextInvoiceState(invoice.State, domain.InvoiceActionVoid)
		if err != nil {
			s.logger.Warn("Void: invoice id=%d in state=%s cannot be voided", invoice.ID, invoice.State)
			return err
		}

		if err := s.invoiceRepo.UpdateState(txCtx, invoice.ID, next); err != nil {
			s.logger.Error("Void: failed to update invoice id=%d: %v", invoice.ID, err)
			return fmt.Errorf("%w: Void - update state: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Void: invoice id=%d voided", invoiceID)
	return s.Get(ctx, invoiceID)
}

// Delete удаляет счет: черновик удаляется физически вместе с отвязкой
// начислений, отправленный счет аннулируется
func (s *Service) Delete(ctx context.Context, invoiceID int64) (*models.InvoiceResponse, error) {
	s.logger.Info("Delete: deleting invoice id=%d", invoiceID)

	var deleted bool
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		invoice, err := s.getLocked(txCtx, invoiceID)
		if err != nil {
			return err
		}

		if !invoice.CanEdit() {
			return nil
		}

		charges, err := s.chargeRepo.GetByInvoiceID(txCtx, invoice.ID)
		if err != nil {
			s.logger.Error("Delete: failed to load charges for invoice id=%d: %v", invoice.ID, err)
			return fmt.Errorf("%w: Delete - load charges: %v", ErrInternal, err)
		}
		for _, c := range charges {
			if err := s.chargeRepo.SetInvoice(txCtx, c.ID, nil); err != nil {
				s.logger.Error("Delete: failed to detach charge id=%d: %v", c.ID, err)
				return fmt.Errorf("%w: Delete - detach charge: %v", ErrInternal, err)
			}
		}

		if err := s.invoiceRepo.Delete(txCtx, invoice.ID); err != nil {
			s.logger.Error("Delete: failed to delete invoice id=%d: %v", invoice.ID, err)
			return fmt.Errorf("%w: Delete - delete invoice: %v", ErrInternal, err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if deleted {
		s.logger.Info("Delete: invoice id=%d hard-deleted", invoiceID)
		return nil, nil
	}
	return s.Void(ctx, invoiceID)
}

// attachCharge привязывает начисление к счету. Начисление без клиента
// наследует клиента счета
func (s *Service) attachCharge(ctx context.Context, invoice *domain.Invoice, chargeID int64) error {
	charge, err := s.chargeRepo.GetByID(ctx, chargeID)
	if err != nil {
		if errors.Is(err, chargeRepo.ErrChargeNotFound) {
			s.logger.Warn("attachCharge: charge id=%d not found", chargeID)
			return fmt.Errorf("%w: id=%d", ErrChargeNotFound, chargeID)
		}
		s.logger.Error("attachCharge: failed to get charge id=%d: %v", chargeID, err)
		return fmt.Errorf("%w: attachCharge - get charge: %v", ErrInternal, err)
	}

	if charge.InvoiceID != nil && *charge.InvoiceID != invoice.ID {
		s.logger.Warn("attachCharge: charge id=%d already attached to invoice id=%d", charge.ID, *charge.InvoiceID)
		return fmt.Errorf("%w: charge id=%d", ErrChargeAttached, charge.ID)
	}

	if err := s.chargeRepo.SetInvoice(ctx, charge.ID, &invoice.ID); err != nil {
		s.logger.Error("attachCharge: failed to attach charge id=%d: %v", charge.ID, err)
		return fmt.Errorf("%w: attachCharge - set invoice: %v", ErrInternal, err)
	}
	if charge.CustomerID == nil && invoice.CustomerID != nil {
		if err := s.chargeRepo.SetCustomer(ctx, charge.ID, invoice.CustomerID); err != nil {
			s.logger.Error("attachCharge: failed to set customer on charge id=%d: %v", charge.ID, err)
			return fmt.Errorf("%w: attachCharge - set customer: %v", ErrInternal, err)
		}
	}
	return nil
}

func (s *Service) getLocked(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, invoiceRepo.ErrInvoiceNotFound) {
			s.logger.Warn("invoice id=%d not found", invoiceID)
			return nil, ErrInvoiceNotFound
		}
		s.logger.Error("failed to get invoice id=%d: %v", invoiceID, err)
		return nil, fmt.Errorf("%w: get invoice: %v", ErrInternal, err)
	}
	return invoice, nil
}

// loadView загружает счет вместе с начислениями, платежами и итогами
func (s *Service) loadView(ctx context.Context, invoiceID int64) (*models.InvoiceResponse, error) {
	invoice, err := s.getLocked(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	charges, err := s.chargeRepo.GetByInvoiceID(ctx, invoice.ID)
	if err != nil {
		s.logger.Error("loadView: failed to load charges for invoice id=%d: %v", invoice.ID, err)
		return nil, fmt.Errorf("%w: loadView - load charges: %v", ErrInternal, err)
	}
	payments, err := s.paymentRepo.GetByInvoiceID(ctx, invoice.ID)
	if err != nil {
		s.logger.Error("loadView: failed to load payments for invoice id=%d: %v", invoice.ID, err)
		return nil, fmt.Errorf("%w: loadView - load payments: %v", ErrInternal, err)
	}

	totals, err := domain.ComputeInvoiceTotals(invoice, charges, payments, s.currency)
	if err != nil {
		s.logger.Error("loadView: failed to compute totals for invoice id=%d: %v", invoice.ID, err)
		return nil, fmt.Errorf("%w: loadView - compute totals: %v", ErrInternal, err)
	}

	overdue := invoice.Overdue(s.timeProvider.Now())
	return models.FromDomainInvoice(invoice, charges, payments, totals, overdue, s.currency), nil
}
