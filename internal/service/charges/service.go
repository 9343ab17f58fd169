package charges

import (
	"context"
	"errors"
	"fmt"

	"github.com/cerberus-crm/booking-service/internal/domain"
	chargeRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/charge"
	"github.com/cerberus-crm/booking-service/internal/service/charges/models"
)

// Service сервис переходов начислений
type Service struct {
	chargeRepo  ChargeRepository
	invoiceRepo InvoiceRepository
	txManager   TransactionManager
	logger      Logger
}

// NewService создает новый экземпляр сервиса начислений
func NewService(chargeRepo ChargeRepository, invoiceRepo InvoiceRepository, txManager TransactionManager, logger Logger) *Service {
	return &Service{
		chargeRepo:  chargeRepo,
		invoiceRepo: invoiceRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Update изменяет имя, цену и количество начисления.
// Начисление на выставленном счете заморожено: исторические суммы
// отправленного счета не меняются
func (s *Service) Update(ctx context.Context, chargeID int64, req *models.UpdateChargeRequest) (*models.ChargeResponse, error) {
	s.logger.Info("Update: updating charge id=%d", chargeID)

	var result *domain.Charge
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		charge, err := s.getLocked(txCtx, chargeID)
		if err != nil {
			return err
		}

		frozen, err := s.isFrozen(txCtx, charge)
		if err != nil {
			return err
		}
		if frozen {
			s.logger.Warn("Update: charge id=%d is frozen on invoice id=%d", charge.ID, *charge.InvoiceID)
			return ErrChargeNotEditable
		}

		if req.Name != nil {
			if *req.Name == "" {
				return fmt.Errorf("%w: name must not be empty", ErrInvalidUpdate)
			}
			charge.Name = *req.Name
		}
		if req.Line != nil {
			line, err := domain.NewMoneyFromString(*req.Line, charge.Line.Currency)
			if err != nil {
				s.logger.Warn("Update: invalid line %q for charge id=%d", *req.Line, charge.ID)
				return fmt.Errorf("%w: line: %v", ErrInvalidUpdate, err)
			}
			charge.Line = line
		}
		if req.Quantity != nil {
			if *req.Quantity <= 0 {
				return fmt.Errorf("%w: quantity must be positive", ErrInvalidUpdate)
			}
			charge.Quantity = *req.Quantity
		}

		if err := s.chargeRepo.Update(txCtx, charge, frozen); err != nil {
			s.logger.Error("Update: failed to update charge id=%d: %v", charge.ID, err)
			return fmt.Errorf("%w: Update - update charge: %v", ErrInternal, err)
		}

		result = charge
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Update: charge id=%d updated", result.ID)
	return models.FromDomainCharge(result), nil
}

// isFrozen проверяет, можно ли менять финансовые поля начисления:
// начисление свободно, пока не привязано к счету или счет остается черновиком
func (s *Service) isFrozen(ctx context.Context, charge *domain.Charge) (bool, error) {
	if charge.InvoiceID == nil {
		return false, nil
	}
	invoice, err := s.invoiceRepo.GetByID(ctx, *charge.InvoiceID)
	if err != nil {
		s.logger.Error("failed to get invoice id=%d for charge id=%d: %v", *charge.InvoiceID, charge.ID, err)
		return false, fmt.Errorf("%w: get invoice: %v", ErrInternal, err)
	}
	return !invoice.CanEdit(), nil
}

// Pay переводит начисление unpaid -> paid и фиксирует дату оплаты
func (s *Service) Pay(ctx context.Context, chargeID int64) (*models.ChargeResponse, error) {
	s.logger.Info("Pay: paying charge id=%d", chargeID)

	var result *domain.Charge
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		charge, err := s.getLocked(txCtx, chargeID)
		if err != nil {
			return err
		}

		next, err := domain.NextChargeState(charge.State, domain.ChargeActionPay)
		if err != nil {
			s.logger.Warn("Pay: charge id=%d in state=%s cannot be paid", charge.ID, charge.State)
			return err
		}

		if err := s.chargeRepo.UpdateState(txCtx, charge.ID, next); err != nil {
			s.logger.Error("Pay: failed to update charge id=%d: %v", charge.ID, err)
			return fmt.Errorf("%w: Pay - update state: %v", ErrInternal, err)
		}

		charge.State = next
		result = charge
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Pay: charge id=%d paid", result.ID)
	return models.FromDomainCharge(result), nil
}

// Void аннулирует неоплаченное начисление и отвязывает его от счета
func (s *Service) Void(ctx context.Context, chargeID int64) (*models.ChargeResponse, error) {
	s.logger.Info("Void: voiding charge id=%d", chargeID)

	var result *domain.Charge
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		charge, err := s.getLocked(txCtx, chargeID)
		if err != nil {
			return err
		}

		next, err := domain.NextChargeState(charge.State, domain.ChargeActionVoid)
		if err != nil {
			s.logger.Warn("Void: charge id=%d in state=%s cannot be voided", charge.ID, charge.State)
			return err
		}

		if err := s.chargeRepo.UpdateState(txCtx, charge.ID, next); err != nil {
			s.logger.Error("Void: failed to update charge id=%d: %v", charge.ID, err)
			return fmt.Errorf("%w: Void - update state: %v", ErrInternal, err)
		}
		if charge.InvoiceID != nil {
			if err := s.chargeRepo.SetInvoice(txCtx, charge.ID, nil); err != nil {
				s.logger.Error("Void: failed to detach charge id=%d from invoice: %v", charge.ID, err)
				return fmt.Errorf("%w: Void - detach invoice: %v", ErrInternal, err)
			}
			charge.InvoiceID = nil
		}

		charge.State = next
		result = charge
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Void: charge id=%d voided", result.ID)
	return models.FromDomainCharge(result), nil
}

// Refund создает дочернее начисление-возврат с отрицательной суммой.
// Сумма по умолчанию равна остатку, который еще можно вернуть.
// Родительское начисление остается в состоянии paid
func (s *Service) Refund(ctx context.Context, chargeID int64, amount *string) (*models.ChargeResponse, error) {
	s.logger.Info("Refund: refunding charge id=%d", chargeID)

	var result *domain.Charge
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		charge, err := s.getLocked(txCtx, chargeID)
		if err != nil {
			return err
		}

		refunds, err := s.chargeRepo.GetRefunds(txCtx, charge.ID)
		if err != nil {
			s.logger.Error("Refund: failed to load refunds for charge id=%d: %v", charge.ID, err)
			return fmt.Errorf("%w: Refund - load refunds: %v", ErrInternal, err)
		}

		var refundAmount *domain.Money
		if amount != nil {
			parsed, err := domain.NewMoneyFromString(*amount, charge.Line.Currency)
			if err != nil {
				s.logger.Warn("Refund: invalid amount %q for charge id=%d", *amount, charge.ID)
				return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
			}
			refundAmount = &parsed
		}

		refund, err := charge.NewRefund(refundAmount, refunds)
		if err != nil {
			s.logger.Warn("Refund: charge id=%d refund rejected: %v", charge.ID, err)
			return err
		}

		created, err := s.chargeRepo.Create(txCtx, refund)
		if err != nil {
			s.logger.Error("Refund: failed to create refund for charge id=%d: %v", charge.ID, err)
			return fmt.Errorf("%w: Refund - create refund: %v", ErrInternal, err)
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Refund: charge id=%d refunded by charge id=%d, amount=%s",
		chargeID, result.ID, result.Amount())
	return models.FromDomainCharge(result), nil
}

// Delete удаляет начисление. Начисления не удаляются физически,
// удаление выражается аннулированием
func (s *Service) Delete(ctx context.Context, chargeID int64) (*models.ChargeResponse, error) {
	return s.Void(ctx, chargeID)
}

func (s *Service) getLocked(ctx context.Context, chargeID int64) (*domain.Charge, error) {
	charge, err := s.chargeRepo.GetByID(ctx, chargeID)
	if err != nil {
		if errors.Is(err, chargeRepo.ErrChargeNotFound) {
			s.logger.Warn("charge id=%d not found", chargeID)
			return nil, ErrChargeNotFound
		}
		s.logger.Error("failed to get charge id=%d: %v", chargeID, err)
		return nil, fmt.Errorf("%w: get charge: %v", ErrInternal, err)
	}
	return charge, nil
}
