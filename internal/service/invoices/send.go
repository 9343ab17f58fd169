package invoices

import (
	"context"
	"fmt"
	"strings"

	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/internal/integrations/mailer"
	"github.com/cerberus-crm/booking-service/internal/integrations/pdfrender"
	"github.com/cerberus-crm/booking-service/internal/service/invoices/models"
)

// Send переводит счет draft -> unpaid: снимает снимок данных клиента,
// назначает срок оплаты и после фиксации транзакции отправляет письмо
// с PDF. Неудавшаяся отправка не откатывает переход
func (s *Service) Send(ctx context.Context, invoiceID int64, req *models.SendInvoiceRequest) (*models.InvoiceResponse, error) {
	s.logger.Info("Send: sending invoice id=%d", invoiceID)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		invoice, err := s.getLocked(txCtx, invoiceID)
		if err != nil {
			return err
		}

		next, err := domain.NextInvoiceState(invoice.State, domain.InvoiceActionSend)
		if err != nil {
			s.logger.Warn("Send: invoice id=%d in state=%s cannot be sent", invoice.ID, invoice.State)
			return err
		}

		if invoice.CustomerID == nil {
			s.logger.Warn("Send: invoice id=%d has no customer", invoice.ID)
			return ErrCustomerNotSet
		}
		customer, err := s.customerRepo.GetByID(txCtx, *invoice.CustomerID)
		if err != nil {
			s.logger.Error("Send: failed to get customer id=%d: %v", *invoice.CustomerID, err)
			return fmt.Errorf("%w: Send - get customer: %v", ErrInternal, err)
		}

		if !invoice.CanSend(customer) {
			issues := strings.Join(customer.Issues(), "; ")
			s.logger.Warn("Send: customer id=%d has data issues: %s", customer.ID, issues)
			return fmt.Errorf("%w: %s", domain.ErrCustomerDataIssues, issues)
		}

		// Снимок данных клиента: правки клиента не меняют историю
		invoice.CustomerName = customer.Name
		invoice.InvoiceAddress = customer.InvoiceAddress
		invoice.SentTo = customer.InvoiceEmail
		if req.To != nil && *req.To != "" {
			invoice.SentTo = *req.To
		}
		if req.Notes != nil {
			invoice.SendNotes = *req.Notes
		}
		if invoice.Due == nil {
			due := s.timeProvider.Now().AddDate(0, 0, s.dueDays)
			invoice.Due = &due
		}

		if err := s.invoiceRepo.UpdateSnapshot(txCtx, invoice); err != nil {
			s.logger.Error("Send: failed to snapshot invoice id=%d: %v", invoice.ID, err)
			return fmt.Errorf("%w: Send - update snapshot: %v", ErrInternal, err)
		}
		if err := s.invoiceRepo.UpdateState(txCtx, invoice.ID, next); err != nil {
			s.logger.Error("Send: failed to update invoice id=%d: %v", invoice.ID, err)
			return fmt.Errorf("%w: Send - update state: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if req.SendEmail == nil || *req.SendEmail {
		sent := s.dispatchEmail(ctx, invoiceID) == nil
		resp.EmailSent = &sent
	}

	s.logger.Info("Send: invoice id=%d sent to %s", invoiceID, resp.SentTo)
	return resp, nil
}

// Resend повторно отправляет неоплаченный счет записанному получателю
func (s *Service) Resend(ctx context.Context, invoiceID int64) (*models.InvoiceResponse, error) {
	s.logger.Info("Resend: resending invoice id=%d", invoiceID)

	resp, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if domain.InvoiceState(resp.State) != domain.InvoiceStateUnpaid {
		s.logger.Warn("Resend: invoice id=%d in state=%s cannot be resent", invoiceID, resp.State)
		return nil, fmt.Errorf("%w: resend from %s", domain.ErrTransitionNotAllowed, resp.State)
	}
	if resp.SentTo == "" {
		s.logger.Warn("Resend: invoice id=%d has no recorded recipient", invoiceID)
		return nil, ErrNotSent
	}

	sent := s.dispatchEmail(ctx, invoiceID) == nil
	resp.EmailSent = &sent
	return resp, nil
}

// DownloadPDF отрисовывает PDF счета и возвращает содержимое с именем файла
func (s *Service) DownloadPDF(ctx context.Context, invoiceID int64) ([]byte, string, error) {
	s.logger.Info("DownloadPDF: rendering invoice id=%d", invoiceID)

	renderReq, number, err := s.buildRenderRequest(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}

	pdf, err := s.pdfClient.RenderInvoice(ctx, renderReq)
	if err != nil {
		s.logger.Error("DownloadPDF: failed to render invoice id=%d: %v", invoiceID, err)
		return nil, "", fmt.Errorf("%w: DownloadPDF - render: %v", ErrInternal, err)
	}

	return pdf, number + ".pdf", nil
}

// dispatchEmail отрисовывает PDF и отправляет письмо получателю счета.
// Ошибка отправки логируется и не влияет на состояние счета
func (s *Service) dispatchEmail(ctx context.Context, invoiceID int64) error {
	renderReq, number, err := s.buildRenderRequest(ctx, invoiceID)
	if err != nil {
		return err
	}

	var invoice *domain.Invoice
	err = s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		inv, err := s.getLocked(txCtx, invoiceID)
		if err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		return err
	}

	pdf, err := s.pdfClient.RenderInvoice(ctx, renderReq)
	if err != nil {
		s.logger.Error("dispatchEmail: failed to render invoice id=%d: %v", invoiceID, err)
		return err
	}

	emailReq := &mailer.SendInvoiceEmailRequest{
		To:         invoice.SentTo,
		Subject:    fmt.Sprintf("Invoice %s", number),
		Body:       invoice.SendNotes,
		Filename:   number + ".pdf",
		Attachment: pdf,
	}
	if err := s.mailerClient.SendInvoiceEmailWithGracefulDegradation(ctx, emailReq); err != nil {
		s.logger.Error("dispatchEmail: failed to send invoice id=%d to %s: %v", invoiceID, invoice.SentTo, err)
		return err
	}

	s.logger.Info("dispatchEmail: invoice id=%d emailed to %s", invoiceID, invoice.SentTo)
	return nil
}

// buildRenderRequest собирает запрос на отрисовку из счета, начислений
// и вычисленных итогов
func (s *Service) buildRenderRequest(ctx context.Context, invoiceID int64) (*pdfrender.RenderInvoiceRequest, string, error) {
	var (
		invoice  *domain.Invoice
		charges  []*domain.Charge
		payments []*domain.Payment
	)
	err := s.txManager.DoReadOnly(ctx, func(txCtx context.Context) error {
		inv, err := s.getLocked(txCtx, invoiceID)
		if err != nil {
			return err
		}

		chs, err := s.chargeRepo.GetByInvoiceID(txCtx, inv.ID)
		if err != nil {
			return fmt.Errorf("%w: buildRenderRequest - load charges: %v", ErrInternal, err)
		}
		pms, err := s.paymentRepo.GetByInvoiceID(txCtx, inv.ID)
		if err != nil {
			return fmt.Errorf("%w: buildRenderRequest - load payments: %v", ErrInternal, err)
		}

		invoice, charges, payments = inv, chs, pms
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	totals, err := domain.ComputeInvoiceTotals(invoice, charges, payments, s.currency)
	if err != nil {
		return nil, "", fmt.Errorf("%w: buildRenderRequest - compute totals: %v", ErrInternal, err)
	}

	req := &pdfrender.RenderInvoiceRequest{
		Number:         invoice.Name(),
		CustomerName:   invoice.CustomerName,
		InvoiceAddress: invoice.InvoiceAddress,
		Details:        invoice.Details,
		Items:          make([]pdfrender.LineItem, 0, len(charges)),
		Subtotal:       totals.Subtotal.Amount.String(),
		Adjustment:     invoice.Adjustment.Amount.String(),
		Total:          totals.Total.Amount.String(),
		Currency:       s.currency,
	}
	if invoice.Due != nil {
		req.Due = invoice.Due.Format(domain.DateFormat)
	}
	for _, c := range charges {
		req.Items = append(req.Items, pdfrender.LineItem{
			Name:     c.Name,
			Line:     c.Line.Amount.String(),
			Quantity: c.Quantity,
			Amount:   c.Amount().Amount.String(),
		})
	}

	return req, invoice.Name(), nil
}
