package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент для работы с сервисом рассылки
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента сервиса рассылки
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// SendInvoiceEmail отправляет счет клиенту по электронной почте
func (c *Client) SendInvoiceEmail(ctx context.Context, req *SendInvoiceEmailRequest) error {
	url := fmt.Sprintf("%s/internal/emails/invoice", c.baseURL)

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s", ErrSendRejected, string(body))
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}
}

// SendInvoiceEmailWithGracefulDegradation отправляет счет с graceful degradation
// При недоступности сервиса рассылки возвращает ErrServiceDegraded: счет уже
// переведен в unpaid, неотправленное письмо не должно ломать переход
func (c *Client) SendInvoiceEmailWithGracefulDegradation(ctx context.Context, req *SendInvoiceEmailRequest) error {
	c.log.Info("Sending invoice email to=%s", req.To)

	if err := c.SendInvoiceEmail(ctx, req); err != nil {
		c.log.Error("Mailer unavailable, applying graceful degradation for to=%s: %v", req.To, err)
		return fmt.Errorf("%w: to=%s, error=%v", ErrServiceDegraded, req.To, err)
	}

	c.log.Info("Successfully sent invoice email to=%s", req.To)
	return nil
}
