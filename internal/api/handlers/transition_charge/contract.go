package transition_charge

import (
	"context"

	"github.com/cerberus-crm/booking-service/internal/service/charges/models"
)

type ChargeService interface {
	Pay(ctx context.Context, chargeID int64) (*models.ChargeResponse, error)
	Void(ctx context.Context, chargeID int64) (*models.ChargeResponse, error)
	Refund(ctx context.Context, chargeID int64, amount *string) (*models.ChargeResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
