package update_charge

import (
	"context"

	"github.com/cerberus-crm/booking-service/internal/service/charges/models"
)

type ChargeService interface {
	Update(ctx context.Context, chargeID int64, req *models.UpdateChargeRequest) (*models.ChargeResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
