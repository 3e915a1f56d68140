package redeem_points

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/service/loyalty/models"
)

type LoyaltyService interface {
	Redeem(ctx context.Context, req *models.RedeemRequest) (*models.RedeemResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
