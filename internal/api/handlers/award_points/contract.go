package award_points

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/service/loyalty/models"
)

type LoyaltyService interface {
	Award(ctx context.Context, req *models.AwardRequest) (*models.AwardResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
