package get_points_summary

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/loyalty/models"
)

type LoyaltyService interface {
	GetSummary(ctx context.Context, userID int64) (*models.SummaryResponse, error)
	GetTransactions(ctx context.Context, userID int64, lang domain.Language) ([]*models.TransactionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
