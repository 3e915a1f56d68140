package redeem_points

import (
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/loyalty/models"
)

// RedeemPointsRequest HTTP request model
type RedeemPointsRequest struct {
	Points    int64  `json:"points"`
	BookingID *int64 `json:"bookingId,omitempty"`
	Language  string `json:"language,omitempty"` // "en" | "ru"
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *RedeemPointsRequest) ToServiceRequest(userID int64) *models.RedeemRequest {
	return &models.RedeemRequest{
		UserID:    userID,
		Points:    r.Points,
		BookingID: r.BookingID,
		Language:  domain.ParseLanguage(r.Language),
	}
}
