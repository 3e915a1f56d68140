package award_points

import (
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/loyalty/models"
)

// AwardPointsRequest HTTP request model
type AwardPointsRequest struct {
	Points    int64  `json:"points"`
	Reason    string `json:"reason"`
	BookingID *int64 `json:"bookingId,omitempty"`
	Language  string `json:"language,omitempty"` // "en" | "ru"
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *AwardPointsRequest) ToServiceRequest(userID int64) *models.AwardRequest {
	return &models.AwardRequest{
		UserID:    userID,
		Points:    r.Points,
		Reason:    r.Reason,
		BookingID: r.BookingID,
		Language:  domain.ParseLanguage(r.Language),
	}
}
