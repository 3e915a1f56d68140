package create_booking

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	createBooking "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
)

// ExtraItem дополнительная услуга в HTTP запросе
type ExtraItem struct {
	ExtraID  int64 `json:"extraId"`
	Quantity int   `json:"quantity"`
}

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	VehicleID        int64       `json:"vehicleId"`
	PickupLocationID int64       `json:"pickupLocationId"`
	ReturnLocationID int64       `json:"returnLocationId"`
	StartDate        string      `json:"startDate"` // "2025-10-15"
	EndDate          string      `json:"endDate"`
	Extras           []ExtraItem `json:"extras,omitempty"`
	Language         string      `json:"language,omitempty"` // "en" | "ru"
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID               int64                           `json:"id"`
	Number           string                          `json:"number"`
	UserID           int64                           `json:"userId"`
	VehicleID        int64                           `json:"vehicleId"`
	PickupLocationID int64                           `json:"pickupLocationId"`
	ReturnLocationID int64                           `json:"returnLocationId"`
	StartDate        string                          `json:"startDate"`
	EndDate          string                          `json:"endDate"`
	Days             int                             `json:"days"`
	RentalCost       float64                         `json:"rentalCost"`
	ExtrasCost       float64                         `json:"extrasCost"`
	Discount         float64                         `json:"discount"`
	FinalAmount      float64                         `json:"finalAmount"`
	Status           string                          `json:"status"`
	StatusLabel      string                          `json:"statusLabel"`
	RentalBreakdown  createBooking.BreakdownResponse `json:"rentalBreakdown"`
	Lines            []createBooking.LineResponse    `json:"lines,omitempty"`
	CreatedAt        string                          `json:"createdAt"`
	UpdatedAt        string                          `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64) (*createBooking.Request, error) {
	startDate, err := time.Parse(domain.DateFormat, r.StartDate)
	if err != nil {
		return nil, err
	}

	endDate, err := time.Parse(domain.DateFormat, r.EndDate)
	if err != nil {
		return nil, err
	}

	extras := make([]createBooking.ExtraRequest, 0, len(r.Extras))
	for _, item := range r.Extras {
		extras = append(extras, createBooking.ExtraRequest{
			ExtraID:  item.ExtraID,
			Quantity: item.Quantity,
		})
	}

	return &createBooking.Request{
		UserID:           userID,
		VehicleID:        r.VehicleID,
		PickupLocationID: r.PickupLocationID,
		ReturnLocationID: r.ReturnLocationID,
		StartDate:        startDate,
		EndDate:          endDate,
		Extras:           extras,
		Language:         domain.ParseLanguage(r.Language),
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:               resp.ID,
		Number:           resp.Number,
		UserID:           resp.UserID,
		VehicleID:        resp.VehicleID,
		PickupLocationID: resp.PickupLocationID,
		ReturnLocationID: resp.ReturnLocationID,
		StartDate:        resp.StartDate,
		EndDate:          resp.EndDate,
		Days:             resp.Days,
		RentalCost:       resp.RentalCost,
		ExtrasCost:       resp.ExtrasCost,
		Discount:         resp.Discount,
		FinalAmount:      resp.FinalAmount,
		Status:           resp.Status,
		StatusLabel:      resp.StatusLabel,
		RentalBreakdown:  resp.RentalBreakdown,
		Lines:            resp.Lines,
		CreatedAt:        resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        resp.UpdatedAt.Format(time.RFC3339),
	}
}
