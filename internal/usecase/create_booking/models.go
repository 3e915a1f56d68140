package create_booking

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// ExtraRequest дополнительная услуга в запросе на бронирование
type ExtraRequest struct {
	ExtraID  int64 `json:"extraId"`
	Quantity int   `json:"quantity"`
}

// Request запрос на создание бронирования
type Request struct {
	UserID           int64
	VehicleID        int64
	PickupLocationID int64
	ReturnLocationID int64
	StartDate        time.Time // включительно
	EndDate          time.Time // исключительно, EndDate > StartDate
	Extras           []ExtraRequest
	Language         domain.Language
}

// BreakdownResponse разбиение стоимости на тарифные периоды
type BreakdownResponse struct {
	MonthlyPeriods int     `json:"monthlyPeriods"`
	MonthlyCost    float64 `json:"monthlyCost"`
	WeeklyPeriods  int     `json:"weeklyPeriods"`
	WeeklyCost     float64 `json:"weeklyCost"`
	DailyPeriods   int     `json:"dailyPeriods"`
	DailyCost      float64 `json:"dailyCost"`
	TotalCost      float64 `json:"totalCost"`
	Description    string  `json:"description"` // например "1 month + 2 weeks"
}

// LineResponse строка дополнительной услуги с зафиксированной ценой
type LineResponse struct {
	ExtraID    int64   `json:"extraId"`
	ExtraName  string  `json:"extraName"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// Response ответ с созданным бронированием
type Response struct {
	ID               int64  `json:"id"`
	Number           string `json:"number"`
	UserID           int64  `json:"userId"`
	VehicleID        int64  `json:"vehicleId"`
	PickupLocationID int64  `json:"pickupLocationId"`
	ReturnLocationID int64  `json:"returnLocationId"`
	StartDate        string `json:"startDate"` // "2025-10-15"
	EndDate          string `json:"endDate"`
	Days             int    `json:"days"`

	RentalCost  float64 `json:"rentalCost"`
	ExtrasCost  float64 `json:"extrasCost"`
	Discount    float64 `json:"discount"`
	FinalAmount float64 `json:"finalAmount"`

	Status      string `json:"status"`
	StatusLabel string `json:"statusLabel"`

	RentalBreakdown BreakdownResponse `json:"rentalBreakdown"`
	Lines           []LineResponse    `json:"lines,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// fromDomainBreakdown конвертирует domain модель разбиения в DTO
func fromDomainBreakdown(b *domain.RateBreakdown) BreakdownResponse {
	return BreakdownResponse{
		MonthlyPeriods: b.MonthlyPeriods,
		MonthlyCost:    b.MonthlyCost,
		WeeklyPeriods:  b.WeeklyPeriods,
		WeeklyCost:     b.WeeklyCost,
		DailyPeriods:   b.DailyPeriods,
		DailyCost:      b.DailyCost,
		TotalCost:      b.TotalCost,
		Description:    b.Description,
	}
}
