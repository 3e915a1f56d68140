package estimate_rate

import (
	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// BreakdownResponse разбиение стоимости на тарифные периоды
type BreakdownResponse struct {
	MonthlyPeriods int     `json:"monthlyPeriods"`
	MonthlyCost    float64 `json:"monthlyCost"`
	WeeklyPeriods  int     `json:"weeklyPeriods"`
	WeeklyCost     float64 `json:"weeklyCost"`
	DailyPeriods   int     `json:"dailyPeriods"`
	DailyCost      float64 `json:"dailyCost"`
	TotalCost      float64 `json:"totalCost"`
	Description    string  `json:"description"`
}

// ComparisonResponse сравнение стандартной и оптимизированной стоимости
type ComparisonResponse struct {
	StandardCost  float64 `json:"standardCost"`
	OptimizedCost float64 `json:"optimizedCost"`
	Savings       float64 `json:"savings"`
	IsOptimized   bool    `json:"isOptimized"`
}

// EstimateResponse HTTP response model
type EstimateResponse struct {
	Days       int                `json:"days"`
	Breakdown  BreakdownResponse  `json:"breakdown"`
	Comparison ComparisonResponse `json:"comparison"`
}

func fromDomain(days int, b *domain.RateBreakdown, c *domain.RateComparison) *EstimateResponse {
	return &EstimateResponse{
		Days: days,
		Breakdown: BreakdownResponse{
			MonthlyPeriods: b.MonthlyPeriods,
			MonthlyCost:    b.MonthlyCost,
			WeeklyPeriods:  b.WeeklyPeriods,
			WeeklyCost:     b.WeeklyCost,
			DailyPeriods:   b.DailyPeriods,
			DailyCost:      b.DailyCost,
			TotalCost:      b.TotalCost,
			Description:    b.Description,
		},
		Comparison: ComparisonResponse{
			StandardCost:  c.StandardCost,
			OptimizedCost: c.OptimizedCost,
			Savings:       c.Savings,
			IsOptimized:   c.IsOptimized,
		},
	}
}
