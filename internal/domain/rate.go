package domain

// Billing tier lengths in days
const (
	DaysPerMonth = 30
	DaysPerWeek  = 7
)

// RateBreakdown is the result of tiling a rental span into billing periods
// Invariant: TotalCost = MonthlyCost + WeeklyCost + DailyCost
type RateBreakdown struct {
	MonthlyPeriods int
	MonthlyCost    float64
	WeeklyPeriods  int
	WeeklyCost     float64
	DailyPeriods   int
	DailyCost      float64
	TotalCost      float64
	Description    string // human-readable, e.g. "1 month + 2 weeks"
}

// RateComparison compares the naive single-tier price against the tiled one
type RateComparison struct {
	StandardCost  float64
	OptimizedCost float64
	Savings       float64
	IsOptimized   bool
}
