package rates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Тарифы базового сценария: день 100, неделя 600, месяц 2000
const (
	testDaily   = 100.0
	testWeekly  = 600.0
	testMonthly = 2000.0
)

func TestComputeOptimalCost(t *testing.T) {
	tests := []struct {
		name        string
		days        int
		wantMonths  int
		wantWeeks   int
		wantDays    int
		wantTotal   float64
		wantDesc    string
	}{
		{
			name:      "single day",
			days:      1,
			wantDays:  1,
			wantTotal: 100,
			wantDesc:  "1 day",
		},
		{
			name:      "exactly one week",
			days:      7,
			wantWeeks: 1,
			wantTotal: 600,
			wantDesc:  "1 week",
		},
		{
			name:       "month plus short remainder stays daily",
			days:       35,
			wantMonths: 1,
			wantDays:   5,
			wantTotal:  2500,
			wantDesc:   "1 month + 5 days",
		},
		{
			name:       "month plus two weeks",
			days:       44,
			wantMonths: 1,
			wantWeeks:  2,
			wantTotal:  3200,
			wantDesc:   "1 month + 2 weeks",
		},
		{
			name:       "exactly one month",
			days:       30,
			wantMonths: 1,
			wantTotal:  2000,
			wantDesc:   "1 month",
		},
		{
			name:       "two months",
			days:       60,
			wantMonths: 2,
			wantTotal:  4000,
			wantDesc:   "2 months",
		},
		{
			name:      "six days stay daily",
			days:      6,
			wantDays:  6,
			wantTotal: 600,
			wantDesc:  "6 days",
		},
		{
			name:       "full mix",
			days:       38,
			wantMonths: 1,
			wantWeeks:  1,
			wantDays:   1,
			wantTotal:  2700,
			wantDesc:   "1 month + 1 week + 1 day",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breakdown, err := ComputeOptimalCost(tt.days, testDaily, testWeekly, testMonthly, domain.LangEN)
			require.NoError(t, err)

			assert.Equal(t, tt.wantMonths, breakdown.MonthlyPeriods)
			assert.Equal(t, tt.wantWeeks, breakdown.WeeklyPeriods)
			assert.Equal(t, tt.wantDays, breakdown.DailyPeriods)
			assert.InDelta(t, tt.wantTotal, breakdown.TotalCost, 0.001)
			assert.Equal(t, tt.wantDesc, breakdown.Description)
		})
	}
}

func TestComputeOptimalCost_WeeklySkippedWhenDailyCheaper(t *testing.T) {
	// Неделя дороже семи дней по дневному тарифу: остаток целиком по дням
	breakdown, err := ComputeOptimalCost(9, 100, 800, 2000, domain.LangEN)
	require.NoError(t, err)

	assert.Equal(t, 0, breakdown.WeeklyPeriods)
	assert.Equal(t, 9, breakdown.DailyPeriods)
	assert.InDelta(t, 900, breakdown.TotalCost, 0.001)
	assert.Equal(t, "9 days", breakdown.Description)
}

func TestComputeOptimalCost_WeeklyTakenOnEqualCost(t *testing.T) {
	// При равной стоимости предпочитается недельный тариф
	breakdown, err := ComputeOptimalCost(7, 100, 700, 5000, domain.LangEN)
	require.NoError(t, err)

	assert.Equal(t, 1, breakdown.WeeklyPeriods)
	assert.Equal(t, 0, breakdown.DailyPeriods)
	assert.InDelta(t, 700, breakdown.TotalCost, 0.001)
}

func TestComputeOptimalCost_MonthsNeverRevisited(t *testing.T) {
	// 31 день: месяц выделяется даже когда 4 недели + 3 дня вышли бы дешевле
	breakdown, err := ComputeOptimalCost(31, 10, 50, 1000, domain.LangEN)
	require.NoError(t, err)

	assert.Equal(t, 1, breakdown.MonthlyPeriods)
	assert.Equal(t, 1, breakdown.DailyPeriods)
	assert.InDelta(t, 1010, breakdown.TotalCost, 0.001)
}

func TestComputeOptimalCost_InvalidDays(t *testing.T) {
	for _, days := range []int{0, -1, -30} {
		_, err := ComputeOptimalCost(days, testDaily, testWeekly, testMonthly, domain.LangEN)
		assert.ErrorIs(t, err, ErrInvalidDayCount, "days=%d", days)
	}
}

func TestComputeOptimalCost_RussianDescription(t *testing.T) {
	breakdown, err := ComputeOptimalCost(44, testDaily, testWeekly, testMonthly, domain.LangRU)
	require.NoError(t, err)

	assert.Equal(t, "1 месяц + 2 недели", breakdown.Description)
}

func TestComputeExtraCost(t *testing.T) {
	t.Run("quantity multiplies every component", func(t *testing.T) {
		breakdown, err := ComputeExtraCost(35, 2, 10, 60, 200, domain.LangEN)
		require.NoError(t, err)

		// на единицу: 1 месяц (200) + 5 дней (50) = 250
		assert.InDelta(t, 400, breakdown.MonthlyCost, 0.001)
		assert.InDelta(t, 100, breakdown.DailyCost, 0.001)
		assert.InDelta(t, 500, breakdown.TotalCost, 0.001)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		_, err := ComputeExtraCost(7, 0, 10, 60, 200, domain.LangEN)
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = ComputeExtraCost(7, -1, 10, 60, 200, domain.LangEN)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("invalid days", func(t *testing.T) {
		_, err := ComputeExtraCost(0, 1, 10, 60, 200, domain.LangEN)
		assert.ErrorIs(t, err, ErrInvalidDayCount)
	})
}

func TestCompareStandardVsOptimized(t *testing.T) {
	t.Run("44 days saves with tiling", func(t *testing.T) {
		cmp, err := CompareStandardVsOptimized(44, testDaily, testWeekly, testMonthly, domain.LangEN)
		require.NoError(t, err)

		// наивно: ceil(44/30) = 2 месяца = 4000; оптимально: 3200
		assert.InDelta(t, 4000, cmp.StandardCost, 0.001)
		assert.InDelta(t, 3200, cmp.OptimizedCost, 0.001)
		assert.InDelta(t, 800, cmp.Savings, 0.001)
		assert.True(t, cmp.IsOptimized)
	})

	t.Run("exact month has no savings", func(t *testing.T) {
		cmp, err := CompareStandardVsOptimized(30, testDaily, testWeekly, testMonthly, domain.LangEN)
		require.NoError(t, err)

		assert.InDelta(t, 2000, cmp.StandardCost, 0.001)
		assert.InDelta(t, 0, cmp.Savings, 0.001)
		assert.False(t, cmp.IsOptimized)
	})

	t.Run("short rental priced per day both ways", func(t *testing.T) {
		cmp, err := CompareStandardVsOptimized(3, testDaily, testWeekly, testMonthly, domain.LangEN)
		require.NoError(t, err)

		assert.InDelta(t, 300, cmp.StandardCost, 0.001)
		assert.InDelta(t, 300, cmp.OptimizedCost, 0.001)
		assert.False(t, cmp.IsOptimized)
	})
}
