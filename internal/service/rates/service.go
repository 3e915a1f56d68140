// Package rates вычисляет оптимальную стоимость аренды разбиением
// срока на тарифные периоды: месяцы, недели, дни
package rates

import (
	"math"
	"strings"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// ComputeOptimalCost раскладывает срок аренды на тарифные периоды
// жадным алгоритмом: сначала месяцы, затем недели, затем дни
//
// Алгоритм намеренно не глобально оптимален: выделенные месяцы никогда
// не пересматриваются, даже если меньше месяцев плюс недели/дни вышли бы
// дешевле. Это бизнес-политика "всегда предпочитать длинный тариф";
// менять её без подтверждения продукта нельзя
func ComputeOptimalCost(totalDays int, dailyRate, weeklyRate, monthlyRate float64, lang domain.Language) (*domain.RateBreakdown, error) {
	if totalDays <= 0 {
		return nil, ErrInvalidDayCount
	}

	breakdown := &domain.RateBreakdown{}

	// 1. Месяцы: максимум целых месяцев без пересмотра
	breakdown.MonthlyPeriods = totalDays / domain.DaysPerMonth
	breakdown.MonthlyCost = float64(breakdown.MonthlyPeriods) * monthlyRate
	remainder := totalDays % domain.DaysPerMonth

	// 2. Недели: берём недельный тариф, только если он не дороже,
	// чем оплата всего остатка по дневному тарифу
	if remainder >= domain.DaysPerWeek {
		weeksNeeded := remainder / domain.DaysPerWeek
		weeklyCost := float64(weeksNeeded) * weeklyRate
		allDailyCost := float64(remainder) * dailyRate

		if weeklyCost <= allDailyCost {
			breakdown.WeeklyPeriods = weeksNeeded
			breakdown.WeeklyCost = weeklyCost
			remainder -= weeksNeeded * domain.DaysPerWeek
		}
	}

	// 3. Дни: всё, что осталось
	breakdown.DailyPeriods = remainder
	breakdown.DailyCost = float64(remainder) * dailyRate

	breakdown.TotalCost = breakdown.MonthlyCost + breakdown.WeeklyCost + breakdown.DailyCost
	breakdown.Description = describe(breakdown, lang)

	return breakdown, nil
}

// ComputeExtraCost вычисляет стоимость дополнительной услуги:
// тот же срок раскладывается по тарифам услуги, после чего все три
// составляющие умножаются на количество
func ComputeExtraCost(totalDays, quantity int, dailyRate, weeklyRate, monthlyRate float64, lang domain.Language) (*domain.RateBreakdown, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	breakdown, err := ComputeOptimalCost(totalDays, dailyRate, weeklyRate, monthlyRate, lang)
	if err != nil {
		return nil, err
	}

	qty := float64(quantity)
	breakdown.MonthlyCost *= qty
	breakdown.WeeklyCost *= qty
	breakdown.DailyCost *= qty
	breakdown.TotalCost *= qty

	return breakdown, nil
}

// CompareStandardVsOptimized сравнивает наивную стоимость по одному тарифу
// с оптимизированным разбиением
//
// Наивная стоимость: от 30 дней - целые месяцы с округлением вверх,
// от 7 дней - целые недели с округлением вверх, иначе по дням
func CompareStandardVsOptimized(totalDays int, dailyRate, weeklyRate, monthlyRate float64, lang domain.Language) (*domain.RateComparison, error) {
	breakdown, err := ComputeOptimalCost(totalDays, dailyRate, weeklyRate, monthlyRate, lang)
	if err != nil {
		return nil, err
	}

	var standard float64
	switch {
	case totalDays >= domain.DaysPerMonth:
		standard = math.Ceil(float64(totalDays)/domain.DaysPerMonth) * monthlyRate
	case totalDays >= domain.DaysPerWeek:
		standard = math.Ceil(float64(totalDays)/domain.DaysPerWeek) * weeklyRate
	default:
		standard = float64(totalDays) * dailyRate
	}

	savings := standard - breakdown.TotalCost

	return &domain.RateComparison{
		StandardCost:  standard,
		OptimizedCost: breakdown.TotalCost,
		Savings:       savings,
		IsOptimized:   savings > 0,
	}, nil
}

// describe собирает человекочитаемое описание из ненулевых периодов,
// например "1 month + 2 weeks"
func describe(b *domain.RateBreakdown, lang domain.Language) string {
	parts := make([]string, 0, 3)

	if b.MonthlyPeriods > 0 {
		parts = append(parts, domain.FormatPeriod(lang, domain.UnitMonth, b.MonthlyPeriods))
	}
	if b.WeeklyPeriods > 0 {
		parts = append(parts, domain.FormatPeriod(lang, domain.UnitWeek, b.WeeklyPeriods))
	}
	if b.DailyPeriods > 0 {
		parts = append(parts, domain.FormatPeriod(lang, domain.UnitDay, b.DailyPeriods))
	}

	return strings.Join(parts, " + ")
}
