package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, LangEN, ParseLanguage("en"))
	assert.Equal(t, LangRU, ParseLanguage("ru"))
	assert.Equal(t, DefaultLanguage, ParseLanguage(""))
	assert.Equal(t, DefaultLanguage, ParseLanguage("de"))
	assert.Equal(t, DefaultLanguage, ParseLanguage("EN"))
}

func TestFormatPeriod_English(t *testing.T) {
	assert.Equal(t, "1 month", FormatPeriod(LangEN, UnitMonth, 1))
	assert.Equal(t, "2 months", FormatPeriod(LangEN, UnitMonth, 2))
	assert.Equal(t, "1 week", FormatPeriod(LangEN, UnitWeek, 1))
	assert.Equal(t, "5 days", FormatPeriod(LangEN, UnitDay, 5))
	assert.Equal(t, "21 days", FormatPeriod(LangEN, UnitDay, 21))
}

func TestFormatPeriod_Russian(t *testing.T) {
	tests := []struct {
		n    int
		unit RateUnit
		want string
	}{
		{1, UnitMonth, "1 месяц"},
		{2, UnitMonth, "2 месяца"},
		{5, UnitMonth, "5 месяцев"},
		{11, UnitMonth, "11 месяцев"}, // 11-14 всегда третья форма
		{12, UnitDay, "12 дней"},
		{21, UnitDay, "21 день"},
		{22, UnitDay, "22 дня"},
		{25, UnitDay, "25 дней"},
		{1, UnitWeek, "1 неделя"},
		{3, UnitWeek, "3 недели"},
		{7, UnitWeek, "7 недель"},
		{111, UnitDay, "111 дней"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPeriod(LangRU, tt.unit, tt.n))
	}
}

func TestFormatPeriod_UnknownLanguageFallsBack(t *testing.T) {
	assert.Equal(t, "3 weeks", FormatPeriod(Language("de"), UnitWeek, 3))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Open", StatusOpen.Label(LangEN))
	assert.Equal(t, "Отменено", StatusCancelled.Label(LangRU))
	// Неизвестный язык откатывается на дефолтный
	assert.Equal(t, "Closed", StatusClosed.Label(Language("de")))
}

func TestTransactionTypeLabel(t *testing.T) {
	assert.Equal(t, "Earned", TransactionEarned.Label(LangEN))
	assert.Equal(t, "Сгорело", TransactionExpired.Label(LangRU))
}
