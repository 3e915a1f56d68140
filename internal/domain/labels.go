package domain

import "fmt"

// Language is an explicit display language passed into formatting calls
// Never ambient or thread-local state
type Language string

const (
	LangEN Language = "en"
	LangRU Language = "ru"
)

// DefaultLanguage язык по умолчанию для описаний и подписей
const DefaultLanguage = LangEN

// ParseLanguage returns a supported language, falling back to the default
func ParseLanguage(s string) Language {
	switch Language(s) {
	case LangEN, LangRU:
		return Language(s)
	}
	return DefaultLanguage
}

// statusLabels статическая таблица подписей статусов бронирования
var statusLabels = map[BookingStatus]map[Language]string{
	StatusOpen:       {LangEN: "Open", LangRU: "Открыто"},
	StatusConfirmed:  {LangEN: "Confirmed", LangRU: "Подтверждено"},
	StatusInProgress: {LangEN: "In progress", LangRU: "В процессе"},
	StatusCompleted:  {LangEN: "Completed", LangRU: "Завершено"},
	StatusClosed:     {LangEN: "Closed", LangRU: "Закрыто"},
	StatusCancelled:  {LangEN: "Cancelled", LangRU: "Отменено"},
}

// transactionTypeLabels статическая таблица подписей типов транзакций
var transactionTypeLabels = map[LoyaltyTransactionType]map[Language]string{
	TransactionEarned:     {LangEN: "Earned", LangRU: "Начислено"},
	TransactionRedeemed:   {LangEN: "Redeemed", LangRU: "Списано"},
	TransactionExpired:    {LangEN: "Expired", LangRU: "Сгорело"},
	TransactionBonus:      {LangEN: "Bonus", LangRU: "Бонус"},
	TransactionRefund:     {LangEN: "Refund", LangRU: "Возврат"},
	TransactionAdjustment: {LangEN: "Adjustment", LangRU: "Корректировка"},
}

// Label returns the display text of a booking status for the given language
func (s BookingStatus) Label(lang Language) string {
	if forms, ok := statusLabels[s]; ok {
		if label, ok := forms[lang]; ok {
			return label
		}
		return forms[DefaultLanguage]
	}
	return string(s)
}

// Label returns the display text of a transaction type for the given language
func (t LoyaltyTransactionType) Label(lang Language) string {
	if forms, ok := transactionTypeLabels[t]; ok {
		if label, ok := forms[lang]; ok {
			return label
		}
		return forms[DefaultLanguage]
	}
	return string(t)
}

// RateUnit is a billing tier unit used in breakdown descriptions
type RateUnit int

const (
	UnitMonth RateUnit = iota
	UnitWeek
	UnitDay
)

// rateUnitForms формы единиц измерения: [одна, несколько, много]
// Для английского достаточно двух форм, для русского нужны три
var rateUnitForms = map[Language]map[RateUnit][3]string{
	LangEN: {
		UnitMonth: {"month", "months", "months"},
		UnitWeek:  {"week", "weeks", "weeks"},
		UnitDay:   {"day", "days", "days"},
	},
	LangRU: {
		UnitMonth: {"месяц", "месяца", "месяцев"},
		UnitWeek:  {"неделя", "недели", "недель"},
		UnitDay:   {"день", "дня", "дней"},
	},
}

// FormatPeriod returns "N <unit>" with the correct plural form
func FormatPeriod(lang Language, unit RateUnit, n int) string {
	forms, ok := rateUnitForms[lang]
	if !ok {
		forms = rateUnitForms[DefaultLanguage]
	}
	return fmt.Sprintf("%d %s", n, forms[unit][pluralIndex(lang, n)])
}

// pluralIndex выбирает форму множественного числа
// Для русского действует стандартное правило: 1 / 2-4 / 5-20
func pluralIndex(lang Language, n int) int {
	if n < 0 {
		n = -n
	}
	if lang == LangRU {
		if n%100 >= 11 && n%100 <= 14 {
			return 2
		}
		switch n % 10 {
		case 1:
			return 0
		case 2, 3, 4:
			return 1
		default:
			return 2
		}
	}
	if n == 1 {
		return 0
	}
	return 1
}
