package domain

// Loyalty program defaults, overridable via config
const (
	DefaultPointsPerCurrencyUnit = 0.1 // 1 point per 10 currency units spent
	DefaultPointValue            = 0.5 // discount value of a single point
	DefaultMinRedeemPoints       = 100
	DefaultExpiryMonths          = 24
)

// Business validation constants
const (
	MaxCancellationReasonLength = 500
	MaxExtraQuantity            = 10
	MaxRentalDays               = 365
)

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// BookingNumberPrefix префикс человекочитаемого номера бронирования
const BookingNumberPrefix = "RNT"

// InactiveStatuses список статусов, при которых бронирование
// не занимает автомобиль
// Используется при подсчёте пересечений дат
var InactiveStatuses = []BookingStatus{
	StatusCancelled,
	StatusClosed,
}

// ActiveStatuses список статусов активных бронирований
var ActiveStatuses = []BookingStatus{
	StatusOpen,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
}

// ConflictingStatuses статусы, учитываемые при проверке доступности:
// любое не отменённое бронирование конфликтует по датам
var ConflictingStatuses = []BookingStatus{
	StatusOpen,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusClosed,
}
