package rates

import "errors"

var (
	// ErrInvalidDayCount возвращается при неположительном количестве дней
	ErrInvalidDayCount = errors.New("rates: total days must be positive")

	// ErrInvalidQuantity возвращается при неположительном количестве услуг
	ErrInvalidQuantity = errors.New("rates: quantity must be positive")
)
