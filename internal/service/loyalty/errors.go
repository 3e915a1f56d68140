package loyalty

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("loyalty: invalid input data")

	// ErrBelowMinRedemption возвращается при списании меньше минимального порога
	ErrBelowMinRedemption = errors.New("loyalty: points below minimum redemption")

	// ErrInsufficientBalance возвращается, когда баллов на балансе не хватает
	ErrInsufficientBalance = errors.New("loyalty: insufficient points balance")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("loyalty: internal error")
)
