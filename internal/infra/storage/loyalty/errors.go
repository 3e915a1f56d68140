package loyalty

import "errors"

var (
	// ErrTransactionNotFound возвращается, когда транзакция не найдена
	ErrTransactionNotFound = errors.New("loyalty.repository: transaction not found")

	// ErrSummaryNotFound возвращается, когда у пользователя ещё нет сводки
	ErrSummaryNotFound = errors.New("loyalty.repository: summary not found")

	// ErrDuplicateAward возвращается при повторном начислении earned-транзакции
	// за одно и то же бронирование. Гарантия обеспечивается частичным
	// уникальным индексом (user_id, booking_id) WHERE type = 'earned'
	ErrDuplicateAward = errors.New("loyalty.repository: points already awarded for this booking")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("loyalty.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("loyalty.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("loyalty.repository: failed to scan row")
)
