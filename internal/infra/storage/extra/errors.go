package extra

import "errors"

var (
	// ErrExtraNotFound возвращается, когда дополнительная услуга не найдена
	ErrExtraNotFound = errors.New("extra.repository: extra service not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("extra.repository: failed to build query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("extra.repository: failed to scan row")
)
