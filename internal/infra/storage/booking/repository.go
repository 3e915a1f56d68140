package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"number",
	"user_id",
	"vehicle_id",
	"pickup_location_id",
	"return_location_id",
	"start_date",
	"end_date",
	"rental_cost",
	"extras_cost",
	"discount",
	"final_amount",
	"status",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями и их строками услуг
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает бронирование вместе со строками дополнительных услуг
// Цены строк фиксируются на момент создания и больше не пересчитываются
//
// Должен вызываться внутри транзакции (см. pkg/txmanager): проверка
// доступности автомобиля и вставка обязаны быть атомарными
func (r *Repository) Create(ctx context.Context, booking *domain.Booking, lines []*domain.BookingLine) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"number",
			"user_id",
			"vehicle_id",
			"pickup_location_id",
			"return_location_id",
			"start_date",
			"end_date",
			"rental_cost",
			"extras_cost",
			"discount",
			"final_amount",
			"status",
		).
		Values(
			booking.Number,
			booking.UserID,
			booking.VehicleID,
			booking.PickupLocationID,
			booking.ReturnLocationID,
			booking.StartDate,
			booking.EndDate,
			booking.RentalCost,
			booking.ExtrasCost,
			booking.Discount,
			booking.FinalAmount,
			booking.Status,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	for _, line := range lines {
		line.BookingID = booking.ID
		if err := r.insertLine(ctx, executor, line); err != nil {
			return nil, err
		}
	}

	return booking, nil
}

func (r *Repository) insertLine(ctx context.Context, executor DBExecutor, line *domain.BookingLine) error {
	query, args, err := psqlbuilder.Insert("booking_lines").
		Columns(
			"booking_id",
			"extra_id",
			"extra_name",
			"quantity",
			"unit_price",
			"total_price",
		).
		Values(
			line.BookingID,
			line.ExtraID,
			line.ExtraName,
			line.Quantity,
			line.UnitPrice,
			line.TotalPrice,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: insertLine - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&line.ID, &createdAt); err != nil {
		return fmt.Errorf("%w: insertLine - execute insert: %v", ErrExecQuery, err)
	}
	line.CreatedAt = createdAt.Time

	return nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	// Внутри транзакции блокируем строку до конца транзакции
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	return r.scanBooking(executor.QueryRowContext(ctx, query, args...))
}

// GetLines получает строки дополнительных услуг бронирования
func (r *Repository) GetLines(ctx context.Context, bookingID int64) ([]*domain.BookingLine, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"booking_id",
		"extra_id",
		"extra_name",
		"quantity",
		"unit_price",
		"total_price",
		"created_at",
	).
		From("booking_lines").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetLines - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetLines - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	lines := make([]*domain.BookingLine, 0)
	for rows.Next() {
		var line domain.BookingLine
		var createdAt sql.NullTime
		err := rows.Scan(
			&line.ID,
			&line.BookingID,
			&line.ExtraID,
			&line.ExtraName,
			&line.Quantity,
			&line.UnitPrice,
			&line.TotalPrice,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: GetLines - scan row: %v", ErrScanRow, err)
		}
		line.CreatedAt = createdAt.Time
		lines = append(lines, &line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetLines - rows error: %v", ErrScanRow, err)
	}

	return lines, nil
}

// GetByUserID получает список бронирований пользователя
// Опционально фильтрует по статусу
func (r *Repository) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("start_date DESC, id DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// CountOverlapping подсчитывает не отменённые бронирования автомобиля,
// пересекающиеся с диапазоном [start, end)
//
// Пересечение проверяется по включающим границам: существующее бронирование,
// заканчивающееся в день start (или начинающееся в день end), считается
// конфликтом. Смягчать правило без подтверждения продукта нельзя
func (r *Repository) CountOverlapping(ctx context.Context, vehicleID int64, start, end time.Time, excludeBookingID *int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := overlapQuery(vehicleID, start, end, excludeBookingID)
	if err != nil {
		return 0, fmt.Errorf("%w: CountOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountOverlapping - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// overlapQuery строит запрос подсчёта конфликтующих бронирований
// Существующий start_date сравнивается с концом нового диапазона,
// существующий end_date - с началом; оба сравнения включающие
func overlapQuery(vehicleID int64, start, end time.Time, excludeBookingID *int64) (string, []interface{}, error) {
	selectBuilder := psqlbuilder.Select("COUNT(*)").
		From("bookings").
		Where(squirrel.Eq{"vehicle_id": vehicleID}).
		Where(squirrel.Eq{"status": statusList(domain.ConflictingStatuses)}).
		Where(squirrel.LtOrEq{"start_date": end}).
		Where(squirrel.GtOrEq{"end_date": start})

	if excludeBookingID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeBookingID})
	}

	return selectBuilder.ToSql()
}

// statusList конвертирует статусы в аргументы запроса
func statusList(statuses []domain.BookingStatus) []string {
	list := make([]string, 0, len(statuses))
	for _, s := range statuses {
		list = append(list, string(s))
	}
	return list
}

// ListOverdueIDs возвращает ID активных бронирований, чей диапазон аренды
// уже закончился. Используется cleanup sweep
func (r *Repository) ListOverdueIDs(ctx context.Context, now time.Time) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id").
		From("bookings").
		Where(squirrel.Lt{"end_date": now}).
		Where(squirrel.NotEq{"status": statusList(domain.InactiveStatuses)}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdueIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdueIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ListOverdueIDs - scan id: %v", ErrScanRow, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListOverdueIDs - rows error: %v", ErrScanRow, err)
	}

	return ids, nil
}

// Close переводит просроченное бронирование в статус closed
// Условие в WHERE делает операцию идемпотентной: при конкурентных sweep
// только один из них получит rowsAffected = 1
func (r *Repository) Close(ctx context.Context, id int64, now time.Time) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusClosed).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Lt{"end_date": now}).
		Where(squirrel.NotEq{"status": statusList(domain.InactiveStatuses)}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: Close - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: Close - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Close - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

// CountActiveByVehicle подсчитывает активные бронирования автомобиля
// Используется при возврате флага доступности после закрытия бронирования
func (r *Repository) CountActiveByVehicle(ctx context.Context, vehicleID int64, excludeBookingID *int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("COUNT(*)").
		From("bookings").
		Where(squirrel.Eq{"vehicle_id": vehicleID}).
		Where(squirrel.Eq{"status": statusList(domain.ActiveStatuses)})

	if excludeBookingID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeBookingID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveByVehicle - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveByVehicle - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// UpdateStatus обновляет статус бронирования
// Валидация допустимости перехода выполняется на уровне сервиса,
// условие по текущему статусу защищает от гонки между проверкой и записью
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": from}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// Cancel отменяет бронирование с указанием причины
// Условие по статусу защищает от гонки: отменить можно только open/confirmed
func (r *Repository) Cancel(ctx context.Context, id int64, reason string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": []string{string(domain.StatusOpen), string(domain.StatusConfirmed)}}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Cancel - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Cancel - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrCannotCancel
	}

	return nil
}

// scanBooking сканирует одну строку результата в доменную модель
func (r *Repository) scanBooking(row *sql.Row) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.Number,
		&booking.UserID,
		&booking.VehicleID,
		&booking.PickupLocationID,
		&booking.ReturnLocationID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.RentalCost,
		&booking.ExtrasCost,
		&booking.Discount,
		&booking.FinalAmount,
		&booking.Status,
		&booking.CancellationReason,
		&booking.CancelledAt,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scanBooking - scan booking: %v", ErrScanRow, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		var booking domain.Booking
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&booking.ID,
			&booking.Number,
			&booking.UserID,
			&booking.VehicleID,
			&booking.PickupLocationID,
			&booking.ReturnLocationID,
			&booking.StartDate,
			&booking.EndDate,
			&booking.RentalCost,
			&booking.ExtrasCost,
			&booking.Discount,
			&booking.FinalAmount,
			&booking.Status,
			&booking.CancellationReason,
			&booking.CancelledAt,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}

		booking.CreatedAt = createdAt.Time
		booking.UpdatedAt = updatedAt.Time

		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
