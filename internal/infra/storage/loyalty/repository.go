package loyalty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

// pqUniqueViolation код ошибки PostgreSQL unique_violation
const pqUniqueViolation = "23505"

var transactionColumns = []string{
	"id",
	"user_id",
	"points",
	"type",
	"earn_reason",
	"booking_id",
	"transaction_date",
	"expiry_date",
	"is_expired",
	"created_at",
}

var creditTypes = []string{
	string(domain.TransactionEarned),
	string(domain.TransactionBonus),
	string(domain.TransactionRefund),
}

// Repository репозиторий журнала бонусных баллов
// Журнал append-only: транзакции никогда не обновляются, кроме флага is_expired
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Insert добавляет транзакцию в журнал
// Повторная earned-транзакция за то же бронирование отклоняется
// уникальным индексом и возвращает ErrDuplicateAward
func (r *Repository) Insert(ctx context.Context, t *domain.LoyaltyTransaction) (*domain.LoyaltyTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("loyalty_transactions").
		Columns(
			"user_id",
			"points",
			"type",
			"earn_reason",
			"booking_id",
			"transaction_date",
			"expiry_date",
			"is_expired",
		).
		Values(
			t.UserID,
			t.Points,
			t.Type,
			t.EarnReason,
			t.BookingID,
			t.TransactionDate,
			t.ExpiryDate,
			t.IsExpired,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Insert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&t.ID, &createdAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, ErrDuplicateAward
		}
		return nil, fmt.Errorf("%w: Insert - execute insert: %v", ErrExecQuery, err)
	}
	t.CreatedAt = createdAt.Time

	return t, nil
}

// HasEarnedForBooking проверяет, были ли уже начислены баллы за бронирование
// Быстрый путь для идемпотентности Award; авторитетная гарантия -
// уникальный индекс, проверяемый в Insert
func (r *Repository) HasEarnedForBooking(ctx context.Context, userID, bookingID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("loyalty_transactions").
		Where(squirrel.Eq{
			"user_id":    userID,
			"booking_id": bookingID,
			"type":       domain.TransactionEarned,
		}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: HasEarnedForBooking - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: HasEarnedForBooking - scan count: %v", ErrScanRow, err)
	}

	return count > 0, nil
}

// GetByUserID получает журнал транзакций пользователя, новые первыми
func (r *Repository) GetByUserID(ctx context.Context, userID int64) ([]*domain.LoyaltyTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(transactionColumns...).
		From("loyalty_transactions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("transaction_date DESC, id DESC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// AvailableBalance вычисляет доступный баланс пользователя из журнала
// Кредиты учитываются пока не сгорели, дебеты учитываются всегда
// (баллы дебетов отрицательные)
func (r *Repository) AvailableBalance(ctx context.Context, userID int64) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"COALESCE(SUM(CASE " +
			"WHEN type IN ('earned','bonus','refund') AND NOT is_expired THEN points " +
			"WHEN type IN ('redeemed','expired','adjustment') THEN points " +
			"ELSE 0 END), 0)",
	).
		From("loyalty_transactions").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: AvailableBalance - build select query: %v", ErrBuildQuery, err)
	}

	var balance int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&balance); err != nil {
		return 0, fmt.Errorf("%w: AvailableBalance - scan balance: %v", ErrScanRow, err)
	}

	return balance, nil
}

// ListExpirable возвращает несгоревшие кредиты с прошедшим сроком действия
// Внутри транзакции строки блокируются с пропуском уже заблокированных,
// чтобы пересекающиеся sweep не обрабатывали одни и те же записи
func (r *Repository) ListExpirable(ctx context.Context, now time.Time) ([]*domain.LoyaltyTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(transactionColumns...).
		From("loyalty_transactions").
		Where(squirrel.Eq{"type": creditTypes}).
		Where(squirrel.Eq{"is_expired": false}).
		Where(squirrel.LtOrEq{"expiry_date": now}).
		OrderBy("user_id ASC, id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE SKIP LOCKED")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpirable - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListExpirable - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// MarkExpired помечает кредиты сгоревшими
// Условие is_expired = FALSE делает операцию идемпотентной:
// транзакция сгорает ровно один раз даже при конкурентных sweep
func (r *Repository) MarkExpired(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("loyalty_transactions").
		Set("is_expired", true).
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"is_expired": false}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: MarkExpired - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: MarkExpired - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: MarkExpired - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

// RecomputeSummary пересчитывает кешированную сводку пользователя из журнала
// Сводка - проекция, а не источник истины: каждый вызов полностью
// перезаписывает её агрегатами журнала
func (r *Repository) RecomputeSummary(ctx context.Context, userID int64) (*domain.PointsSummary, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	aggQuery, aggArgs, err := psqlbuilder.Select(
		"COALESCE(SUM(CASE WHEN type IN ('earned','bonus','refund') THEN points ELSE 0 END), 0) AS total_earned",
		"COALESCE(SUM(CASE WHEN type = 'redeemed' THEN -points ELSE 0 END), 0) AS total_redeemed",
		"COALESCE(SUM(CASE WHEN type IN ('earned','bonus','refund') AND is_expired THEN points ELSE 0 END), 0) AS total_expired",
		"COALESCE(SUM(CASE "+
			"WHEN type IN ('earned','bonus','refund') AND NOT is_expired THEN points "+
			"WHEN type IN ('redeemed','expired','adjustment') THEN points "+
			"ELSE 0 END), 0) AS available_points",
	).
		From("loyalty_transactions").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: RecomputeSummary - build aggregate query: %v", ErrBuildQuery, err)
	}

	summary := domain.PointsSummary{UserID: userID}
	err = executor.QueryRowContext(ctx, aggQuery, aggArgs...).Scan(
		&summary.TotalEarned,
		&summary.TotalRedeemed,
		&summary.TotalExpired,
		&summary.AvailablePoints,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: RecomputeSummary - scan aggregates: %v", ErrScanRow, err)
	}

	upsertQuery, upsertArgs, err := psqlbuilder.Insert("loyalty_summaries").
		Columns("user_id", "total_earned", "total_redeemed", "total_expired", "available_points", "updated_at").
		Values(summary.UserID, summary.TotalEarned, summary.TotalRedeemed, summary.TotalExpired, summary.AvailablePoints, squirrel.Expr("NOW()")).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET " +
			"total_earned = EXCLUDED.total_earned, " +
			"total_redeemed = EXCLUDED.total_redeemed, " +
			"total_expired = EXCLUDED.total_expired, " +
			"available_points = EXCLUDED.available_points, " +
			"updated_at = NOW()").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: RecomputeSummary - build upsert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, upsertQuery, upsertArgs...); err != nil {
		return nil, fmt.Errorf("%w: RecomputeSummary - execute upsert: %v", ErrExecQuery, err)
	}

	summary.UpdatedAt = time.Now()
	return &summary, nil
}

// GetSummary получает кешированную сводку пользователя
func (r *Repository) GetSummary(ctx context.Context, userID int64) (*domain.PointsSummary, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"user_id",
		"total_earned",
		"total_redeemed",
		"total_expired",
		"available_points",
		"updated_at",
	).
		From("loyalty_summaries").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetSummary - build select query: %v", ErrBuildQuery, err)
	}

	var summary domain.PointsSummary
	var updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&summary.UserID,
		&summary.TotalEarned,
		&summary.TotalRedeemed,
		&summary.TotalExpired,
		&summary.AvailablePoints,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrSummaryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetSummary - scan summary: %v", ErrScanRow, err)
	}

	summary.UpdatedAt = updatedAt.Time
	return &summary, nil
}

// scanTransactions сканирует результаты запроса в слайс транзакций
func (r *Repository) scanTransactions(rows *sql.Rows) ([]*domain.LoyaltyTransaction, error) {
	transactions := make([]*domain.LoyaltyTransaction, 0)

	for rows.Next() {
		var t domain.LoyaltyTransaction
		var createdAt sql.NullTime

		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Points,
			&t.Type,
			&t.EarnReason,
			&t.BookingID,
			&t.TransactionDate,
			&t.ExpiryDate,
			&t.IsExpired,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanTransactions - scan row: %v", ErrScanRow, err)
		}

		t.CreatedAt = createdAt.Time
		transactions = append(transactions, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanTransactions - rows error: %v", ErrScanRow, err)
	}

	return transactions, nil
}
