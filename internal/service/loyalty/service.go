package loyalty

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	loyaltyRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/loyalty"
	"github.com/m04kA/SMC-RentalService/internal/service/loyalty/models"
)

// ReasonBookingCompleted причина начисления за завершённое бронирование
const ReasonBookingCompleted = "booking_completed"

// Config параметры программы лояльности
type Config struct {
	PointsPerCurrencyUnit float64
	PointValue            float64
	MinRedeemPoints       int64
	ExpiryMonths          int
}

// Service сервис бонусной программы
type Service struct {
	repo         LedgerRepository
	txManager    TransactionManager
	cfg          Config
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бонусной программы
func NewService(repo LedgerRepository, txManager TransactionManager, cfg Config, logger Logger) *Service {
	if cfg.PointsPerCurrencyUnit == 0 {
		cfg.PointsPerCurrencyUnit = domain.DefaultPointsPerCurrencyUnit
	}
	if cfg.PointValue == 0 {
		cfg.PointValue = domain.DefaultPointValue
	}
	if cfg.MinRedeemPoints == 0 {
		cfg.MinRedeemPoints = domain.DefaultMinRedeemPoints
	}
	if cfg.ExpiryMonths == 0 {
		cfg.ExpiryMonths = domain.DefaultExpiryMonths
	}

	return &Service{
		repo:         repo,
		txManager:    txManager,
		cfg:          cfg,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// PointsForAmount конвертирует сумму оплаты в баллы: floor(amount * rate)
func (s *Service) PointsForAmount(amount float64) int64 {
	if amount <= 0 {
		return 0
	}
	return int64(math.Floor(amount * s.cfg.PointsPerCurrencyUnit))
}

// DiscountForPoints конвертирует баллы в сумму скидки
func (s *Service) DiscountForPoints(points int64) float64 {
	if points <= 0 {
		return 0
	}
	return float64(points) * s.cfg.PointValue
}

// Award начисляет баллы пользователю
// Начисление идемпотентно по паре (userID, bookingID): повторный вызов
// возвращает AlreadyAwarded = true и не меняет журнал
func (s *Service) Award(ctx context.Context, req *models.AwardRequest) (*models.AwardResponse, error) {
	if req.UserID <= 0 || req.Points <= 0 {
		return nil, fmt.Errorf("%w: Award - userID and points must be positive", ErrInvalidInput)
	}

	s.logger.Info("Award: user=%d points=%d reason=%s", req.UserID, req.Points, req.Reason)

	now := s.timeProvider.Now()
	expiryDate := req.ExpiryDate
	if expiryDate == nil {
		expiry := now.AddDate(0, s.cfg.ExpiryMonths, 0)
		expiryDate = &expiry
	}

	var resp *models.AwardResponse

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		if req.BookingID != nil {
			awarded, err := s.repo.HasEarnedForBooking(ctx, req.UserID, *req.BookingID)
			if err != nil {
				return fmt.Errorf("%w: Award - failed to check existing award: %v", ErrInternal, err)
			}
			if awarded {
				s.logger.Info("Award: user=%d booking=%d already awarded, skipping", req.UserID, *req.BookingID)
				resp = &models.AwardResponse{AlreadyAwarded: true}
				return nil
			}
		}

		reason := req.Reason
		transaction := &domain.LoyaltyTransaction{
			UserID:          req.UserID,
			Points:          req.Points,
			Type:            domain.TransactionEarned,
			EarnReason:      &reason,
			BookingID:       req.BookingID,
			TransactionDate: now,
			ExpiryDate:      expiryDate,
		}

		created, err := s.repo.Insert(ctx, transaction)
		if err != nil {
			// Гонка двух одновременных начислений: уникальный индекс
			// пропускает только одно, проигравший трактуется как повтор
			if errors.Is(err, loyaltyRepo.ErrDuplicateAward) {
				s.logger.Info("Award: user=%d booking=%v lost insert race, treating as duplicate", req.UserID, req.BookingID)
				resp = &models.AwardResponse{AlreadyAwarded: true}
				return nil
			}
			return fmt.Errorf("%w: Award - failed to insert transaction: %v", ErrInternal, err)
		}

		summary, err := s.repo.RecomputeSummary(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("%w: Award - failed to recompute summary: %v", ErrInternal, err)
		}

		resp = &models.AwardResponse{
			Transaction: models.FromDomainTransaction(created, req.Language),
			Balance:     summary.AvailablePoints,
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Award: transaction failed for user=%d: %v", req.UserID, err)
		return nil, err
	}

	if resp.AlreadyAwarded {
		summary, err := s.GetSummary(ctx, req.UserID)
		if err == nil {
			resp.Balance = summary.AvailablePoints
		}
	}

	return resp, nil
}

// AwardForBooking начисляет баллы за завершённое бронирование по его сумме
// Нулевое начисление (слишком маленькая сумма) не пишется в журнал
func (s *Service) AwardForBooking(ctx context.Context, userID int64, amount float64, bookingID int64) error {
	points := s.PointsForAmount(amount)
	if points <= 0 {
		s.logger.Info("AwardForBooking: user=%d booking=%d amount=%.2f yields no points, skipping", userID, bookingID, amount)
		return nil
	}

	_, err := s.Award(ctx, &models.AwardRequest{
		UserID:    userID,
		Points:    points,
		Reason:    ReasonBookingCompleted,
		BookingID: &bookingID,
	})
	return err
}

// Redeem списывает баллы пользователя
// Минимальный размер списания и достаточность баланса проверяются
// внутри serializable-транзакции: при нехватке баллов журнал не меняется
func (s *Service) Redeem(ctx context.Context, req *models.RedeemRequest) (*models.RedeemResponse, error) {
	if req.UserID <= 0 || req.Points <= 0 {
		return nil, fmt.Errorf("%w: Redeem - userID and points must be positive", ErrInvalidInput)
	}

	s.logger.Info("Redeem: user=%d points=%d", req.UserID, req.Points)

	if req.Points < s.cfg.MinRedeemPoints {
		s.logger.Warn("Redeem: user=%d requested %d points, minimum is %d", req.UserID, req.Points, s.cfg.MinRedeemPoints)
		return nil, ErrBelowMinRedemption
	}

	var resp *models.RedeemResponse

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		balance, err := s.repo.AvailableBalance(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("%w: Redeem - failed to load balance: %v", ErrInternal, err)
		}
		if balance < req.Points {
			s.logger.Warn("Redeem: user=%d has %d points, requested %d", req.UserID, balance, req.Points)
			return ErrInsufficientBalance
		}

		transaction := &domain.LoyaltyTransaction{
			UserID:          req.UserID,
			Points:          -req.Points,
			Type:            domain.TransactionRedeemed,
			BookingID:       req.BookingID,
			TransactionDate: s.timeProvider.Now(),
		}

		created, err := s.repo.Insert(ctx, transaction)
		if err != nil {
			return fmt.Errorf("%w: Redeem - failed to insert transaction: %v", ErrInternal, err)
		}

		summary, err := s.repo.RecomputeSummary(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("%w: Redeem - failed to recompute summary: %v", ErrInternal, err)
		}

		resp = &models.RedeemResponse{
			Transaction: models.FromDomainTransaction(created, req.Language),
			Balance:     summary.AvailablePoints,
			Discount:    s.DiscountForPoints(req.Points),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		s.logger.Error("Redeem: transaction failed for user=%d: %v", req.UserID, err)
		return nil, err
	}

	return resp, nil
}

// GetSummary возвращает сводку баллов пользователя
// Если сводки ещё нет, она пересчитывается из журнала
func (s *Service) GetSummary(ctx context.Context, userID int64) (*models.SummaryResponse, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: GetSummary - userID must be positive", ErrInvalidInput)
	}

	summary, err := s.repo.GetSummary(ctx, userID)
	if err != nil {
		if errors.Is(err, loyaltyRepo.ErrSummaryNotFound) {
			var recomputed *domain.PointsSummary
			txErr := s.txManager.Do(ctx, func(ctx context.Context) error {
				var rErr error
				recomputed, rErr = s.repo.RecomputeSummary(ctx, userID)
				return rErr
			})
			if txErr != nil {
				s.logger.Error("GetSummary: failed to recompute summary for user=%d: %v", userID, txErr)
				return nil, fmt.Errorf("%w: GetSummary - failed to recompute summary: %v", ErrInternal, txErr)
			}
			return models.FromDomainSummary(recomputed), nil
		}
		s.logger.Error("GetSummary: repository error for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: GetSummary - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainSummary(summary), nil
}

// GetTransactions возвращает журнал баллов пользователя, новые записи первыми
// Язык влияет только на подписи типов операций
func (s *Service) GetTransactions(ctx context.Context, userID int64, lang domain.Language) ([]*models.TransactionResponse, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: GetTransactions - userID must be positive", ErrInvalidInput)
	}

	transactions, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("GetTransactions: repository error for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: GetTransactions - repository error: %v", ErrInternal, err)
	}

	resp := make([]*models.TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		resp = append(resp, models.FromDomainTransaction(t, lang))
	}
	return resp, nil
}

// ExpireSweep помечает сгоревшие начисления и пересчитывает сводки
// Каждый пользователь обрабатывается в отдельной транзакции: ошибка одного
// не прерывает прогон. Условный UPDATE делает прогон идемпотентным
func (s *Service) ExpireSweep(ctx context.Context) (*models.ExpireReport, error) {
	now := s.timeProvider.Now()
	s.logger.Info("ExpireSweep: starting expiry pass at %s", now.Format("2006-01-02 15:04:05"))

	expirable, err := s.repo.ListExpirable(ctx, now)
	if err != nil {
		s.logger.Error("ExpireSweep: failed to list expirable transactions: %v", err)
		return nil, fmt.Errorf("%w: ExpireSweep - failed to list expirable transactions: %v", ErrInternal, err)
	}

	report := &models.ExpireReport{}
	if len(expirable) == 0 {
		s.logger.Info("ExpireSweep: nothing to expire")
		return report, nil
	}

	byUser := make(map[int64][]int64)
	for _, t := range expirable {
		byUser[t.UserID] = append(byUser[t.UserID], t.ID)
	}

	for userID, ids := range byUser {
		expired, err := s.expireUserPoints(ctx, userID, ids)
		if err != nil {
			s.logger.Error("ExpireSweep: failed to expire points for user=%d: %v", userID, err)
			report.Failures = append(report.Failures, models.ExpireFailure{
				UserID: userID,
				Error:  err.Error(),
			})
			continue
		}
		if expired > 0 {
			report.Expired += expired
			report.UsersAffected++
		}
	}

	s.logger.Info("ExpireSweep: finished, expired=%d users=%d failures=%d",
		report.Expired, report.UsersAffected, len(report.Failures))

	return report, nil
}

// expireUserPoints помечает сгоревшие транзакции одного пользователя
// Возвращает число фактически помеченных строк: конкурентный прогон
// мог успеть раньше, тогда UPDATE затронет 0 строк
func (s *Service) expireUserPoints(ctx context.Context, userID int64, ids []int64) (int64, error) {
	var expired int64

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		marked, err := s.repo.MarkExpired(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to mark transactions expired: %w", err)
		}
		expired = marked
		if marked == 0 {
			return nil
		}
		if _, err := s.repo.RecomputeSummary(ctx, userID); err != nil {
			return fmt.Errorf("failed to recompute summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return expired, nil
}
