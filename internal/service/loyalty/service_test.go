package loyalty

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	loyaltyRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/loyalty"
	"github.com/m04kA/SMC-RentalService/internal/service/loyalty/models"
	"github.com/m04kA/SMC-RentalService/pkg/ptr"
)

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

// fakeTxManager исполняет функции без реальной транзакции
type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct {
	now time.Time
}

func (f fixedTime) Now() time.Time { return f.now }

// fakeLedger хранит журнал в памяти и пересчитывает сводку его повтором
type fakeLedger struct {
	transactions []*domain.LoyaltyTransaction
	nextID       int64

	summaries map[int64]*domain.PointsSummary

	insertErr      error
	markExpiredErr map[int64]error // по userID первой транзакции
	markedTwice    bool
	recomputes     int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		summaries:      make(map[int64]*domain.PointsSummary),
		markExpiredErr: make(map[int64]error),
	}
}

func (f *fakeLedger) userTransactions(userID int64) []*domain.LoyaltyTransaction {
	var result []*domain.LoyaltyTransaction
	for _, t := range f.transactions {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result
}

func (f *fakeLedger) Insert(ctx context.Context, t *domain.LoyaltyTransaction) (*domain.LoyaltyTransaction, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if t.Type == domain.TransactionEarned && t.BookingID != nil {
		for _, existing := range f.transactions {
			if existing.Type == domain.TransactionEarned &&
				existing.UserID == t.UserID &&
				existing.BookingID != nil && *existing.BookingID == *t.BookingID {
				return nil, loyaltyRepo.ErrDuplicateAward
			}
		}
	}
	f.nextID++
	copied := *t
	copied.ID = f.nextID
	f.transactions = append(f.transactions, &copied)
	return &copied, nil
}

func (f *fakeLedger) HasEarnedForBooking(ctx context.Context, userID, bookingID int64) (bool, error) {
	for _, t := range f.transactions {
		if t.Type == domain.TransactionEarned && t.UserID == userID &&
			t.BookingID != nil && *t.BookingID == bookingID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) GetByUserID(ctx context.Context, userID int64) ([]*domain.LoyaltyTransaction, error) {
	return f.userTransactions(userID), nil
}

func (f *fakeLedger) AvailableBalance(ctx context.Context, userID int64) (int64, error) {
	return domain.AvailableBalance(f.userTransactions(userID)), nil
}

func (f *fakeLedger) ListExpirable(ctx context.Context, now time.Time) ([]*domain.LoyaltyTransaction, error) {
	var result []*domain.LoyaltyTransaction
	for _, t := range f.transactions {
		if t.IsCredit() && !t.IsExpired && t.ExpiryDate != nil && !t.ExpiryDate.After(now) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (f *fakeLedger) MarkExpired(ctx context.Context, ids []int64) (int64, error) {
	var marked int64
	for _, id := range ids {
		for _, t := range f.transactions {
			if t.ID != id {
				continue
			}
			if err := f.markExpiredErr[t.UserID]; err != nil {
				return 0, err
			}
			if t.IsExpired {
				f.markedTwice = true
				continue
			}
			t.IsExpired = true
			marked++
		}
	}
	return marked, nil
}

func (f *fakeLedger) RecomputeSummary(ctx context.Context, userID int64) (*domain.PointsSummary, error) {
	f.recomputes++
	summary := &domain.PointsSummary{UserID: userID}
	for _, t := range f.userTransactions(userID) {
		switch {
		case t.IsCredit():
			summary.TotalEarned += t.Points
			if t.IsExpired {
				summary.TotalExpired += t.Points
			}
		case t.Type == domain.TransactionRedeemed:
			summary.TotalRedeemed += -t.Points
		}
	}
	summary.AvailablePoints = domain.AvailableBalance(f.userTransactions(userID))
	f.summaries[userID] = summary
	return summary, nil
}

func (f *fakeLedger) GetSummary(ctx context.Context, userID int64) (*domain.PointsSummary, error) {
	summary, ok := f.summaries[userID]
	if !ok {
		return nil, loyaltyRepo.ErrSummaryNotFound
	}
	return summary, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestService(ledger *fakeLedger, now time.Time) *Service {
	svc := NewService(ledger, fakeTxManager{}, Config{}, nopLogger{})
	svc.timeProvider = fixedTime{now: now}
	return svc
}

func TestPointsForAmount(t *testing.T) {
	svc := newTestService(newFakeLedger(), date(2025, 10, 1))

	assert.Equal(t, int64(250), svc.PointsForAmount(2500))
	assert.Equal(t, int64(0), svc.PointsForAmount(9.99)) // floor(0.999)
	assert.Equal(t, int64(1), svc.PointsForAmount(10))
	assert.Equal(t, int64(0), svc.PointsForAmount(0))
	assert.Equal(t, int64(0), svc.PointsForAmount(-100))
}

func TestDiscountForPoints(t *testing.T) {
	svc := newTestService(newFakeLedger(), date(2025, 10, 1))

	assert.Equal(t, 50.0, svc.DiscountForPoints(100))
	assert.Equal(t, 0.0, svc.DiscountForPoints(0))
	assert.Equal(t, 0.0, svc.DiscountForPoints(-10))
}

func TestAward(t *testing.T) {
	ctx := context.Background()
	now := date(2025, 10, 1)

	t.Run("first award writes ledger and returns balance", func(t *testing.T) {
		ledger := newFakeLedger()
		svc := newTestService(ledger, now)

		resp, err := svc.Award(ctx, &models.AwardRequest{
			UserID:    10,
			Points:    250,
			Reason:    ReasonBookingCompleted,
			BookingID: ptr.Ptr(int64(1)),
		})
		require.NoError(t, err)
		assert.False(t, resp.AlreadyAwarded)
		assert.Equal(t, int64(250), resp.Balance)
		require.NotNil(t, resp.Transaction)
		assert.Equal(t, int64(250), resp.Transaction.Points)
		assert.Equal(t, "Earned", resp.Transaction.TypeLabel)

		// Срок жизни по умолчанию: now + 24 месяца
		require.Len(t, ledger.transactions, 1)
		require.NotNil(t, ledger.transactions[0].ExpiryDate)
		assert.Equal(t, now.AddDate(0, 24, 0), *ledger.transactions[0].ExpiryDate)
	})

	t.Run("repeat award for same booking is a no-op", func(t *testing.T) {
		ledger := newFakeLedger()
		svc := newTestService(ledger, now)

		req := &models.AwardRequest{UserID: 10, Points: 250, Reason: ReasonBookingCompleted, BookingID: ptr.Ptr(int64(1))}

		first, err := svc.Award(ctx, req)
		require.NoError(t, err)
		require.False(t, first.AlreadyAwarded)

		second, err := svc.Award(ctx, req)
		require.NoError(t, err)
		assert.True(t, second.AlreadyAwarded)
		assert.Nil(t, second.Transaction)
		assert.Equal(t, int64(250), second.Balance)
		assert.Len(t, ledger.transactions, 1)
	})

	t.Run("lost insert race is treated as duplicate", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.insertErr = loyaltyRepo.ErrDuplicateAward
		svc := newTestService(ledger, now)

		resp, err := svc.Award(ctx, &models.AwardRequest{
			UserID: 10, Points: 250, Reason: ReasonBookingCompleted, BookingID: ptr.Ptr(int64(1)),
		})
		require.NoError(t, err)
		assert.True(t, resp.AlreadyAwarded)
	})

	t.Run("explicit expiry date is kept", func(t *testing.T) {
		ledger := newFakeLedger()
		svc := newTestService(ledger, now)

		expiry := date(2026, 1, 1)
		_, err := svc.Award(ctx, &models.AwardRequest{
			UserID: 10, Points: 50, Reason: "promo", ExpiryDate: &expiry,
		})
		require.NoError(t, err)
		require.Len(t, ledger.transactions, 1)
		assert.Equal(t, expiry, *ledger.transactions[0].ExpiryDate)
	})

	t.Run("invalid input", func(t *testing.T) {
		svc := newTestService(newFakeLedger(), now)

		_, err := svc.Award(ctx, &models.AwardRequest{UserID: 0, Points: 100})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Award(ctx, &models.AwardRequest{UserID: 10, Points: 0})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Award(ctx, &models.AwardRequest{UserID: 10, Points: -50})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestAwardForBooking(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	svc := newTestService(ledger, date(2025, 10, 1))

	t.Run("converts amount to points", func(t *testing.T) {
		err := svc.AwardForBooking(ctx, 10, 2500, 1)
		require.NoError(t, err)
		require.Len(t, ledger.transactions, 1)
		assert.Equal(t, int64(250), ledger.transactions[0].Points)
		require.NotNil(t, ledger.transactions[0].EarnReason)
		assert.Equal(t, ReasonBookingCompleted, *ledger.transactions[0].EarnReason)
	})

	t.Run("tiny amount writes nothing", func(t *testing.T) {
		err := svc.AwardForBooking(ctx, 10, 5, 2)
		require.NoError(t, err)
		assert.Len(t, ledger.transactions, 1)
	})
}

func TestRedeem(t *testing.T) {
	ctx := context.Background()
	now := date(2025, 10, 1)

	seedBalance := func(ledger *fakeLedger, userID, points int64) {
		ledger.transactions = append(ledger.transactions, &domain.LoyaltyTransaction{
			ID: 1000, UserID: userID, Points: points, Type: domain.TransactionEarned,
		})
		ledger.nextID = 1000
	}

	t.Run("success writes debit and discount", func(t *testing.T) {
		ledger := newFakeLedger()
		seedBalance(ledger, 10, 500)
		svc := newTestService(ledger, now)

		resp, err := svc.Redeem(ctx, &models.RedeemRequest{UserID: 10, Points: 200, Language: domain.LangRU})
		require.NoError(t, err)
		assert.Equal(t, int64(300), resp.Balance)
		assert.Equal(t, 100.0, resp.Discount)
		require.NotNil(t, resp.Transaction)
		assert.Equal(t, int64(-200), resp.Transaction.Points)
		assert.Equal(t, "Списано", resp.Transaction.TypeLabel)
	})

	t.Run("below minimum is rejected before the ledger", func(t *testing.T) {
		ledger := newFakeLedger()
		seedBalance(ledger, 10, 500)
		svc := newTestService(ledger, now)

		_, err := svc.Redeem(ctx, &models.RedeemRequest{UserID: 10, Points: 99})
		assert.ErrorIs(t, err, ErrBelowMinRedemption)
		assert.Len(t, ledger.transactions, 1)
	})

	t.Run("exactly minimum passes", func(t *testing.T) {
		ledger := newFakeLedger()
		seedBalance(ledger, 10, 500)
		svc := newTestService(ledger, now)

		resp, err := svc.Redeem(ctx, &models.RedeemRequest{UserID: 10, Points: 100})
		require.NoError(t, err)
		assert.Equal(t, int64(400), resp.Balance)
	})

	t.Run("insufficient balance leaves ledger unchanged", func(t *testing.T) {
		ledger := newFakeLedger()
		seedBalance(ledger, 10, 150)
		svc := newTestService(ledger, now)

		_, err := svc.Redeem(ctx, &models.RedeemRequest{UserID: 10, Points: 200})
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Len(t, ledger.transactions, 1)
	})

	t.Run("expired credits do not count toward balance", func(t *testing.T) {
		ledger := newFakeLedger()
		seedBalance(ledger, 10, 150)
		ledger.transactions = append(ledger.transactions, &domain.LoyaltyTransaction{
			ID: 1001, UserID: 10, Points: 500, Type: domain.TransactionEarned, IsExpired: true,
		})
		svc := newTestService(ledger, now)

		_, err := svc.Redeem(ctx, &models.RedeemRequest{UserID: 10, Points: 200})
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("invalid input", func(t *testing.T) {
		svc := newTestService(newFakeLedger(), now)

		_, err := svc.Redeem(ctx, &models.RedeemRequest{UserID: 0, Points: 100})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestGetSummary(t *testing.T) {
	ctx := context.Background()
	now := date(2025, 10, 1)

	t.Run("missing summary is recomputed from the ledger", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.transactions = append(ledger.transactions,
			&domain.LoyaltyTransaction{ID: 1, UserID: 10, Points: 300, Type: domain.TransactionEarned},
			&domain.LoyaltyTransaction{ID: 2, UserID: 10, Points: -100, Type: domain.TransactionRedeemed},
		)
		svc := newTestService(ledger, now)

		summary, err := svc.GetSummary(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(300), summary.TotalEarned)
		assert.Equal(t, int64(100), summary.TotalRedeemed)
		assert.Equal(t, int64(200), summary.AvailablePoints)
		assert.Equal(t, 1, ledger.recomputes)
	})

	t.Run("existing summary is returned as is", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.summaries[10] = &domain.PointsSummary{UserID: 10, AvailablePoints: 42}
		svc := newTestService(ledger, now)

		summary, err := svc.GetSummary(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(42), summary.AvailablePoints)
		assert.Equal(t, 0, ledger.recomputes)
	})

	t.Run("invalid user", func(t *testing.T) {
		svc := newTestService(newFakeLedger(), now)

		_, err := svc.GetSummary(ctx, 0)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestExpireSweep(t *testing.T) {
	ctx := context.Background()
	now := date(2025, 10, 1)

	expiredCredit := func(id, userID, points int64) *domain.LoyaltyTransaction {
		expiry := date(2025, 9, 1)
		return &domain.LoyaltyTransaction{
			ID: id, UserID: userID, Points: points,
			Type: domain.TransactionEarned, ExpiryDate: &expiry,
		}
	}

	t.Run("marks expired credits per user", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.transactions = append(ledger.transactions,
			expiredCredit(1, 10, 100),
			expiredCredit(2, 10, 50),
			expiredCredit(3, 20, 200),
		)
		svc := newTestService(ledger, now)

		report, err := svc.ExpireSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), report.Expired)
		assert.Equal(t, 2, report.UsersAffected)
		assert.Empty(t, report.Failures)

		for _, transaction := range ledger.transactions {
			assert.True(t, transaction.IsExpired)
		}
	})

	t.Run("future credits are untouched", func(t *testing.T) {
		ledger := newFakeLedger()
		future := date(2026, 1, 1)
		ledger.transactions = append(ledger.transactions, &domain.LoyaltyTransaction{
			ID: 1, UserID: 10, Points: 100, Type: domain.TransactionEarned, ExpiryDate: &future,
		})
		svc := newTestService(ledger, now)

		report, err := svc.ExpireSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), report.Expired)
		assert.False(t, ledger.transactions[0].IsExpired)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.transactions = append(ledger.transactions, expiredCredit(1, 10, 100))
		svc := newTestService(ledger, now)

		_, err := svc.ExpireSweep(ctx)
		require.NoError(t, err)

		report, err := svc.ExpireSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), report.Expired)
		assert.Equal(t, 0, report.UsersAffected)
	})

	t.Run("one user failing does not stop the rest", func(t *testing.T) {
		ledger := newFakeLedger()
		ledger.transactions = append(ledger.transactions,
			expiredCredit(1, 10, 100),
			expiredCredit(2, 20, 200),
		)
		ledger.markExpiredErr[10] = errors.New("deadlock")
		svc := newTestService(ledger, now)

		report, err := svc.ExpireSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), report.Expired)
		assert.Equal(t, 1, report.UsersAffected)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, int64(10), report.Failures[0].UserID)
	})
}
