package bookings

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-RentalService/internal/service/bookings/models"
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

func (fakeTxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct {
	now time.Time
}

func (f fixedTime) Now() time.Time { return f.now }

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking
	lines    map[int64][]*domain.BookingLine

	overdueIDs   []int64
	closeResults map[int64]bool
	closeErrs    map[int64]error
	activeCount  int

	cancelErr       error
	updateStatusErr error

	cancelled     []int64
	statusUpdates []domain.BookingStatus
	closedIDs     []int64
}

func newFakeBookingRepo(bookings ...*domain.Booking) *fakeBookingRepo {
	repo := &fakeBookingRepo{
		bookings:     make(map[int64]*domain.Booking),
		lines:        make(map[int64][]*domain.BookingLine),
		closeResults: make(map[int64]bool),
		closeErrs:    make(map[int64]error),
	}
	for _, b := range bookings {
		repo.bookings[b.ID] = b
	}
	return repo
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingRepo) GetLines(ctx context.Context, bookingID int64) ([]*domain.BookingLine, error) {
	return f.lines[bookingID], nil
}

func (f *fakeBookingRepo) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	var result []*domain.Booking
	for _, b := range f.bookings {
		if b.UserID != userID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus) error {
	if f.updateStatusErr != nil {
		return f.updateStatusErr
	}
	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return bookingRepo.ErrBookingNotFound
	}
	b.Status = to
	f.statusUpdates = append(f.statusUpdates, to)
	return nil
}

func (f *fakeBookingRepo) Cancel(ctx context.Context, id int64, reason string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	b := f.bookings[id]
	b.Status = domain.StatusCancelled
	b.CancellationReason = &reason
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeBookingRepo) ListOverdueIDs(ctx context.Context, now time.Time) ([]int64, error) {
	return f.overdueIDs, nil
}

func (f *fakeBookingRepo) Close(ctx context.Context, id int64, now time.Time) (bool, error) {
	if err := f.closeErrs[id]; err != nil {
		return false, err
	}
	ok, configured := f.closeResults[id]
	if !configured {
		ok = true
	}
	if ok {
		f.closedIDs = append(f.closedIDs, id)
		if b, exists := f.bookings[id]; exists {
			b.Status = domain.StatusClosed
		}
	}
	return ok, nil
}

func (f *fakeBookingRepo) CountActiveByVehicle(ctx context.Context, vehicleID int64, excludeBookingID *int64) (int, error) {
	return f.activeCount, nil
}

type fakeVehicleRepo struct {
	vehicle       *domain.Vehicle
	statusUpdates []domain.VehicleStatus
}

func (f *fakeVehicleRepo) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	copied := *f.vehicle
	return &copied, nil
}

func (f *fakeVehicleRepo) UpdateStatus(ctx context.Context, id int64, status domain.VehicleStatus) error {
	f.vehicle.Status = status
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

type fakeLoyaltyService struct {
	awards []awardCall
	err    error
}

type awardCall struct {
	userID    int64
	amount    float64
	bookingID int64
}

func (f *fakeLoyaltyService) AwardForBooking(ctx context.Context, userID int64, amount float64, bookingID int64) error {
	f.awards = append(f.awards, awardCall{userID: userID, amount: amount, bookingID: bookingID})
	return f.err
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testBooking(id int64, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:          id,
		Number:      "RNT-TEST0001",
		UserID:      10,
		VehicleID:   1,
		StartDate:   date(2025, 10, 15),
		EndDate:     date(2025, 10, 20),
		FinalAmount: 2500,
		Status:      status,
	}
}

func newTestService(repo *fakeBookingRepo, vehicles *fakeVehicleRepo, loyaltySvc *fakeLoyaltyService, now time.Time) *Service {
	if vehicles == nil {
		vehicles = &fakeVehicleRepo{vehicle: &domain.Vehicle{ID: 1, Status: domain.VehicleAvailable}}
	}
	if loyaltySvc == nil {
		loyaltySvc = &fakeLoyaltyService{}
	}
	svc := NewService(repo, vehicles, loyaltySvc, fakeTxManager{}, nopLogger{})
	svc.timeProvider = fixedTime{now: now}
	return svc
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	repo := newFakeBookingRepo(testBooking(1, domain.StatusOpen))
	svc := newTestService(repo, nil, nil, date(2025, 10, 1))

	t.Run("owner sees booking with lines", func(t *testing.T) {
		repo.lines[1] = []*domain.BookingLine{{ExtraID: 3, ExtraName: "GPS", Quantity: 1, UnitPrice: 50, TotalPrice: 50}}

		resp, err := svc.GetByID(ctx, 1, 10, domain.LangEN)
		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.ID)
		assert.Equal(t, "Open", resp.StatusLabel)
		assert.Len(t, resp.Lines, 1)
		assert.Equal(t, "GPS", resp.Lines[0].ExtraName)
	})

	t.Run("status label follows the requested language", func(t *testing.T) {
		resp, err := svc.GetByID(ctx, 1, 10, domain.LangRU)
		require.NoError(t, err)
		assert.Equal(t, "Открыто", resp.StatusLabel)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetByID(ctx, 99, 10, domain.LangEN)
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("foreign booking is hidden", func(t *testing.T) {
		_, err := svc.GetByID(ctx, 1, 11, domain.LangEN)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestGetUserBookings_InvalidStatus(t *testing.T) {
	repo := newFakeBookingRepo()
	svc := newTestService(repo, nil, nil, date(2025, 10, 1))

	status := "unknown"
	_, err := svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{UserID: 10, Status: &status})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("owner cancels open booking before start", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusOpen))
		svc := newTestService(repo, nil, nil, date(2025, 10, 1))

		err := svc.Cancel(ctx, 1, &models.CancelBookingRequest{UserID: 10, CancellationReason: "plans changed"})
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, repo.cancelled)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusOpen))
		svc := newTestService(repo, nil, nil, date(2025, 10, 1))

		err := svc.Cancel(ctx, 1, &models.CancelBookingRequest{UserID: 99})
		assert.ErrorIs(t, err, ErrAccessDenied)
		assert.Empty(t, repo.cancelled)
	})

	t.Run("in_progress cannot be cancelled", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusInProgress))
		svc := newTestService(repo, nil, nil, date(2025, 10, 1))

		err := svc.Cancel(ctx, 1, &models.CancelBookingRequest{UserID: 10})
		assert.ErrorIs(t, err, ErrCannotCancel)
	})

	t.Run("open booking after start date is locked", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusOpen))
		// now совпадает с датой начала - отмена уже невозможна
		svc := newTestService(repo, nil, nil, date(2025, 10, 15))

		err := svc.Cancel(ctx, 1, &models.CancelBookingRequest{UserID: 10})
		assert.ErrorIs(t, err, ErrRentalAlreadyStarted)
		assert.Empty(t, repo.cancelled)
	})

	t.Run("lost race maps to cannot cancel", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusConfirmed))
		repo.cancelErr = bookingRepo.ErrCannotCancel
		svc := newTestService(repo, nil, nil, date(2025, 10, 1))

		err := svc.Cancel(ctx, 1, &models.CancelBookingRequest{UserID: 10})
		assert.ErrorIs(t, err, ErrCannotCancel)
	})

	t.Run("unknown booking", func(t *testing.T) {
		repo := newFakeBookingRepo()
		svc := newTestService(repo, nil, nil, date(2025, 10, 1))

		err := svc.Cancel(ctx, 99, &models.CancelBookingRequest{UserID: 10})
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})

	t.Run("reason above limit is rejected", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusOpen))
		svc := newTestService(repo, nil, nil, date(2025, 10, 1))

		reason := strings.Repeat("п", domain.MaxCancellationReasonLength+1)
		err := svc.Cancel(ctx, 1, &models.CancelBookingRequest{UserID: 10, CancellationReason: reason})
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Empty(t, repo.cancelled)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("single forward step", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusOpen))
		svc := newTestService(repo, nil, nil, date(2025, 10, 1))

		err := svc.UpdateStatus(ctx, 1, &models.UpdateStatusRequest{UserID: 10, Status: "confirmed"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, repo.bookings[1].Status)
	})

	t.Run("skipping a step is rejected", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusOpen))
		svc := newTestService(repo, nil, nil, date(2025, 10, 1))

		err := svc.UpdateStatus(ctx, 1, &models.UpdateStatusRequest{UserID: 10, Status: "in_progress"})
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, domain.StatusOpen, repo.bookings[1].Status)
	})

	t.Run("unknown status value", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusOpen))
		svc := newTestService(repo, nil, nil, date(2025, 10, 1))

		err := svc.UpdateStatus(ctx, 1, &models.UpdateStatusRequest{UserID: 10, Status: "finished"})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("in_progress marks vehicle rented", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusConfirmed))
		vehicles := &fakeVehicleRepo{vehicle: &domain.Vehicle{ID: 1, Status: domain.VehicleAvailable}}
		svc := newTestService(repo, vehicles, nil, date(2025, 10, 1))

		err := svc.UpdateStatus(ctx, 1, &models.UpdateStatusRequest{UserID: 10, Status: "in_progress"})
		require.NoError(t, err)
		assert.Equal(t, []domain.VehicleStatus{domain.VehicleRented}, vehicles.statusUpdates)
	})

	t.Run("completed awards points from final amount", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusInProgress))
		loyaltySvc := &fakeLoyaltyService{}
		svc := newTestService(repo, nil, loyaltySvc, date(2025, 10, 1))

		err := svc.UpdateStatus(ctx, 1, &models.UpdateStatusRequest{UserID: 10, Status: "completed"})
		require.NoError(t, err)
		require.Len(t, loyaltySvc.awards, 1)
		assert.Equal(t, awardCall{userID: 10, amount: 2500, bookingID: 1}, loyaltySvc.awards[0])
	})

	t.Run("award failure does not roll back transition", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusInProgress))
		loyaltySvc := &fakeLoyaltyService{err: errors.New("loyalty down")}
		svc := newTestService(repo, nil, loyaltySvc, date(2025, 10, 1))

		err := svc.UpdateStatus(ctx, 1, &models.UpdateStatusRequest{UserID: 10, Status: "completed"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, repo.bookings[1].Status)
	})

	t.Run("closed releases idle vehicle", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusCompleted))
		repo.activeCount = 0
		vehicles := &fakeVehicleRepo{vehicle: &domain.Vehicle{ID: 1, Status: domain.VehicleRented}}
		svc := newTestService(repo, vehicles, nil, date(2025, 10, 1))

		err := svc.UpdateStatus(ctx, 1, &models.UpdateStatusRequest{UserID: 10, Status: "closed"})
		require.NoError(t, err)
		assert.Equal(t, []domain.VehicleStatus{domain.VehicleAvailable}, vehicles.statusUpdates)
	})

	t.Run("closed keeps vehicle rented while other bookings active", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusCompleted))
		repo.activeCount = 1
		vehicles := &fakeVehicleRepo{vehicle: &domain.Vehicle{ID: 1, Status: domain.VehicleRented}}
		svc := newTestService(repo, vehicles, nil, date(2025, 10, 1))

		err := svc.UpdateStatus(ctx, 1, &models.UpdateStatusRequest{UserID: 10, Status: "closed"})
		require.NoError(t, err)
		assert.Empty(t, vehicles.statusUpdates)
	})

	t.Run("foreign booking is rejected", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusOpen))
		svc := newTestService(repo, nil, nil, date(2025, 10, 1))

		err := svc.UpdateStatus(ctx, 1, &models.UpdateStatusRequest{UserID: 99, Status: "confirmed"})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("cancellation through status update is rejected", func(t *testing.T) {
		// Отмена после начала аренды невозможна ни через Cancel,
		// ни в обход через смену статуса
		b := testBooking(1, domain.StatusOpen)
		repo := newFakeBookingRepo(b)
		svc := newTestService(repo, nil, nil, b.StartDate.AddDate(0, 0, 3))

		err := svc.Cancel(ctx, 1, &models.CancelBookingRequest{UserID: 10, CancellationReason: "too late"})
		require.ErrorIs(t, err, ErrRentalAlreadyStarted)

		err = svc.UpdateStatus(ctx, 1, &models.UpdateStatusRequest{UserID: 10, Status: "cancelled"})
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, domain.StatusOpen, repo.bookings[1].Status)
		assert.Nil(t, repo.bookings[1].CancellationReason)
	})
}

func TestCleanupSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("closes overdue bookings", func(t *testing.T) {
		b1 := testBooking(1, domain.StatusCompleted)
		b2 := testBooking(2, domain.StatusCompleted)
		repo := newFakeBookingRepo(b1, b2)
		repo.overdueIDs = []int64{1, 2}
		svc := newTestService(repo, nil, nil, date(2025, 11, 1))

		report, err := svc.CleanupSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Closed)
		assert.Equal(t, 0, report.Skipped)
		assert.Empty(t, report.Failures)
	})

	t.Run("concurrent close counted as skipped", func(t *testing.T) {
		repo := newFakeBookingRepo(testBooking(1, domain.StatusCompleted))
		repo.overdueIDs = []int64{1}
		repo.closeResults[1] = false
		svc := newTestService(repo, nil, nil, date(2025, 11, 1))

		report, err := svc.CleanupSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Closed)
		assert.Equal(t, 1, report.Skipped)
	})

	t.Run("one failure does not stop the batch", func(t *testing.T) {
		b1 := testBooking(1, domain.StatusCompleted)
		b2 := testBooking(2, domain.StatusCompleted)
		repo := newFakeBookingRepo(b1, b2)
		repo.overdueIDs = []int64{1, 2}
		repo.closeErrs[1] = errors.New("deadlock")
		svc := newTestService(repo, nil, nil, date(2025, 11, 1))

		report, err := svc.CleanupSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Closed)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, int64(1), report.Failures[0].BookingID)
	})

	t.Run("empty batch", func(t *testing.T) {
		repo := newFakeBookingRepo()
		svc := newTestService(repo, nil, nil, date(2025, 11, 1))

		report, err := svc.CleanupSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Closed)
		assert.Empty(t, report.Failures)
	})
}
