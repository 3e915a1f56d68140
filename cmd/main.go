package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	awardPointsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/award_points"
	cancelBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_booking"
	estimateRateHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/estimate_rate"
	getBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_booking"
	getPointsSummaryHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_points_summary"
	getUserBookingsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_user_bookings"
	redeemPointsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/redeem_points"
	updateBookingStatusHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/update_booking_status"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/config"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	extraRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/extra"
	locationRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/location"
	loyaltyRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/loyalty"
	vehicleRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/vehicle"
	availabilityService "github.com/m04kA/SMC-RentalService/internal/service/availability"
	bookingsService "github.com/m04kA/SMC-RentalService/internal/service/bookings"
	loyaltyService "github.com/m04kA/SMC-RentalService/internal/service/loyalty"
	createBookingUC "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
	"github.com/m04kA/SMC-RentalService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-RentalService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository  *bookingRepo.Repository
		vehicleRepository  *vehicleRepo.Repository
		locationRepository *locationRepo.Repository
		extraRepository    *extraRepo.Repository
		loyaltyRepository  *loyaltyRepo.Repository
	)

	// Интерфейс для transaction manager (используется в сервисах и usecases)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		// Инициализируем репозитории с обёрткой метрик
		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		vehicleRepository = vehicleRepo.NewRepository(wrappedDB)
		locationRepository = locationRepo.NewRepository(wrappedDB)
		extraRepository = extraRepo.NewRepository(wrappedDB)
		loyaltyRepository = loyaltyRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		// Инициализируем репозитории без метрик
		bookingRepository = bookingRepo.NewRepository(db)
		vehicleRepository = vehicleRepo.NewRepository(db)
		locationRepository = locationRepo.NewRepository(db)
		extraRepository = extraRepo.NewRepository(db)
		loyaltyRepository = loyaltyRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	availabilitySvc := availabilityService.NewService(
		vehicleRepository,
		bookingRepository,
		log,
	)
	loyaltySvc := loyaltyService.NewService(
		loyaltyRepository,
		txMgr,
		loyaltyService.Config{
			PointsPerCurrencyUnit: cfg.Loyalty.PointsPerCurrencyUnit,
			PointValue:            cfg.Loyalty.PointValue,
			MinRedeemPoints:       cfg.Loyalty.MinRedeemPoints,
			ExpiryMonths:          cfg.Loyalty.ExpiryMonths,
		},
		log,
	)
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		vehicleRepository,
		loyaltySvc,
		txMgr,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		vehicleRepository,
		locationRepository,
		extraRepository,
		availabilitySvc,
		txMgr,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	estimateRate := estimateRateHandler.NewHandler(log)
	awardPoints := awardPointsHandler.NewHandler(loyaltySvc, log)
	redeemPoints := redeemPointsHandler.NewHandler(loyaltySvc, log)
	getPointsSummary := getPointsSummaryHandler.NewHandler(loyaltySvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Расчет стоимости аренды без создания бронирования
	api.HandleFunc("/rates/estimate", estimateRate.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Создание бронирования
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Отмена бронирования
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// Перевод бронирования в следующий статус
	protected.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)

	// История бронирований пользователя
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Бонусная программа ---
	// Баланс и история баллов
	protected.HandleFunc("/users/{userId}/points", getPointsSummary.Handle).Methods(http.MethodGet)

	// Начисление баллов
	protected.HandleFunc("/users/{userId}/points/award", awardPoints.Handle).Methods(http.MethodPost)

	// Списание баллов
	protected.HandleFunc("/users/{userId}/points/redeem", redeemPoints.Handle).Methods(http.MethodPost)

	// Запускаем фоновые sweep-операции
	stopSweepsCh := make(chan struct{})
	if cfg.Scheduler.Enabled {
		go runCleanupSweep(bookingSvc, metricsCollector, log,
			time.Duration(cfg.Scheduler.CleanupIntervalSeconds)*time.Second, stopSweepsCh)
		go runExpireSweep(loyaltySvc, metricsCollector, log,
			time.Duration(cfg.Scheduler.ExpireIntervalSeconds)*time.Second, stopSweepsCh)
		log.Info("Background sweeps started (cleanup every %ds, expire every %ds)",
			cfg.Scheduler.CleanupIntervalSeconds, cfg.Scheduler.ExpireIntervalSeconds)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем фоновые sweep-операции
	if cfg.Scheduler.Enabled {
		close(stopSweepsCh)
		log.Info("Background sweeps stopped")
	}

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// runCleanupSweep периодически закрывает просроченные бронирования
func runCleanupSweep(svc *bookingsService.Service, m *metrics.Metrics, log *logger.Logger, interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report, err := svc.CleanupSweep(context.Background())
			if err != nil {
				log.Error("Cleanup sweep failed: %v", err)
				continue
			}
			if m != nil {
				m.ObserveSweep("booking_cleanup", report.Closed, len(report.Failures))
			}
		case <-stopCh:
			return
		}
	}
}

// runExpireSweep периодически помечает сгоревшие бонусные баллы
func runExpireSweep(svc *loyaltyService.Service, m *metrics.Metrics, log *logger.Logger, interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report, err := svc.ExpireSweep(context.Background())
			if err != nil {
				log.Error("Expire sweep failed: %v", err)
				continue
			}
			if m != nil {
				m.ObserveSweep("points_expire", int(report.Expired), len(report.Failures))
			}
		case <-stopCh:
			return
		}
	}
}
