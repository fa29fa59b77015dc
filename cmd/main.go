package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	acquireLockHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/acquire_lock"
	cancelBookingHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/create_booking"
	deleteSlotHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/delete_slot"
	getBookingHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/get_booking"
	getPriceQuoteHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/get_price_quote"
	getScheduleHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/get_schedule"
	getScheduleOverviewHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/get_schedule_overview"
	getUserBookingsHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/get_user_bookings"
	getUserRewardsHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/get_user_rewards"
	listBookingsHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/list_bookings"
	manageScheduleHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/manage_schedule"
	passwordSetupHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/password_setup"
	releaseLockHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/release_lock"
	slotAvailabilityHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/slot_availability"
	updateBookingStatusHandler "github.com/m04kA/SMC-DetailingService/internal/api/handlers/update_booking_status"
	"github.com/m04kA/SMC-DetailingService/internal/api/middleware"
	"github.com/m04kA/SMC-DetailingService/internal/config"
	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/booking"
	lockRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/lock"
	pricingRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/pricing"
	rewardsRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/rewards"
	scheduleRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/schedule"
	slotRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/slot"
	userRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/distanceservice"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/emailservice"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/payment"
	"github.com/m04kA/SMC-DetailingService/internal/jobs"
	accountsService "github.com/m04kA/SMC-DetailingService/internal/service/accounts"
	bookingsService "github.com/m04kA/SMC-DetailingService/internal/service/bookings"
	locksService "github.com/m04kA/SMC-DetailingService/internal/service/locks"
	pricingService "github.com/m04kA/SMC-DetailingService/internal/service/pricing"
	rewardsService "github.com/m04kA/SMC-DetailingService/internal/service/rewards"
	scheduleService "github.com/m04kA/SMC-DetailingService/internal/service/schedule"
	createBookingUC "github.com/m04kA/SMC-DetailingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-DetailingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
	"github.com/m04kA/SMC-DetailingService/pkg/metrics"
	"github.com/m04kA/SMC-DetailingService/pkg/telemetry"
	"github.com/m04kA/SMC-DetailingService/pkg/txmanager"
)

// lockStore хранилище блокировок: Postgres или Redis
type lockStore interface {
	locksService.LockStore
	ListActive(ctx context.Context, keys []domain.SlotKey, now time.Time) (map[domain.SlotKey]bool, error)
}

// eventPublisher лента изменений: RabbitMQ или заглушка
type eventPublisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
	Close() error
}

type emailSender interface {
	Send(ctx context.Context, msg emailservice.Message) error
}

func main() {
	configPath := flag.String("config", "config.toml", "path to TOML config")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
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

	log.Info("Starting SMC-DetailingService...")
	log.Info("Configuration loaded from %s", *configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Трассировка
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Metrics.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing: %v", err)
	}

	// Метрики (nil-коллектор безопасен, методы ничего не делают)
	var (
		metricsCollector *metrics.Metrics
		dbRecorder       dbmetrics.Recorder
	)
	stopMetricsCh := make(chan struct{})
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		dbRecorder = metricsCollector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, dbRecorder, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	slotRepository := slotRepo.NewRepository(wrappedDB)
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)
	userRepository := userRepo.NewRepository(wrappedDB)
	pricingRepository := pricingRepo.NewRepository(wrappedDB)
	rewardsRepository := rewardsRepo.NewRepository(wrappedDB)

	locks, closeLocks, err := newLockStore(ctx, cfg, wrappedDB)
	if err != nil {
		log.Fatal("Failed to initialize lock store: %v", err)
	}
	defer closeLocks()
	log.Info("Lock store: %s (ttl=%ds)", cfg.Locks.Backend, cfg.Locks.TTLSeconds)

	// Интеграции
	var publisher eventPublisher = events.NopPublisher{}
	if cfg.RabbitMQ.Enabled {
		rabbit, err := events.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = rabbit
		log.Info("Change feed publishing to exchange %s", cfg.RabbitMQ.Exchange)
	}
	defer publisher.Close()

	var email emailSender = emailservice.NewLogSender(log)
	if cfg.Email.Mode == config.EmailModeHTTP {
		email = emailservice.NewClient(cfg.Email.URL, cfg.Email.From, time.Duration(cfg.Email.Timeout)*time.Second, log)
	}

	distanceClient := distanceservice.NewClient(cfg.Distance.URL, time.Duration(cfg.Distance.Timeout)*time.Second, log)
	payments := payment.NewMockProvider()

	log.Info("Integrations initialized (email=%s, distance=%q, payment=%s, rabbitmq=%t)",
		cfg.Email.Mode, cfg.Distance.URL, cfg.Payment.Provider, cfg.RabbitMQ.Enabled)

	// Сервисы
	lockSvc := locksService.NewService(
		locks,
		slotRepository,
		time.Duration(cfg.Locks.TTLSeconds)*time.Second,
		metricsCollector,
		log,
	)
	scheduleSvc := scheduleService.NewService(
		slotRepository,
		scheduleRepository,
		locks,
		publisher,
		cfg.Booking.MaxScheduleRangeDays,
		log,
	)
	rewardsSvc := rewardsService.NewService(
		rewardsRepository,
		userRepository,
		email,
		txMgr,
		metricsCollector,
		log,
	)
	pricingSvc := pricingService.NewService(
		pricingRepository,
		distanceClient,
		rewardsRepository,
		pricingService.Config{
			BaseRadiusMiles:      cfg.Pricing.BaseRadiusMiles,
			TravelSurchargePence: cfg.Pricing.TravelSurchargePence,
		},
		log,
	)
	accountsSvc := accountsService.NewService(
		userRepository,
		txMgr,
		time.Duration(cfg.Booking.PasswordSetupTTLHours)*time.Hour,
		log,
	)
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		slotRepository,
		rewardsSvc,
		payments,
		email,
		publisher,
		txMgr,
		metricsCollector,
		cfg.Rewards.PointsPerPound,
		log,
	)

	// Use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		slotRepository,
		userRepository,
		lockSvc,
		pricingSvc,
		payments,
		accountsSvc,
		email,
		publisher,
		txMgr,
		metricsCollector,
		createBookingUC.Config{
			Currency:           cfg.Pricing.Currency,
			ReferenceAttempts:  cfg.Booking.ReferenceAttempts,
			SideEffectsTimeout: time.Duration(cfg.Booking.SideEffectsTimeoutSecs) * time.Second,
		},
		log,
	)

	// Handlers
	getSchedule := getScheduleHandler.NewHandler(scheduleSvc, log)
	getScheduleOverview := getScheduleOverviewHandler.NewHandler(scheduleSvc, log)
	manageSchedule := manageScheduleHandler.NewHandler(scheduleSvc, log)
	deleteSlot := deleteSlotHandler.NewHandler(scheduleSvc, log)
	acquireLock := acquireLockHandler.NewHandler(lockSvc, log)
	releaseLock := releaseLockHandler.NewHandler(lockSvc, log)
	slotAvailability := slotAvailabilityHandler.NewHandler(lockSvc, log)
	getPriceQuote := getPriceQuoteHandler.NewHandler(pricingSvc, cfg.Pricing.Currency, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getUserRewards := getUserRewardsHandler.NewHandler(rewardsSvc, log)
	passwordSetup := passwordSetupHandler.NewHandler(accountsSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (анонимный доступ, идентичность опциональна)
	// ============================================================

	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.Identity)

	public.HandleFunc("/schedule", getSchedule.Handle).Methods(http.MethodGet)
	public.HandleFunc("/schedule/overview", getScheduleOverview.Handle).Methods(http.MethodGet)

	public.HandleFunc("/locks", acquireLock.Handle).Methods(http.MethodPost)
	public.HandleFunc("/locks/{slotKey}", releaseLock.Handle).Methods(http.MethodDelete)
	public.HandleFunc("/locks/{slotKey}/availability", slotAvailability.Handle).Methods(http.MethodGet)

	public.HandleFunc("/pricing/quote", getPriceQuote.Handle).Methods(http.MethodGet)

	// Анонимное бронирование создает аккаунт без пароля
	public.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	public.HandleFunc("/accounts/password-setup", passwordSetup.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/users/{userId}/rewards", getUserRewards.Handle).Methods(http.MethodGet)

	// ============================================================
	// ADMIN ROUTES
	// ============================================================

	admin := api.PathPrefix("").Subrouter()
	admin.Use(middleware.Auth, middleware.RequireAdmin)

	admin.HandleFunc("/schedule", manageSchedule.Handle).Methods(http.MethodPost)
	admin.HandleFunc("/schedule", deleteSlot.Handle).Methods(http.MethodDelete)
	admin.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)
	admin.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)

	// Фоновые задачи
	lockSweeper := jobs.NewLockSweepJob(lockSvc, time.Duration(cfg.Jobs.LockSweepInterval)*time.Second, log)
	lockSweeper.Start(ctx)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, cfg.Metrics.ServiceName),
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

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	lockSweeper.Stop()
	close(stopMetricsCh)

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Failed to flush traces: %v", err)
	}

	log.Info("Server stopped gracefully")
}

// newLockStore выбирает хранилище блокировок по [locks] backend
func newLockStore(ctx context.Context, cfg *config.Config, db *dbmetrics.DB) (lockStore, func(), error) {
	if cfg.Locks.Backend != config.LockBackendRedis {
		return lockRepo.NewRepository(db), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
	}

	return lockRepo.NewRedisRepository(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil
}
