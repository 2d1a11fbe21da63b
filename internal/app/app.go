package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gw-bank-transfer/internal/api/handlers"
	"gw-bank-transfer/internal/api/middlew"
	"gw-bank-transfer/internal/cache"
	"gw-bank-transfer/internal/config"
	"gw-bank-transfer/internal/db"
	"gw-bank-transfer/internal/fraud"
	"gw-bank-transfer/internal/kafka"
	"gw-bank-transfer/internal/metrics"
	"gw-bank-transfer/internal/models"
	"gw-bank-transfer/internal/server"
	"gw-bank-transfer/internal/service"
	"gw-bank-transfer/internal/storage/postgres"
	"gw-bank-transfer/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type App struct {
	log     *slog.Logger
	server  *server.Server
	pool    *pgxpool.Pool
	logFile *os.File
	cfg     *config.Config

	featureCache  cache.FeatureCache
	kafkaProducer kafka.Producer
	scorer        *fraud.Scorer

	authService        service.Auth
	featureService     *service.FeatureService
	restorationService *service.RestorationService
	notifier           *service.NotificationService
}

func NewApp() (*App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	loggerWithFile, err := logger.NewLoggerWithFile(cfg.LogFile, level, "gw-bank-transfer")
	if err != nil {
		return nil, err
	}
	log := loggerWithFile.Logger
	log.Info("инициализация приложения", slog.String("port", cfg.HTTPPort))

	log.Info("выполнение миграций базы данных")
	version, err := db.RunMigrations(cfg.DB.MigrationURL(), "migrations", log)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения миграций: %w", err)
	}
	log.Info("миграции успешно применены", slog.Uint64("version", uint64(version)))

	poolCfg := db.PoolConfig{
		MaxConns:          100,
		MinConns:          10,
		HealthCheckPeriod: 30 * time.Second,
		PoolTimeout:       5 * time.Second,
		RetryAttempts:     5,
		RetryDelay:        1 * time.Second,
		ApplicationName:   "gw-bank-transfer",
	}

	pool, err := db.NewPool(context.Background(), cfg.DB.DSN(), poolCfg, log)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	featureCache := newFeatureCache(cfg, log)

	var kafkaProducer kafka.Producer
	if cfg.Kafka.Enabled {
		log.Info("инициализация kafka producer", slog.Any("brokers", cfg.Kafka.Brokers))
		kafkaProducer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("ошибка инициализации kafka: %w", err)
		}
	} else {
		log.Info("kafka отключен в конфигурации")
		kafkaProducer = kafka.NewNoOpProducer(log)
	}

	model, err := fraud.LoadModel(cfg.Fraud.ModelDir)
	if err != nil {
		// без артефактов модели оценка идет только эвристикой
		log.Warn("модели антифрода не загружены, используется эвристика",
			slog.String("dir", cfg.Fraud.ModelDir),
			slog.String("error", err.Error()))
	} else {
		log.Info("модели антифрода загружены", slog.String("dir", cfg.Fraud.ModelDir))
	}

	srv := server.NewServer(cfg.HTTPPort)
	srv.Router.Use(middleware.RequestID)
	srv.Router.Use(middlew.WithLogger(log))
	srv.Router.Use(middleware.RealIP)
	srv.Router.Use(middleware.Recoverer)
	srv.Router.Use(metrics.Middleware)
	srv.RegisterSwagger(cfg.HTTPPort)
	srv.RegisterMetrics()
	srv.RegisterHealth()
	log.Info("сервер инициализирован", slog.String("port", cfg.HTTPPort))

	return &App{
		log:           log,
		server:        srv,
		pool:          pool,
		logFile:       loggerWithFile.LogFile,
		cfg:           cfg,
		featureCache:  featureCache,
		kafkaProducer: kafkaProducer,
		scorer:        fraud.NewScorer(model, log),
		authService:   service.NewAuthService(cfg.JWT.Secret, log),
	}, nil
}

func newFeatureCache(cfg *config.Config, log *slog.Logger) cache.FeatureCache {
	if !cfg.Redis.Enabled {
		log.Info("redis отключен в конфигурации, кэш признаков не используется")
		return cache.NewNoOpFeatureCache()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
	defer cancel()

	featureCache, err := cache.NewRedisFeatureCache(ctx, &redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.Timeout,
		ReadTimeout:  cfg.Redis.Timeout,
		WriteTimeout: cfg.Redis.Timeout,
	}, cfg.Redis.FeatureTTL, log)
	if err != nil {
		log.Warn("redis недоступен, признаки читаются напрямую из БД", slog.String("error", err.Error()))
		return cache.NewNoOpFeatureCache()
	}
	return featureCache
}

func (a *App) BuildAccountLayer() {
	accountRepo := postgres.NewAccountRepository(a.pool)
	accountHandler := handlers.NewAccountHandler(service.NewAccountService(accountRepo))

	a.server.Router.Group(func(r chi.Router) {
		r.Use(middlew.RequireAuth(a.authService))

		r.Get("/api/v1/accounts", accountHandler.GetAccounts)
		r.Get("/api/v1/accounts/{accountNumber}", accountHandler.GetAccount)
	})

	a.log.Info("слой 'accounts' собран и маршруты зарегистрированы")
}

func (a *App) BuildTransferLayer() error {
	if a.kafkaProducer == nil {
		err := errors.New("kafkaProducer not initialized")
		a.log.Error(err.Error())
		return err
	}

	limit, err := decimal.NewFromString(a.cfg.Restoration.DefaultLimit)
	if err != nil {
		err = fmt.Errorf("некорректный RESTORATION_DEFAULT_LIMIT %q: %w", a.cfg.Restoration.DefaultLimit, err)
		a.log.Error(err.Error())
		return err
	}
	defaultLimit, err := models.AmountToMinorUnits(limit)
	if err != nil {
		err = fmt.Errorf("некорректный RESTORATION_DEFAULT_LIMIT %q", a.cfg.Restoration.DefaultLimit)
		a.log.Error(err.Error())
		return err
	}

	txManager := service.NewPgxTxManager(a.pool)
	accountRepo := postgres.NewAccountRepository(a.pool)
	transactionRepo := postgres.NewTransactionRepository(a.pool)
	featureRepo := postgres.NewFeatureRepository(a.pool)
	restorationRepo := postgres.NewRestorationRepository(a.pool)

	a.featureService = service.NewFeatureService(
		featureRepo,
		a.featureCache,
		a.cfg.Features.Workers,
		a.cfg.Features.QueueSize,
		a.cfg.Features.UpdateTimeout,
		a.log,
	)

	a.restorationService = service.NewRestorationService(
		restorationRepo,
		defaultLimit,
		a.cfg.Restoration.Window,
		a.log,
	)

	a.notifier = service.NewNotificationService(
		a.kafkaProducer,
		a.cfg.Kafka.Workers,
		a.cfg.Kafka.QueueSize,
		a.cfg.Kafka.SendTimeout,
		a.log,
	)

	policy := fraud.Policy{
		Threshold:       a.cfg.Fraud.Threshold,
		ReauthThreshold: a.cfg.Fraud.ReauthThreshold,
		ReauthBypass:    a.cfg.Fraud.ReauthBypass,
		OverrideRatio:   a.cfg.Fraud.OverrideRatio,
	}

	transferService := service.NewTransferService(
		accountRepo,
		transactionRepo,
		a.featureService,
		a.restorationService,
		a.scorer,
		policy,
		txManager,
		a.notifier,
		a.log,
	)
	pinService := service.NewPinService(accountRepo, a.cfg.Pin.MaxAttempts, a.cfg.Pin.Lockout, a.log)

	transferHandler := handlers.NewTransferHandler(transferService, pinService)

	a.server.Router.Group(func(r chi.Router) {
		r.Use(middlew.RequireAuth(a.authService))

		r.Post("/api/v1/transactions/create", transferHandler.Create)
		r.Post("/api/v1/transactions/test-fraud", transferHandler.TestFraud)
		r.Post("/api/v1/transactions/verify-pin", transferHandler.VerifyPin)
		r.Post("/api/v1/accounts/pin", transferHandler.SetPin)
	})

	a.log.Info("слой 'transfers' собран и маршруты зарегистрированы",
		slog.Bool("models_loaded", a.scorer.ModelsLoaded()),
		slog.Float64("threshold", policy.Threshold))
	return nil
}

func (a *App) BuildAdminLayer() error {
	if a.restorationService == nil {
		err := errors.New("restorationService not initialized, call BuildTransferLayer first")
		a.log.Error(err.Error())
		return err
	}

	restorationHandler := handlers.NewRestorationHandler(a.restorationService)

	a.server.Router.Group(func(r chi.Router) {
		r.Use(middlew.RequireAuth(a.authService))
		r.Use(middlew.RequireAdmin)

		r.Get("/api/v1/admin/restoration/{customerID}", restorationHandler.GetRestoration)
		r.Post("/api/v1/admin/restoration/{customerID}", restorationHandler.ActivateRestoration)
		r.Delete("/api/v1/admin/restoration/{customerID}", restorationHandler.RemoveRestoration)
	})

	a.log.Info("слой 'admin' собран и маршруты зарегистрированы")
	return nil
}

func (a *App) Run() error {
	a.log.Info("сервер запускается")

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		a.close(context.Background())
		return err
	case sig := <-shutdownChan:
		a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))
	}

	a.log.Info("приложение останавливается")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("ошибка при остановке http сервера", slog.String("error", err.Error()))
	}

	a.close(ctx)
	a.log.Info("приложение остановлено")
	return nil
}

// close освобождает ресурсы после остановки http сервера
func (a *App) close(ctx context.Context) {
	if a.featureService != nil {
		a.log.Info("остановка обновления признаков")
		if err := a.featureService.Shutdown(ctx); err != nil {
			a.log.Error("ошибка при остановке feature service", slog.String("error", err.Error()))
		}
	}

	if a.notifier != nil {
		a.log.Info("остановка отправки уведомлений")
		if err := a.notifier.Shutdown(ctx); err != nil {
			a.log.Error("ошибка при остановке notification service", slog.String("error", err.Error()))
		}
	}

	if a.kafkaProducer != nil {
		a.log.Info("закрытие kafka producer")
		if err := a.kafkaProducer.Close(); err != nil {
			a.log.Error("ошибка при закрытии kafka producer", slog.String("error", err.Error()))
		}
	}

	if a.featureCache != nil {
		if err := a.featureCache.Close(); err != nil {
			a.log.Error("ошибка при закрытии redis", slog.String("error", err.Error()))
		}
	}

	a.log.Info("закрытие соединения с базой данных")
	a.pool.Close()

	if a.logFile != nil {
		a.log.Info("закрытие файла логов")
		if err := a.logFile.Close(); err != nil {
			a.log.Error("ошибка при закрытии файла логов", slog.String("error", err.Error()))
		}
	}
}
