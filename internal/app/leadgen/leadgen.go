package leadgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/99sellers/leadgen/internal/alerts"
	"github.com/99sellers/leadgen/internal/billing"
	"github.com/99sellers/leadgen/internal/cache"
	"github.com/99sellers/leadgen/internal/config"
	"github.com/99sellers/leadgen/internal/kv"
	"github.com/99sellers/leadgen/internal/lib/jwt"
	"github.com/99sellers/leadgen/internal/migrations"
	adminservice "github.com/99sellers/leadgen/internal/services/admin"
	authservice "github.com/99sellers/leadgen/internal/services/auth"
	exportservice "github.com/99sellers/leadgen/internal/services/export"
	leadsservice "github.com/99sellers/leadgen/internal/services/leads"
	subservice "github.com/99sellers/leadgen/internal/services/subscription"
	"github.com/99sellers/leadgen/internal/storage/repository"
)

// expirySweepInterval задаёт период фонового перевода просроченных
// подписок в статус expired.
const expirySweepInterval = time.Hour

// App представляет основное приложение сервиса.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection
	amqpCh   *amqp.Channel
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создаёт приложение: подключает хранилище, кеш и брокер событий,
// собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err = waitForDB(db); err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	kvStore, err := kv.NewRedis(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("kv store not initialized: %w", err)
	}

	// Публикация событий опциональна: без брокера сервис работает,
	// события просто не отправляются.
	var alertsPub *alerts.Publisher
	var amqpConn *amqp.Connection
	var amqpCh *amqp.Channel
	if cfg.RabbitMQ.URL != "" {
		amqpConn, err = alerts.Connect(cfg.RabbitMQ.URL, 5, 3*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		amqpCh, err = alerts.SetupChannel(amqpConn, cfg.RabbitMQ.Exchange, alerts.GetAlertQueues())
		if err != nil {
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		alertsPub = alerts.NewPublisher(amqpCh, cfg.RabbitMQ.Exchange)
	}

	provider := billing.NewStripeProvider(cfg.Billing.StripeSecretKey)
	jwtMaker := jwt.NewMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	authService := authservice.NewAuthService(db, jwtMaker)
	subscriptionService := subservice.NewSubscriptionService(db, db, cacheRedis, provider, alertsPub, logger)
	adminService := adminservice.NewAdminService(db, logger)
	exportService := exportservice.NewExportService(kvStore, db, subscriptionService, alertsPub, logger)
	leadsService := leadsservice.NewLeadsService(db, subscriptionService, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, subscriptionService, adminService, exportService, leadsService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		amqpConn: amqpConn,
		amqpCh:   amqpCh,
	}, nil
}

// Run запускает HTTP-сервер и фоновую очистку просроченных подписок,
// завершается по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	go a.sweepExpired(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeResources()
		return err
	}
}

func (a *App) sweepExpired(ctx context.Context) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			affected, err := a.db.ExpireLapsedSubscriptions(ctx)
			if err != nil {
				a.logger.Error("failed to expire lapsed subscriptions", slog.Any("err", err))
				continue
			}
			if affected > 0 {
				a.logger.Info("lapsed subscriptions expired", slog.Int("count", affected))
			}
		}
	}
}

func (a *App) closeResources() {
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Error("failed to close channel", slog.Any("err", err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Error("failed to close connection", slog.Any("err", err))
		}
	}
	a.db.DB.Close()
}
