package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shenikar/incident_dispatch/internal/broadcast"
	"github.com/shenikar/incident_dispatch/internal/channel"
	"github.com/shenikar/incident_dispatch/internal/config"
	"github.com/shenikar/incident_dispatch/internal/dispatcher"
	v1 "github.com/shenikar/incident_dispatch/internal/handler/http/v1"
	"github.com/shenikar/incident_dispatch/internal/ingest"
	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/shenikar/incident_dispatch/internal/repository"
	"github.com/shenikar/incident_dispatch/internal/service"
	"github.com/shenikar/incident_dispatch/internal/subscription"
	"github.com/shenikar/incident_dispatch/pkg/logger"
	"github.com/shenikar/incident_dispatch/pkg/postgres"
	redisclient "github.com/shenikar/incident_dispatch/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/incident_dispatch/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Incident Dispatch API
// @version 1.0
// @description Live incident broadcast and multi-channel notification dispatch for CCTV detections.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL, 0)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента; BRPOP держит соединение, поэтому пул больше числа воркеров
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.IngestWorkers+10)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Инициализация репозиториев
	incidentRepo := repository.NewIncidentRepository(dbpool, redisClient)
	attemptRepo := repository.NewAttemptRepository(dbpool)
	settingsRepo := repository.NewSettingsRepository(dbpool, cfg.DefaultSettings())
	feedRepo := repository.NewFeedRepository(dbpool)
	claims := repository.NewRedisClaimStore(redisClient, cfg.DispatchClaimTTL)

	// Каналы уведомлений
	senders := channel.NewFactory(channel.FactoryOptions{
		Timeout:          cfg.WebhookTimeout,
		SMSRatePerSecond: cfg.SMSRatePerSecond,
	})

	// Реестр наблюдателей и рассылка событий
	registry := subscription.NewRegistry()
	broadcaster := broadcast.NewBroadcaster(registry, log)

	dispatch := dispatcher.New(dispatcher.Deps{
		Senders:  senders,
		Attempts: attemptRepo,
		Reporter: incidentRepo,
		Claims:   claims,
		Alerter:  broadcaster,
		Logger:   log,
	}, dispatcher.Options{
		CallTimeout: cfg.DispatchTimeout,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
		MaxRetries:  cfg.RetryMaxAttempts,
	})

	// Инициализация сервисов
	incidentService := service.NewIncidentService(service.Deps{
		Incidents:   incidentRepo,
		Attempts:    attemptRepo,
		Settings:    settingsRepo,
		Feeds:       feedRepo,
		Dispatcher:  dispatch,
		Broadcaster: broadcaster,
		Senders:     senders,
		Publisher:   ingest.NewRedisPublisher(redisClient),
		Observers:   registry,
		Checks: map[string]func(ctx context.Context) error{
			"postgres": dbpool.Ping,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		Logger: log,
	})

	// Инициализация и запуск воркеров очереди инцидентов
	worker := ingest.NewWorker(redisClient, func(ctx context.Context, incident models.Incident) error {
		_, err := incidentService.OnIncidentCreated(ctx, incident)
		return err
	}, log, cfg.IngestWorkers, cfg.IngestPollTimeout)
	worker.Start(ctx)

	// Инициализация хэндлеров
	handler := v1.NewHandler(incidentService, registry, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	handler.RegisterWebsocket(router)

	// Метрики Prometheus
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	// Останавливаем воркеры: текущие диспетчеризации прерываются через ctx
	cancel()
	worker.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
