package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"amazon-search-service/internal/adapters/amazonfetcher"
	logger_adapter "amazon-search-service/internal/adapters/logger"
	"amazon-search-service/internal/adapters/memorycache"
	rabbitmq_adapter "amazon-search-service/internal/adapters/rabbitmq"
	"amazon-search-service/internal/adapters/rest"
	"amazon-search-service/internal/configs"
	"amazon-search-service/internal/constants"
	"amazon-search-service/internal/core/port"
	"amazon-search-service/internal/core/usecase"
	fluentlogger "amazon-search-service/pkg/fluent_logger"
	"amazon-search-service/pkg/rabbitmq/rabbitmq_common"
	"amazon-search-service/pkg/rabbitmq/rabbitmq_producer"

	"github.com/fluent/fluent-logger-golang/fluent"
)

// App – структура приложения
type App struct {
	config        *configs.AppConfig
	connManager   *rabbitmq_common.ConnectionManager
	eventProducer *rabbitmq_producer.Publisher
	fluentClient  *fluent.Fluent
	logger        port.LoggerPort

	restServer *rest.Server
}

// NewApp создает новый экземпляр приложения.
// Это "Composition Root", где все зависимости создаются и связываются.
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ИНИЦИАЛИЗАЦИЯ ЛОГГЕРОВ ---
	var activeLoggers []port.LoggerPort

	slogCfg := logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   false, // текстовый формат
		UseColor: true,
	}
	stdoutLogger := logger_adapter.NewSlogAdapter(slogCfg)
	activeLoggers = append(activeLoggers, stdoutLogger)

	// Добавляем Fluent Bit логгер, если он включен в конфигурации
	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName, // Используем имя приложения как префикс
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	// Создаем наш композитный логгер
	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	// --- 2. СОЗДАЕМ БАЗОВЫЙ ЛОГГЕР ПРИЛОЖЕНИЯ С КОНТЕКСТОМ ---
	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})

	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// --- 3. RABBITMQ (опционально: только сводки завершенных поисков) ---
	var connManager *rabbitmq_common.ConnectionManager
	var eventProducer *rabbitmq_producer.Publisher
	var searchReporter port.SearchReporterPort

	if appConfig.RabbitMQ.Enabled {
		connManagerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})
		connManagerBridge := rabbitmq_adapter.NewPkgLoggerBridge(connManagerLogger)
		connManager, err = rabbitmq_common.GetManager(appConfig.RabbitMQ.URL, connManagerBridge)
		if err != nil {
			appLogger.Error("Failed to create connection manager", err, nil)
			return nil, fmt.Errorf("failed to create connection manager: %w", err)
		}
		appLogger.Info("RabbitMQ Connection Manager initialized.", nil)

		producerLogger := baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})
		pkgLoggerBridge := rabbitmq_adapter.NewPkgLoggerBridge(producerLogger)

		producerCfg := rabbitmq_producer.PublisherConfig{
			Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
			ExchangeName:             constants.SearchExchange,
			ExchangeType:             "direct",
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
			Logger:                   pkgLoggerBridge,
		}
		eventProducer, err = rabbitmq_producer.NewPublisher(producerCfg, connManager)
		if err != nil {
			appLogger.Error("Failed to create event producer", err, port.Fields{"url": appConfig.RabbitMQ.URL})
			return nil, fmt.Errorf("failed to create event producer: %w", err)
		}
		appLogger.Info("RabbitMQ Event Producer initialized.", nil)

		reporterAdapter, err := rabbitmq_adapter.NewRabbitMQSearchReporterAdapter(eventProducer, constants.RoutingKeySearchCompleted)
		if err != nil {
			eventProducer.Close()
			return nil, fmt.Errorf("failed to create search reporter adapter: %w", err)
		}
		searchReporter = reporterAdapter
	}

	// --- 4. ИСХОДЯЩИЕ АДАПТЕРЫ ---
	fetcherAdapter, err := amazonfetcher.NewAmazonFetcherAdapter(amazonfetcher.Config{
		BaseURL:      "https://" + appConfig.Search.Site,
		MaxPages:     appConfig.Search.MaxPages,
		MaxAttempts:  appConfig.Fetcher.MaxAttempts,
		BackoffMin:   time.Duration(appConfig.Fetcher.BackoffMinMS) * time.Millisecond,
		BackoffMax:   time.Duration(appConfig.Fetcher.BackoffMaxMS) * time.Millisecond,
		Parallelism:  appConfig.Fetcher.Parallelism,
		RandomDelay:  time.Duration(appConfig.Fetcher.RandomDelayMS) * time.Millisecond,
		RateLimitRPS: appConfig.Fetcher.RateLimitRPS,
	})
	if err != nil {
		appLogger.Error("Failed to create Amazon Fetcher Adapter", err, nil)
		if eventProducer != nil {
			eventProducer.Close()
		}
		return nil, fmt.Errorf("failed to initialize amazon fetcher: %w", err)
	}
	appLogger.Info("Amazon Fetcher Adapter initialized.", port.Fields{"site": appConfig.Search.Site})

	searchCache := memorycache.NewSearchCacheAdapter(time.Duration(appConfig.Search.CacheTTLMinutes) * time.Minute)
	appLogger.Info("All outgoing adapters initialized.", nil)

	// --- 5. USE CASES (ядро бизнес-логики) ---
	runSearchUseCase := usecase.NewRunSearchUseCase(
		fetcherAdapter,
		searchCache,
		searchReporter,
		appConfig.Search.Workers,
		appConfig.Search.Strict,
	)
	discoverPagesUseCase := usecase.NewDiscoverPagesUseCase(fetcherAdapter)
	appLogger.Info("All use cases initialized.", nil)

	// --- 6. ВХОДЯЩИЙ АДАПТЕР (REST) ---
	searchHandlers := rest.NewSearchHandler(runSearchUseCase, discoverPagesUseCase)
	restServer := rest.NewServer(appConfig.REST.Port, appConfig.REST.AllowedOrigins, searchHandlers, baseLogger)
	appLogger.Info("REST server initialized.", port.Fields{"port": appConfig.REST.Port})

	return &App{
		config:        appConfig,
		connManager:   connManager,
		eventProducer: eventProducer,
		fluentClient:  fluentClient,
		logger:        appLogger,
		restServer:    restServer,
	}, nil
}

// Run запускает приложение и управляет его жизненным циклом
func (a *App) Run() error {
	serverErrors := make(chan error, 1)

	go func() {
		if err := a.restServer.Start(); err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("rest server error: %w", err)
		}
	}()

	// Настройка Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("Application is running. Waiting for signals or server error...", nil)

	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case err := <-serverErrors:
		a.logger.Error("A critical component failed, shutting down", err, nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.restServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("Error during REST server shutdown", err, nil)
	}

	if a.eventProducer != nil {
		if err := a.eventProducer.Close(); err != nil {
			a.logger.Error("Error closing event producer", err, nil)
		}
	}

	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
	}

	a.logger.Info("Application shut down gracefully.", nil)

	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			// Логируем в stdout, так как fluent может быть уже недоступен
			fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
		}
	}

	return nil
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
