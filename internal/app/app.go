// Package app собирает приложение: клиенты внешних сервисов, хранилище,
// сервисный слой, HTTP маршруты и middleware.
package app

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/InQaaaaGit/lnboost.git/internal/alby"
	"github.com/InQaaaaGit/lnboost.git/internal/config"
	"github.com/InQaaaaGit/lnboost.git/internal/handler"
	"github.com/InQaaaaGit/lnboost.git/internal/lnurl"
	"github.com/InQaaaaGit/lnboost.git/internal/metrics"
	"github.com/InQaaaaGit/lnboost.git/internal/middleware"
	"github.com/InQaaaaGit/lnboost.git/internal/service"
	"github.com/InQaaaaGit/lnboost.git/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// App представляет основное приложение сервиса пакетных платежей.
type App struct {
	config  *config.Config   // Конфигурация приложения
	router  *chi.Mux         // HTTP роутер для обработки запросов
	logger  *zap.Logger      // Логгер для записи событий приложения
	handler *handler.Handler // Обработчики HTTP запросов
	storage storage.Storage  // Хранилище библиотек
	metrics bool             // Публиковать ли /metrics
}

// NewApp создает приложение и регистрирует маршруты.
// Пустой MetricsNamespace отключает метрики и эндпоинт /metrics.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	st, err := storage.New(cfg.DatabaseDSN, cfg.FileStoragePath, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating storage: %w", err)
	}

	httpClient := &http.Client{}
	payments := alby.NewClient(httpClient, alby.Config{
		BaseURL: cfg.PaymentServiceBaseURL,
		Timeout: cfg.PerCallTimeout,
	}, logger)

	invoices, err := NewInvoiceRequester(cfg, httpClient, logger)
	if err != nil {
		return nil, multierr.Append(err, st.Close())
	}

	m := metrics.NopMetrics()
	if cfg.MetricsNamespace != "" {
		m = metrics.PrometheusMetrics(cfg.MetricsNamespace)
	}

	boost := service.NewBoostService(invoices, payments, logger,
		service.WithWorkers(cfg.ResolveWorkers),
		service.WithMetrics(m))
	library := service.NewLibraryService(payments, st, logger)

	a := &App{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		handler: handler.NewHandler(boost, library, logger),
		storage: st,
		metrics: cfg.MetricsNamespace != "",
	}
	a.setupRoutes()
	return a, nil
}

// NewInvoiceRequester выбирает способ получения инвойсов по INVOICE_STRATEGY
func NewInvoiceRequester(cfg *config.Config, httpClient *http.Client, logger *zap.Logger) (lnurl.InvoiceRequester, error) {
	switch cfg.InvoiceStrategy {
	case config.StrategyProxy, "":
		logger.Info("Using proxy invoice requester", zap.String("endpoint", cfg.ProxyEndpoint))
		return lnurl.NewProxyRequester(httpClient, cfg.ProxyEndpoint, cfg.PerCallTimeout, logger), nil
	case config.StrategyDirect:
		logger.Info("Using direct lnurl-pay resolver")
		return lnurl.NewResolver(httpClient, lnurl.ResolverConfig{Timeout: cfg.PerCallTimeout}, logger), nil
	default:
		return nil, fmt.Errorf("unknown invoice strategy %q", cfg.InvoiceStrategy)
	}
}

// setupRoutes настраивает HTTP маршруты и middleware.
// Аутентификация сессии применяется только к /api.
func (a *App) setupRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(a.handler.WithLogging)
	a.router.Use(a.handler.WithGzip)
	a.router.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: a.config.RateLimitRPS,
		Burst:             a.config.RateLimitBurst,
	}, a.logger))

	a.router.Get("/ping", a.handler.HandlePing)
	if a.metrics {
		a.router.Handle("/metrics", promhttp.Handler())
	}

	a.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.WithAlbyAuth(a.config.AuthSecret, a.logger))
		r.Post("/boost", a.handler.HandleBoost)
		r.Post("/library", a.handler.HandleSaveLibrary)
		r.Get("/library/{address}", a.handler.HandleGetLibrary)
	})

	// Профилирование
	a.router.Mount("/debug/pprof", http.DefaultServeMux)
}

// Router возвращает HTTP обработчик приложения
func (a *App) Router() http.Handler {
	return a.router
}

// GetServer создает и возвращает настроенный HTTP сервер.
// WriteTimeout не задан: время ответа на пакет ограничено таймаутом каждого внешнего вызова.
func (a *App) GetServer() *http.Server {
	return &http.Server{
		Addr:              a.config.ServerAddress,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Close освобождает ресурсы приложения
func (a *App) Close() error {
	var err error
	if a.storage != nil {
		err = multierr.Append(err, a.storage.Close())
	}
	return err
}
