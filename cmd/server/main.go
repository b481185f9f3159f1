package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery-service/config"
	"delivery-service/internal/api"
	"delivery-service/internal/broker"
	"delivery-service/internal/localcache"
	"delivery-service/internal/models"
	"delivery-service/internal/notify"
	"delivery-service/internal/service"
	"delivery-service/internal/store"
	"delivery-service/internal/util"
	"delivery-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting delivery service")

	tp, err := util.InitTracer("delivery-service", cfg.Server.Env, cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	logger.Info("Database connected")

	cache, closeCache := openLocalCache(cfg)
	defer closeCache()

	orderProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer orderProducer.Close()
	outboundProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOutbound)
	defer outboundProducer.Close()
	logger.Info("Kafka producers initialized")

	eventPublisher := broker.NewEventPublisher(orderProducer, outboundProducer)

	changes := store.NewChangeFeed(cfg.Database.URL)
	defer changes.Close()

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	go func() {
		if err := changes.Run(appCtx); err != nil && err != context.Canceled {
			logger.Error("Change feed stopped", zap.Error(err))
		}
	}()

	linkSink := notify.NewLinkSink(cfg.Notify.MessagingHost, notify.LogOpener{})
	var sink notify.Sink = linkSink
	var outboundWorker *worker.OutboundWorker
	if cfg.Notify.Sink == config.SinkQueue {
		sink = notify.NewQueueSink(cfg.Notify.MessagingHost, eventPublisher)

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOutbound, cfg.Kafka.ConsumerGroup)
		outboundWorker = worker.NewOutboundWorker(consumer, linkSink)
		go func() {
			if err := outboundWorker.Start(appCtx); err != nil && err != context.Canceled {
				logger.Error("Outbound worker error", zap.Error(err))
			}
		}()
	}
	dispatcher := notify.NewDispatcher(sink)

	settingsRepo := service.NewSettingsRepository(db, cache)
	orderRepo := service.NewOrderRepository(db, changes, eventPublisher)
	lifecycle := service.NewLifecycleController(orderRepo, settingsRepo, dispatcher)
	promos := service.NewPromoService(cache)
	catalog := service.NewCatalog(db, changes, cache)
	checkout := service.NewCheckout(settingsRepo, promos)

	alerts := service.NewNewOrderNotifier(settingsRepo, dispatcher, cfg.Notify.NewOrderWindow)
	stopAlerts := orderRepo.Watch(appCtx, func(orders []models.Order) {
		alerts.Handle(appCtx, orders)
	})
	defer stopAlerts()
	stopMenuSync := catalog.Watch(appCtx, func(products []models.Product) {
		logger.Debug("Menu cache refreshed", zap.Int("products", len(products)))
	})
	defer stopMenuSync()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Dependencies{
		Orders:    orderRepo,
		Lifecycle: lifecycle,
		Settings:  settingsRepo,
		Promos:    promos,
		Catalog:   catalog,
		Checkout:  checkout,
		Ready:     db.Ping,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	var metricsSrv *http.Server
	if port := cfg.MetricsPort(); port != "" {
		metricsSrv = api.NewMetricsServer(fmt.Sprintf(":%s", port))
		go func() {
			logger.Info("Starting metrics server", zap.String("port", port))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server forced to shutdown", zap.Error(err))
		}
	}

	appCancel()
	if outboundWorker != nil {
		outboundWorker.Stop()
	}

	logger.Info("Server exited")
}

// openLocalCache selects the local cache driver
func openLocalCache(cfg *config.Config) (localcache.Cache, func()) {
	if cfg.LocalCache.Driver == config.CacheDriverMemory {
		util.GetLogger().Warn("Using in-memory local cache; settings and promo codes will not survive a restart")
		return localcache.NewMemoryCache(), func() {}
	}

	redisCache, err := localcache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	util.GetLogger().Info("Redis connected")
	return redisCache, func() { redisCache.Close() }
}
