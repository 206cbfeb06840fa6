package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-sales-service/config"
	"github.com/fekuna/omnipos-sales-service/internal/events"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/internal/sale"
	"github.com/fekuna/omnipos-sales-service/internal/transport"
	"github.com/fekuna/omnipos-sales-service/pkg/broker"
	"github.com/fekuna/omnipos-sales-service/pkg/cache"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/fekuna/omnipos-sales-service/pkg/i18n"
	"github.com/fekuna/omnipos-sales-service/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/pkg/middleware"
	"github.com/fekuna/omnipos-sales-service/pkg/search"

	invH "github.com/fekuna/omnipos-sales-service/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/omnipos-sales-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-sales-service/internal/inventory/usecase"

	loanH "github.com/fekuna/omnipos-sales-service/internal/loan/handler"
	loanRepoPkg "github.com/fekuna/omnipos-sales-service/internal/loan/repository"
	loanUCPkg "github.com/fekuna/omnipos-sales-service/internal/loan/usecase"

	prodH "github.com/fekuna/omnipos-sales-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-sales-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-sales-service/internal/product/usecase"

	saleH "github.com/fekuna/omnipos-sales-service/internal/sale/handler"
	saleListenerPkg "github.com/fekuna/omnipos-sales-service/internal/sale/listener"
	saleRepoPkg "github.com/fekuna/omnipos-sales-service/internal/sale/repository"
	saleUCPkg "github.com/fekuna/omnipos-sales-service/internal/sale/usecase"

	unitH "github.com/fekuna/omnipos-sales-service/internal/unit/handler"
	unitRepoPkg "github.com/fekuna/omnipos-sales-service/internal/unit/repository"
	unitUCPkg "github.com/fekuna/omnipos-sales-service/internal/unit/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const serviceName = "omnipos-sales-service"

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()
	isDev := cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development"

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     isDev,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	// 3. Initialize i18n
	translator, err := i18n.NewTranslator(cfg.I18n.DefaultLanguage)
	if err != nil {
		appLogger.Fatal("Could not load translations", zap.Error(err))
	}
	if cfg.I18n.LocalesDir != "" {
		loaded, err := translator.LoadDir(cfg.I18n.LocalesDir)
		if err != nil {
			appLogger.Warn("Failed to load locale files", zap.String("dir", cfg.I18n.LocalesDir), zap.Error(err))
		}
		appLogger.Info("Locale files loaded", zap.String("dir", cfg.I18n.LocalesDir), zap.Int("files", loaded))
	}

	// 4. Connect to Database
	db, err := database.NewDB(&database.Config{
		Dialect:         cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to database",
		zap.String("driver", cfg.Database.Driver),
		zap.String("db_name", cfg.Database.DBName),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.MigrateOnStart {
		version, err := database.Migrate(ctx, db)
		if err != nil {
			appLogger.Fatal("Could not migrate database", zap.Error(err))
		}
		appLogger.Info("Database migrated", zap.Uint("version", version))
	}

	// 5. Initialize Repositories
	tx := database.NewTransactor(db)
	unitRepo := unitRepoPkg.NewSQLRepository(db)
	prodRepo := prodRepoPkg.NewSQLRepository(db)
	invRepo := invRepoPkg.NewSQLRepository(db)
	saleRepo := saleRepoPkg.NewSQLRepository(db)
	loanRepo := loanRepoPkg.NewSQLRepository(db)

	// 6. Initialize Redis
	var dedup sale.Deduplicator
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		dedup = saleRepoPkg.NewRedisDeduplicator(redisClient, time.Duration(cfg.Redis.IdempotencyTTL)*time.Second)
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 7. Initialize Kafka
	publisher := events.NewNopPublisher()
	var orderConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EventsTopic,
		})
		defer producer.Close()
		publisher = events.NewKafkaPublisher(producer, serviceName)

		orderConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.OrdersTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer orderConsumer.Close()
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("events_topic", cfg.Kafka.EventsTopic),
			zap.String("orders_topic", cfg.Kafka.OrdersTopic),
		)
	}

	// 8. Initialize Elasticsearch
	var indexer product.Indexer
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			// product search falls back to SQL
			appLogger.Warn("Could not connect to Elasticsearch", zap.Error(err))
		} else if idx, err := prodRepoPkg.NewElasticIndexer(ctx, esClient, cfg.Elastic.Index); err != nil {
			appLogger.Warn("Could not prepare product index", zap.String("index", cfg.Elastic.Index), zap.Error(err))
		} else {
			indexer = idx
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 9. Initialize UseCases
	unitUC := unitUCPkg.NewUnitUseCase(unitRepo, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, invRepo, unitRepo, tx, indexer, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, prodRepo, tx, publisher, appLogger)
	saleUC := saleUCPkg.NewSaleUseCase(saleRepo, prodRepo, invRepo, loanRepo, tx, dedup, publisher, appLogger)
	loanUC := loanUCPkg.NewLoanUseCase(loanRepo, saleRepo, tx, publisher, appLogger)

	// 10. Start Listeners
	if orderConsumer != nil {
		orderListener := saleListenerPkg.NewOrderListener(orderConsumer, saleUC, appLogger)
		go orderListener.Start(ctx)
	}

	// 11. Initialize Handlers
	errs := transport.NewErrorMapper(translator, appLogger)
	unitHandler := unitH.NewUnitHandler(unitUC, errs)
	prodHandler := prodH.NewProductHandler(prodUC, errs)
	invHandler := invH.NewInventoryHandler(invUC, errs)
	saleHandler := saleH.NewSaleHandler(saleUC, errs)
	loanHandler := loanH.NewLoanHandler(loanUC, errs)

	// 12. gRPC Server
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.RecoveryInterceptor(appLogger),
			middleware.LoggingInterceptor(appLogger),
		),
	)
	unitHandler.RegisterGRPC(grpcServer)
	prodHandler.RegisterGRPC(grpcServer)
	invHandler.RegisterGRPC(grpcServer)
	saleHandler.RegisterGRPC(grpcServer)
	loanHandler.RegisterGRPC(grpcServer)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	// 13. REST Server
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.GinLogger(appLogger))
	router.GET("/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := router.Group("/api/v1")
	unitHandler.RegisterRoutes(api)
	prodHandler.RegisterRoutes(api)
	invHandler.RegisterRoutes(api)
	saleHandler.RegisterRoutes(api)
	loanHandler.RegisterRoutes(api)

	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcPort := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", grpcPort), zap.Error(err))
	}

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve gRPC", zap.Error(err))
		}
	}()
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve HTTP", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
