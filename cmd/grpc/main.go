package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-inventory-service/config"
	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	catalogClient "github.com/fekuna/omnipos-inventory-service/internal/catalog/client"
	invH "github.com/fekuna/omnipos-inventory-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-inventory-service/internal/inventory/usecase"
	inventoryv1 "github.com/fekuna/omnipos-inventory-service/internal/rpc/inventoryv1"
	sumCachePkg "github.com/fekuna/omnipos-inventory-service/internal/summary/cache"
	sumUCPkg "github.com/fekuna/omnipos-inventory-service/internal/summary/usecase"
	"github.com/fekuna/omnipos-inventory-service/pkg/broker"
	"github.com/fekuna/omnipos-inventory-service/pkg/cache"
	"github.com/fekuna/omnipos-inventory-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/middleware"
	"github.com/fekuna/omnipos-inventory-service/pkg/telemetry"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

const serviceVersion = "1.0.0"

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 2.5 Initialize Telemetry
	shutdownTelemetry, err := telemetry.Setup(context.Background(), &telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Server.ServiceName,
		ServiceVersion: serviceVersion,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		appLogger.Fatal("Could not initialize telemetry", zap.Error(err))
	}

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	invRepo := invRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5.5 Initialize Kafka Consumer
	topics := invListenerPkg.Topics{
		Created: cfg.Kafka.TopicProductCreated,
		Updated: cfg.Kafka.TopicProductUpdated,
		Deleted: cfg.Kafka.TopicProductDeleted,
	}
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topics:  []string{topics.Created, topics.Updated, topics.Deleted},
		GroupID: cfg.Kafka.GroupID,
	})
	appLogger.Info("Connected to Kafka Consumer",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.Strings("topics", []string{topics.Created, topics.Updated, topics.Deleted}))

	// 5.8 Initialize Catalog Gateway
	var catalogGW catalog.Gateway
	switch cfg.Catalog.Transport {
	case "http":
		catalogGW = catalogClient.NewHTTPGateway(cfg.Catalog.HTTPURL, cfg.Catalog.Timeout, appLogger)
		appLogger.Info("Using catalog over HTTP", zap.String("url", cfg.Catalog.HTTPURL))
	default:
		cc, err := catalogClient.Dial(cfg.Catalog.GRPCAddr)
		if err != nil {
			appLogger.Fatal("Could not create catalog client", zap.Error(err))
		}
		defer cc.Close()
		catalogGW = catalogClient.NewGRPCGateway(cc, cfg.Catalog.Timeout, appLogger)
		appLogger.Info("Using catalog over gRPC", zap.String("addr", cfg.Catalog.GRPCAddr))
	}

	// 6. Initialize UseCases
	summaryCache := sumCachePkg.NewRedisSummaryCache(redisClient.Client)
	sumUC := sumUCPkg.NewSummaryUseCase(invRepo, catalogGW, summaryCache, sumUCPkg.Config{
		TTL:            cfg.Cache.SummaryTTL,
		OpTimeout:      cfg.Cache.OpTimeout,
		ComputeTimeout: cfg.Cache.ComputeTimeout,
	}, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, catalogGW, sumUC, invUCPkg.Config{
		LowStockThreshold: cfg.Stock.LowStockThreshold,
		InvalidateTimeout: cfg.Cache.OpTimeout,
	}, appLogger)

	// 6.5 Initialize Listeners
	invListener := invListenerPkg.NewCatalogListener(kafkaConsumer, invUC, topics, appLogger)

	// Start Listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := invListener.Start(ctx); err != nil {
		appLogger.Fatal("Could not start catalog listener", zap.Error(err))
	}

	// Start Reconciler
	reconciler := invUCPkg.NewReconciler(invUC, redisClient, cfg.Stock.ReconcileInterval, appLogger)
	go reconciler.Run(ctx)

	// 7. Initialize Handlers
	invHandler := invH.NewInventoryHandler(invUC, sumUC, appLogger)

	// 8. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.ContextInterceptor(),
			middleware.LoggingInterceptor(appLogger),
			middleware.RecoveryInterceptor(appLogger),
		),
	)

	// Register Services
	inventoryv1.RegisterInventoryServiceServer(grpcServer, invHandler)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	grpcServer.GracefulStop()

	cancel()
	if err := invListener.Stop(); err != nil {
		appLogger.Warn("Catalog listener did not stop cleanly", zap.Error(err))
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTelemetry(flushCtx); err != nil {
		appLogger.Warn("Telemetry flush failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
