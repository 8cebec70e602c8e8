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

	"github.com/fekuna/omnipos-capital-service/config"
	"github.com/fekuna/omnipos-capital-service/internal/account"
	"github.com/fekuna/omnipos-capital-service/internal/ledger"
	"github.com/fekuna/omnipos-capital-service/internal/middleware"
	"github.com/fekuna/omnipos-capital-service/pkg/broker"
	"github.com/fekuna/omnipos-capital-service/pkg/cache"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/fekuna/omnipos-capital-service/pkg/i18n"
	"github.com/fekuna/omnipos-capital-service/pkg/logger"
	"github.com/fekuna/omnipos-capital-service/pkg/search"

	ledgerH "github.com/fekuna/omnipos-capital-service/internal/ledger/handler"
	ledgerRepoPkg "github.com/fekuna/omnipos-capital-service/internal/ledger/repository"
	ledgerUCPkg "github.com/fekuna/omnipos-capital-service/internal/ledger/usecase"

	orderH "github.com/fekuna/omnipos-capital-service/internal/order/handler"
	orderListenerPkg "github.com/fekuna/omnipos-capital-service/internal/order/listener"
	orderRepoPkg "github.com/fekuna/omnipos-capital-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-capital-service/internal/order/usecase"

	partnerH "github.com/fekuna/omnipos-capital-service/internal/partner/handler"
	partnerRepoPkg "github.com/fekuna/omnipos-capital-service/internal/partner/repository"
	partnerUCPkg "github.com/fekuna/omnipos-capital-service/internal/partner/usecase"

	payableH "github.com/fekuna/omnipos-capital-service/internal/payable/handler"
	payableRepoPkg "github.com/fekuna/omnipos-capital-service/internal/payable/repository"
	payableUCPkg "github.com/fekuna/omnipos-capital-service/internal/payable/usecase"

	prodH "github.com/fekuna/omnipos-capital-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-capital-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-capital-service/internal/product/usecase"

	reconH "github.com/fekuna/omnipos-capital-service/internal/reconciliation/handler"
	reconUCPkg "github.com/fekuna/omnipos-capital-service/internal/reconciliation/usecase"

	vendorH "github.com/fekuna/omnipos-capital-service/internal/merchant/handler"
	vendorRepoPkg "github.com/fekuna/omnipos-capital-service/internal/merchant/repository"
	vendorUCPkg "github.com/fekuna/omnipos-capital-service/internal/merchant/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 1.5 Initialize i18n (en and id are embedded)
	i18n.Init()
	if path := os.Getenv("I18N_EXTRA_LOCALE"); path != "" {
		if err := i18n.Load(path); err != nil {
			log.Printf("Failed to load extra locale %s: %v", path, err)
		}
	}

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

	// 3. Connect to Database
	db, err := database.NewDB(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		Path:            cfg.Database.SQLitePath,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to database", zap.String("driver", cfg.Database.Driver), zap.String("db_name", cfg.Database.DBName))
	txManager := database.NewTxManager(db)

	// 4. Initialize Repositories
	ledgerRepo := ledgerRepoPkg.NewPGRepository(db)
	partnerRepo := partnerRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	payableRepo := payableRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	vendorRepo := vendorRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis. Left as nil interfaces when disabled so the
	// usecases skip locking and caching.
	var (
		locker cache.Locker
		store  cache.Store
	)
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
		locker, store = redisClient, redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5.8 Initialize Elasticsearch
	var esClient *search.Client
	if cfg.Elastic.Enabled {
		esClient, err = search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			// the audit log stays in the database; only search falls back
			appLogger.Warn("Could not connect to Elasticsearch, transaction search uses the database", zap.Error(err))
			esClient = nil
		} else {
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 6. Initialize UseCases
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(ledgerRepo, txManager, ledgerUCPkg.Options{
		Locker: locker,
		Store:  store,
		Search: esClient,
		Policy: ledger.Policy{
			EnforceNonNegative: cfg.Ledger.EnforceNonNegative,
			MaxAmount:          cfg.Ledger.MaxAmount,
			MaxRetries:         cfg.Ledger.MaxRetries,
		},
	}, appLogger)
	accounts := account.NopProvisioner{}
	partnerUC := partnerUCPkg.NewPartnerUseCase(partnerRepo, ledgerRepo, ledgerUC, accounts, partnerUCPkg.Options{
		RecomputeAll: cfg.Ledger.RecomputeAll,
		MaxAmount:    cfg.Ledger.MaxAmount,
	}, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, ledgerUC, store, appLogger)
	payableUC := payableUCPkg.NewPayableUseCase(payableRepo, ledgerUC, txManager, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, ledgerUC, prodUC, payableUC, appLogger)
	reconUC := reconUCPkg.NewReconciliationUseCase(ledgerRepo, ledgerUC, prodRepo, payableUC, store, reconUCPkg.Options{
		Epsilon:  cfg.Ledger.VarianceEpsilon,
		CacheTTL: time.Duration(cfg.Ledger.ReportCacheSeconds) * time.Second,
	}, appLogger)
	vendorUC := vendorUCPkg.NewVendorUseCase(vendorRepo, partnerRepo, ledgerUC, accounts, txManager, store, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6.5 Initialize Kafka Consumer and Listener
	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		orderListener := orderListenerPkg.NewOrderListener(kafkaConsumer, orderUC, appLogger)
		go orderListener.Start(ctx)
	}

	// 7. Start gRPC Server
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
			middleware.ErrorInterceptor(appLogger),
		),
	)

	// Register Services
	ledgerH.NewLedgerHandler(ledgerUC, appLogger).Register(grpcServer)
	partnerH.NewPartnerHandler(partnerUC, appLogger).Register(grpcServer)
	prodH.NewProductHandler(prodUC, appLogger).Register(grpcServer)
	payableH.NewPayableHandler(payableUC, appLogger).Register(grpcServer)
	orderH.NewOrderHandler(orderUC, appLogger).Register(grpcServer)
	reconH.NewReconciliationHandler(reconUC, appLogger).Register(grpcServer)
	vendorH.NewVendorHandler(vendorUC, appLogger).Register(grpcServer)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

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
	healthServer.Shutdown()
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
