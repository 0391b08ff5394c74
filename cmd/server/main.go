package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/portfolio-backend/internal/adapter/grpc"
	"github.com/simaogato/portfolio-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/portfolio-backend/internal/adapter/rest"
	"github.com/simaogato/portfolio-backend/internal/config"
	"github.com/simaogato/portfolio-backend/internal/usecase/portfolio"
	"github.com/simaogato/portfolio-backend/internal/usecase/returns"
	"github.com/simaogato/portfolio-backend/internal/usecase/transaction"
	"github.com/simaogato/portfolio-backend/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	// 2. Setup Database
	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		log.Info().Msg("Database schema applied")
	}

	// 3. Initialize Repositories (Postgres)
	portfolioRepo := postgres.NewPortfolioRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	tradingItemRepo := postgres.NewTradingItemRepository(db)
	priceRepo := postgres.NewHistoricalPriceRepository(db)

	// 4. Initialize Services (Use Cases)
	portfolioService := portfolio.NewPortfolioService(portfolioRepo)
	transactionService := transaction.NewTransactionService(portfolioRepo, transactionRepo, tradingItemRepo, log)
	returnsService := returns.NewReturnsService(portfolioRepo, transactionRepo, priceRepo, log)
	returnsService.LookbackDays = cfg.PriceLookbackDays
	returnsService.MaxDays = cfg.MaxReturnDays

	// 5. Start HTTP Server
	httpServer := rest.New(rest.Config{
		Port:         cfg.HTTPPort,
		Log:          log,
		Portfolios:   portfolioService,
		Returns:      returnsService,
		Transactions: transactionService,
		DefaultDays:  cfg.MaxReturnDays,
	})

	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// 6. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(log),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)

	grpcAdapter := grpcadapter.NewServer(portfolioService, returnsService, transactionService, log)
	grpcAdapter.DefaultDays = cfg.MaxReturnDays
	grpcadapter.RegisterPortfolioServiceServer(grpcServer, grpcAdapter)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", grpcAddr).Msg("Failed to listen")
	}

	go func() {
		log.Info().Str("addr", grpcAddr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// Graceful shutdown
	waitForShutdown(log, httpServer, grpcServer, healthServer)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down both servers
func waitForShutdown(log zerolog.Logger, httpServer *rest.Server, grpcServer *grpclib.Server, healthServer *health.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	grpcServer.GracefulStop()
	log.Info().Msg("Servers stopped")
}
