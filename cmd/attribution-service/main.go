package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/storefront-attribution-service/internal/app/background"
	"github.com/LavaJover/storefront-attribution-service/internal/app/setup"
	"github.com/LavaJover/storefront-attribution-service/internal/config"
	"github.com/LavaJover/storefront-attribution-service/internal/delivery/grpcapi"
	"github.com/LavaJover/storefront-attribution-service/internal/delivery/http/handlers"
	"github.com/LavaJover/storefront-attribution-service/internal/infrastructure/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
)

func main() {
	// Reading config
	cfg := config.MustLoad()

	appLogger, logCloser, err := logger.New(cfg.LogConfig)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			slog.Error("failed to close dependencies", "error", err.Error())
		}
	}()

	ucs := setup.InitializeUseCases(deps)

	// HTTP server
	handler, err := handlers.NewHandler(ucs.AttributionUsecase, handlers.HandlerConfig{
		CookieName: cfg.Attribution.CookieName,
		Ready:      deps.Ready,
		Metrics:    promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		Logger:     appLogger,
	})
	if err != nil {
		log.Fatalf("failed to init http handler: %v", err)
	}
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:      handlers.NewRouter(handler),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	// gRPC health server
	grpcServer := grpc.NewServer()
	healthHandler := grpcapi.NewHealthHandler(deps.Ready, appLogger)
	healthHandler.Register(grpcServer)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	// Background tasks
	tasks := background.NewBackgroundTasks(
		deps.MemoryStore,
		ucs.AttributionUsecase.Policies(),
		cfg.Attribution.SweepInterval,
		appLogger,
	)
	tasks.StartAll(ctx)
	go healthHandler.Watch(ctx, 10*time.Second)

	go func() {
		slog.Info("gRPC server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("grpc server stopped", "error", err.Error())
			stop()
		}
	}()

	go func() {
		slog.Info("HTTP server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	healthHandler.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err.Error())
	}
	grpcServer.GracefulStop()

	// Let in-flight click logs finish before the stores close.
	if err := ucs.Submitter.Drain(shutdownCtx); err != nil {
		slog.Warn("pending click logs abandoned", "error", err.Error())
	}
}
