package grpcapi

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const AttributionServiceName = "storefront.attribution.v1.AttributionService"

// HealthHandler publishes readiness through grpc.health.v1.
type HealthHandler struct {
	server *health.Server
	ready  func(ctx context.Context) error
	logger *slog.Logger
}

func NewHealthHandler(ready func(ctx context.Context) error, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &HealthHandler{
		server: health.NewServer(),
		ready:  ready,
		logger: logger,
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Refresh runs the readiness check once and publishes the result.
func (h *HealthHandler) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if h.ready != nil {
		if err := h.ready(ctx); err != nil {
			h.logger.Warn("grpc health check failed", "error", err.Error())
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.set(status)
	return status
}

// Watch refreshes the serving status until ctx is done.
func (h *HealthHandler) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

func (h *HealthHandler) Shutdown() {
	h.server.Shutdown()
}

func (h *HealthHandler) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(AttributionServiceName, status)
}
