package grpc

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name the bot reports under.
const ServiceName = "discussion-bot"

// HealthServer exposes the standard gRPC health service. It reports NOT_SERVING
// until the Discord session is ready.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	lis    net.Listener
	logger *zap.Logger
}

// NewHealthServer listens on address. The server does not accept calls until Serve is called.
func NewHealthServer(address string, logger *zap.Logger) (*HealthServer, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	return &HealthServer{
		server: server,
		health: hs,
		lis:    lis,
		logger: logger.Named("health"),
	}, nil
}

// Addr returns the address the server listens on.
func (h *HealthServer) Addr() string {
	return h.lis.Addr().String()
}

// Serve blocks until Stop is called.
func (h *HealthServer) Serve() error {
	h.logger.Info("Health server listening", zap.String("address", h.Addr()))
	if err := h.server.Serve(h.lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("health server stopped: %w", err)
	}
	return nil
}

// SetServing flips the reported status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(ServiceName, status)
	h.health.SetServingStatus("", status)
	h.logger.Debug("Health status changed", zap.Stringer("status", status))
}

// Stop marks the service as shutting down and stops the server.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
