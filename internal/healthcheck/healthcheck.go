package healthcheck

import (
	"context"
	"net"

	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server exposes the standard gRPC health service for orchestration probes.
type Server struct {
	service string
	grpc    *grpc.Server
	health  *health.Server
}

// New creates a health server reporting SERVING for both the overall status and service.
func New(service string) *Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{service: service, grpc: gs, health: hs}
}

// Serve accepts connections on lis until ctx is cancelled, then marks the service
// NOT_SERVING and stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Infow("gRPC health server listening", "addr", lis.Addr().String(), "service", s.service)
		errCh <- s.grpc.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// SetServing flips the reported status, e.g. when a backing store becomes unreachable.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.service, status)
}
