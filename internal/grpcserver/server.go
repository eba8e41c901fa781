// Package grpcserver serves the standard gRPC health service for the
// catalog. The status is NOT_SERVING until the mirror publishes Ready.
package grpcserver

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"storefront/internal/events"
	"storefront/pkg/logger"
)

// ServiceName is the health service key for the catalog.
const ServiceName = "storefront.Catalog"

type Server struct {
	Addr   string
	GRPC   *grpc.Server
	Health *health.Server
	log    *zap.Logger
}

func NewServer(addr string, log *zap.Logger) *Server {
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		Addr:   addr,
		GRPC:   gs,
		Health: hs,
		log:    logger.OrNop(log).With(zap.String("component", "grpc")),
	}
}

// Handle flips the catalog to SERVING on Ready. It satisfies events.Listener.
func (s *Server) Handle(ev events.Event) {
	if ev.Kind() != events.KindReady {
		return
	}
	s.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.Health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.log.Info("health status serving")
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("grpc listening", zap.String("addr", ln.Addr().String()))
	return s.GRPC.Serve(ln)
}

// Stop marks everything NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.Health.Shutdown()
	s.GRPC.GracefulStop()
}
