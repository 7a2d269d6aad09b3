// Package health exposes dependency reachability over the gRPC health
// protocol for orchestrator probes.
package health

import (
	"context"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"edupro/pkg/logging"
)

const (
	DefaultInterval = 15 * time.Second
	checkTimeout    = 3 * time.Second
)

type Checker interface {
	Ping(ctx context.Context) error
}

type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error { return f(ctx) }

// Server reports each named dependency as its own service and the empty
// service name as the conjunction of all of them.
type Server struct {
	hs       *health.Server
	checks   map[string]Checker
	interval time.Duration
	logger   *logging.Logger
}

func NewServer(checks map[string]Checker, interval time.Duration, logger *logging.Logger) *Server {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Server{hs: health.NewServer(), checks: checks, interval: interval, logger: logger}
	for name := range checks {
		s.hs.SetServingStatus(name, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	return s
}

// NewGRPCServer builds a gRPC server with the health service and the
// logging interceptors registered.
func (s *Server) NewGRPCServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			NewTraceUnaryInterceptor(),
			NewUnaryLoggingInterceptor(s.logger),
		)),
	)
	grpc_health_v1.RegisterHealthServer(srv, s.hs)
	return srv
}

func (s *Server) Health() grpc_health_v1.HealthServer {
	return s.hs
}

// Watch probes every dependency on each tick until ctx is done.
func (s *Server) Watch(ctx context.Context) {
	s.probe(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.hs.Shutdown()
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *Server) probe(ctx context.Context) {
	overall := grpc_health_v1.HealthCheckResponse_SERVING
	for name, c := range s.checks {
		status := grpc_health_v1.HealthCheckResponse_SERVING
		pingCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		if err := c.Ping(pingCtx); err != nil {
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			overall = status
			s.logger.Warn(ctx, "dependency unhealthy", zap.String("dependency", name), zap.Error(err))
		}
		cancel()
		s.hs.SetServingStatus(name, status)
	}
	s.hs.SetServingStatus("", overall)
}
