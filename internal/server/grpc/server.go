// Package grpc exposes the standard grpc.health.v1 service so orchestrators
// can probe the API process. Serving status follows database reachability.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/tuneshelf/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the catalog API.
const ServiceName = "tuneshelf.api"

const defaultCheckInterval = 15 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type GRPCServer struct {
	address       string
	logger        logging.Logger
	pinger        Pinger
	health        *health.Server
	checkInterval time.Duration
}

func NewGRPCServer(a string, l logging.Logger, p Pinger) *GRPCServer {
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		pinger:        p,
		health:        health.NewServer(),
		checkInterval: defaultCheckInterval,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	s.check(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

// check pings the database and publishes the result for both the overall
// server ("") and ServiceName.
func (s *GRPCServer) check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.pinger.PingContext(pingCtx); err != nil {
		s.logger.Warn(ctx, "database ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
