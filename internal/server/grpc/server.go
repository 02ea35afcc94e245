// Package grpc exposes the standard gRPC health service so that
// orchestrators can probe the auth server. Health follows the database.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service key reported alongside the overall "" key.
const ServiceName = "giftauth.Auth"

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type GRPCServer struct {
	address       string
	logger        logging.Logger
	health        *health.Server
	db            Pinger
	probeInterval time.Duration
}

func NewGRPCServer(a string, l logging.Logger, db Pinger, probeInterval time.Duration) (*GRPCServer, error) {
	if probeInterval <= 0 {
		probeInterval = 10 * time.Second
	}
	return &GRPCServer{
		address:       a,
		logger:        l.With("module", "grpc_server"),
		health:        health.NewServer(),
		db:            db,
		probeInterval: probeInterval,
	}, nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
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
