// Package grpc provides the gRPC transport layer for the heritage API.
//
// The read side of the sites API is exposed as heritage.v1.Sites. Requests and
// responses are google.protobuf.Struct values carrying the same JSON shapes
// as the HTTP API, so no generated code is needed. The standard
// grpc.health.v1.Health service is registered alongside it.
package grpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/actionculture/heritage/internal/service"
)

// Server wraps the gRPC server with dependencies
type Server struct {
	grpcServer  *grpc.Server
	health      *health.Server
	siteService *service.SiteService
	logger      *slog.Logger
}

// NewServer creates a new gRPC server with all handlers registered
func NewServer(siteService *service.SiteService, logger *slog.Logger) *Server {
	s := &Server{
		siteService: siteService,
		health:      health.NewServer(),
		logger:      logger,
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			s.loggingInterceptor,
			s.recoveryInterceptor,
		),
	)

	RegisterSitesServer(grpcServer, &sitesHandler{sites: siteService})
	healthpb.RegisterHealthServer(grpcServer, s.health)
	s.health.SetServingStatus(SitesServiceName, healthpb.HealthCheckResponse_SERVING)

	s.grpcServer = grpcServer
	return s
}

// Serve starts the gRPC server on the given listener
func (s *Server) Serve(listener net.Listener) error {
	return s.grpcServer.Serve(listener)
}

// GracefulStop marks every service as not serving and drains in-flight calls
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// loggingInterceptor logs all incoming requests
func (s *Server) loggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Error("gRPC request failed",
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.String("error", err.Error()),
		)
		return resp, err
	}

	s.logger.Info("gRPC request",
		slog.String("method", info.FullMethod),
		slog.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

// recoveryInterceptor recovers from panics
func (s *Server) recoveryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("gRPC panic recovered",
				slog.String("method", info.FullMethod),
				slog.Any("panic", r),
			)
			err = status.Error(codes.Internal, "internal server error")
		}
	}()

	return handler(ctx, req)
}
