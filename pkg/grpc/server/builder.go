package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const DefaultPort = 50051

type Option func(*options)

type options struct {
	port         int
	logger       *zap.Logger
	reflection   bool
	logging      bool
	recovery     bool
	interceptors []grpc.UnaryServerInterceptor
}

// WithPort sets the listen port. Port 0 picks a free one.
func WithPort(port int) Option {
	return func(o *options) { o.port = port }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithReflection exposes the reflection service so tools like grpcurl can
// list what is registered.
func WithReflection(enabled bool) Option {
	return func(o *options) { o.reflection = enabled }
}

// WithUnaryInterceptors appends interceptors after the built-in ones.
func WithUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) Option {
	return func(o *options) { o.interceptors = append(o.interceptors, interceptors...) }
}

func WithLogging(enabled bool) Option {
	return func(o *options) { o.logging = enabled }
}

// WithRecovery installs RecoveryInterceptor ahead of every other interceptor.
func WithRecovery(enabled bool) Option {
	return func(o *options) { o.recovery = enabled }
}

// chain orders the unary interceptors: recovery, logging, then custom ones.
func (o *options) chain() []grpc.ServerOption {
	var chain []grpc.UnaryServerInterceptor
	if o.recovery {
		chain = append(chain, RecoveryInterceptor(o.logger))
	}
	if o.logging {
		chain = append(chain, LoggingInterceptor(o.logger))
	}
	chain = append(chain, o.interceptors...)
	if len(chain) == 0 {
		return nil
	}
	return []grpc.ServerOption{grpc.ChainUnaryInterceptor(chain...)}
}

// Server is a grpc.Server bound to its listener, with a health service that
// tracks every registered service.
type Server struct {
	grpcServer   *grpc.Server
	lis          net.Listener
	logger       *zap.Logger
	healthServer *health.Server

	mu       sync.Mutex
	services []string
}

var _ grpc.ServiceRegistrar = (*Server)(nil)

// New listens on the configured port and builds the server.
func New(opts ...Option) (*Server, error) {
	o := &options{port: DefaultPort, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	if o.port < 0 || o.port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 0 and 65535", o.port)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", o.port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %d: %w", o.port, err)
	}

	gs := grpc.NewServer(o.chain()...)
	if o.reflection {
		reflection.Register(gs)
	}

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Server{
		grpcServer:   gs,
		lis:          lis,
		logger:       o.logger.Named("grpc-server"),
		healthServer: hs,
	}, nil
}

// RegisterService registers impl and reports desc.ServiceName as SERVING.
// Generated Register*Server helpers accept the Server directly.
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl any) {
	s.grpcServer.RegisterService(desc, impl)

	s.mu.Lock()
	s.services = append(s.services, desc.ServiceName)
	s.mu.Unlock()

	s.SetServiceHealth(desc.ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// Services returns the names of the registered services.
func (s *Server) Services() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.services...)
}

func (s *Server) SetServiceHealth(serviceName string, status healthpb.HealthCheckResponse_ServingStatus) {
	s.healthServer.SetServingStatus(serviceName, status)
	s.logger.Info("service health",
		zap.String("service", serviceName),
		zap.String("status", status.String()))
}

// Start serves in a goroutine and returns immediately.
func (s *Server) Start() {
	s.logger.Info("gRPC server starting",
		zap.String("addr", s.lis.Addr().String()),
		zap.Strings("services", s.Services()))

	go func() {
		if err := s.grpcServer.Serve(s.lis); err != nil {
			s.logger.Error("gRPC server failed", zap.Error(err))
		}
	}()
}

// Shutdown reports every service as NOT_SERVING, then drains in-flight
// calls until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("gRPC server shutting down")

	for _, name := range append(s.Services(), "") {
		s.SetServiceHealth(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gRPC server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("forced shutdown due to timeout")
		s.grpcServer.Stop()
		return ctx.Err()
	}
}

func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
