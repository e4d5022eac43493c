package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func TestLoggingInterceptor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	interceptor := LoggingInterceptor(zap.New(core))

	info := &grpc.UnaryServerInfo{FullMethod: "/stockadvisor.v1.StockAdvisor/GetQuote"}

	successHandler := func(ctx context.Context, req any) (any, error) {
		return "success", nil
	}
	errorHandler := func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.InvalidArgument, "test error")
	}

	t.Run("successful request", func(t *testing.T) {
		ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 4242}})
		ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("x-request-id", "req-1"))

		resp, err := interceptor(ctx, "test request", info, successHandler)

		assert.NoError(t, err)
		assert.Equal(t, "success", resp)

		done := logs.FilterMessage("gRPC request completed").All()
		require.Len(t, done, 1)
		fields := done[0].ContextMap()
		assert.Equal(t, "10.0.0.1:4242", fields["client_addr"])
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "OK", fields["status_code"])
	})

	t.Run("error request", func(t *testing.T) {
		_, err := interceptor(context.Background(), "test request", info, errorHandler)

		st, ok := status.FromError(err)
		require.True(t, ok)
		assert.Equal(t, codes.InvalidArgument, st.Code())

		failed := logs.FilterMessage("gRPC request failed").All()
		require.Len(t, failed, 1)
		fields := failed[0].ContextMap()
		assert.Equal(t, "unknown", fields["client_addr"])
		assert.Equal(t, "InvalidArgument", fields["status_code"])
		assert.NotContains(t, fields, "request_id")
	})
}

func TestNewValidation(t *testing.T) {
	_, err := New(WithPort(-1))
	assert.Error(t, err)

	_, err = New(WithPort(70000))
	assert.Error(t, err)
}

// quoteService stands in for a registered application service.
type quoteService interface{}

var quoteServiceDesc = grpc.ServiceDesc{
	ServiceName: "stockadvisor.v1.StockAdvisor",
	HandlerType: (*quoteService)(nil),
}

func TestServerBuilderWithLogging(t *testing.T) {
	logger := zaptest.NewLogger(t)

	server, err := New(
		WithPort(0),
		WithLogger(logger),
		WithLogging(true),
		WithRecovery(true),
		WithReflection(true),
	)
	require.NoError(t, err)

	assert.NotNil(t, server.grpcServer)
	assert.NotNil(t, server.logger)
	assert.NotNil(t, server.healthServer)

	conn, err := grpc.NewClient(server.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	var registrar grpc.ServiceRegistrar = server
	registrar.RegisterService(&quoteServiceDesc, struct{}{})
	assert.Equal(t, []string{"stockadvisor.v1.StockAdvisor"}, server.Services())
	server.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	healthClient := healthpb.NewHealthClient(conn)

	resp, err := healthClient.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	resp, err = healthClient.Check(ctx, &healthpb.HealthCheckRequest{Service: "stockadvisor.v1.StockAdvisor"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	server.SetServiceHealth("stockadvisor.v1.StockAdvisor", healthpb.HealthCheckResponse_NOT_SERVING)
	resp, err = healthClient.Check(ctx, &healthpb.HealthCheckRequest{Service: "stockadvisor.v1.StockAdvisor"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	server.SetServiceHealth("stockadvisor.v1.StockAdvisor", healthpb.HealthCheckResponse_SERVING)
	require.NoError(t, server.Shutdown(ctx))

	for _, name := range []string{"", "stockadvisor.v1.StockAdvisor"} {
		resp, err := server.healthServer.Check(ctx, &healthpb.HealthCheckRequest{Service: name})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status, "service %q", name)
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/stockadvisor.v1.StockAdvisor/GetRatios"}

	resp, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		panic("nil map")
	})

	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err = interceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)
}
