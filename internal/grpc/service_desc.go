package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	ServiceName = "stockadvisor.v1.StockAdvisor"

	getRatiosMethod     = "/" + ServiceName + "/GetRatios"
	getQuoteMethod      = "/" + ServiceName + "/GetQuote"
	getPredictionMethod = "/" + ServiceName + "/GetPrediction"
)

// StockAdvisorServer is the server API for the StockAdvisor service. Every
// method takes the ticker symbol and answers with the REST JSON shape.
type StockAdvisorServer interface {
	GetRatios(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetQuote(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetPrediction(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

func RegisterStockAdvisorServer(s grpc.ServiceRegistrar, srv StockAdvisorServer) {
	s.RegisterService(&StockAdvisorServiceDesc, srv)
}

func unaryHandler(
	method string,
	call func(StockAdvisorServer, context.Context, *wrapperspb.StringValue) (*structpb.Struct, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StockAdvisorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(StockAdvisorServer), ctx, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// StockAdvisorServiceDesc describes the StockAdvisor service without
// generated code; messages are protobuf well-known types.
var StockAdvisorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StockAdvisorServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetRatios",
			Handler:    unaryHandler(getRatiosMethod, StockAdvisorServer.GetRatios),
		},
		{
			MethodName: "GetQuote",
			Handler:    unaryHandler(getQuoteMethod, StockAdvisorServer.GetQuote),
		},
		{
			MethodName: "GetPrediction",
			Handler:    unaryHandler(getPredictionMethod, StockAdvisorServer.GetPrediction),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stockadvisor/v1/stock_advisor.proto",
}
