package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/service"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls a remote StockAdvisor service and decodes its responses
// into service types.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, method, symbol string, dest any) error {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, wrapperspb.String(symbol), out); err != nil {
		return err
	}
	return fromStruct(out, dest)
}

func (c *Client) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	var q market.Quote
	err := c.call(ctx, getQuoteMethod, symbol, &q)
	return q, err
}

func (c *Client) Ratios(ctx context.Context, symbol string) (service.RatioReport, error) {
	var r service.RatioReport
	err := c.call(ctx, getRatiosMethod, symbol, &r)
	return r, err
}

func (c *Client) Predict(ctx context.Context, symbol string) (service.Prediction, error) {
	var p service.Prediction
	err := c.call(ctx, getPredictionMethod, symbol, &p)
	return p, err
}

// toStruct converts v to a Struct through its JSON encoding.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct, dest any) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
