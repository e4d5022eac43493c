package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/godilite/stock-advisor/internal/app"
	"github.com/godilite/stock-advisor/internal/cli"
	"github.com/godilite/stock-advisor/internal/config"
	handler "github.com/godilite/stock-advisor/internal/grpc"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func open(ctx context.Context, remote string) (cli.Backend, io.Closer, error) {
	if remote != "" {
		conn, err := grpc.NewClient(remote, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, fmt.Errorf("connect %s: %w", remote, err)
		}
		return handler.NewClient(conn), conn, nil
	}

	cfg := config.LoadFromEnv()
	logger := zap.NewNop()
	if os.Getenv("STOCKCTL_DEBUG") != "" {
		if l, err := config.NewLogger(cfg); err == nil {
			logger = l
		}
	}
	stocks, err := app.NewStocks(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return stocks, stocks, nil
}

func main() {
	_ = godotenv.Load(".env")

	if err := cli.NewRootCommand(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
