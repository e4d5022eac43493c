package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/service"
	"github.com/spf13/cobra"
)

// Set by the linker at release time.
var (
	Version = "dev"
	Commit  = "none"
)

const defaultCommandTimeout = 30 * time.Second

// Backend answers CLI queries, in-process or over gRPC.
type Backend interface {
	Quote(ctx context.Context, symbol string) (market.Quote, error)
	Ratios(ctx context.Context, symbol string) (service.RatioReport, error)
	Predict(ctx context.Context, symbol string) (service.Prediction, error)
}

// Opener builds a Backend. remote is a gRPC address, or empty for in-process.
type Opener func(ctx context.Context, remote string) (Backend, io.Closer, error)

type rootFlags struct {
	remote  string
	output  string
	timeout time.Duration
}

// NewRootCommand assembles the stockctl command tree.
func NewRootCommand(open Opener) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "stockctl",
		Short:         "Evaluate stocks from the terminal.",
		Long:          "stockctl fetches quotes, scores fundamental ratios and projects prices for a ticker symbol.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.remote, "remote", "", "gRPC address of a running server (default: in-process)")
	root.PersistentFlags().StringVarP(&flags.output, "output", "o", "table", "output format: table or json")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", defaultCommandTimeout, "request timeout")

	root.AddCommand(
		symbolCommand(open, flags, "ratios", "Score the fundamental ratios of SYMBOL.",
			func(ctx context.Context, b Backend, sym string, w io.Writer, asJSON bool) error {
				r, err := b.Ratios(ctx, sym)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(w, r)
				}
				return WriteRatios(w, r)
			}),
		symbolCommand(open, flags, "quote", "Show the latest price of SYMBOL.",
			func(ctx context.Context, b Backend, sym string, w io.Writer, asJSON bool) error {
				q, err := b.Quote(ctx, sym)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(w, q)
				}
				return WriteQuote(w, q)
			}),
		symbolCommand(open, flags, "predict", "Project the price of SYMBOL one year ahead.",
			func(ctx context.Context, b Backend, sym string, w io.Writer, asJSON bool) error {
				p, err := b.Predict(ctx, sym)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(w, p)
				}
				return WritePrediction(w, p)
			}),
		versionCommand(),
	)
	return root
}

type symbolRun func(ctx context.Context, b Backend, sym string, w io.Writer, asJSON bool) error

func symbolCommand(open Opener, flags *rootFlags, name, short string, run symbolRun) *cobra.Command {
	return &cobra.Command{
		Use:   name + " SYMBOL",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var asJSON bool
			switch flags.output {
			case "table":
			case "json":
				asJSON = true
			default:
				return fmt.Errorf("unknown output format %q", flags.output)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			backend, closer, err := open(ctx, flags.remote)
			if err != nil {
				return err
			}
			defer closer.Close()

			return run(ctx, backend, args[0], cmd.OutOrStdout(), asJSON)
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of stockctl.",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("stockctl\n")
			cmd.Printf("  Version: %s\n", Version)
			cmd.Printf("  Commit:  %s\n", Commit)
			cmd.Printf("  Runtime: %s\n", runtime.Version())
		},
	}
}
