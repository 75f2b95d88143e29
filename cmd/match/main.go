// Command match previews one order against a book offline. It reads a match
// request (order, orderBook, optional minimums) from a file or stdin and
// prints the trades and rest order as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/uhyunpark/limitmatch/pkg/api"
	"github.com/uhyunpark/limitmatch/pkg/app/core/amount"
	"github.com/uhyunpark/limitmatch/pkg/app/core/matching"
	"github.com/uhyunpark/limitmatch/pkg/util"
)

type options struct {
	decimals uint8
	makerMin string // human decimals
	takerMin string
	pretty   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "match [request.json]",
		Short: "Preview how an order matches against a book",
		Long: `Preview how an order matches against a book. The request is read
from the given file, or from stdin when no file is given. Amounts in the
request are scaled integers; the minimum flags are human decimals.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runMatch(in, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().Uint8Var(&opts.decimals, "decimals", 18, "fixed-point unit decimals")
	cmd.Flags().StringVar(&opts.makerMin, "maker-min", "0.15", "smallest resting order, base currency")
	cmd.Flags().StringVar(&opts.takerMin, "taker-min", "0.05", "smallest single trade, base currency")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the output")
	return cmd
}

func runMatch(in io.Reader, out io.Writer, opts options) error {
	unit, err := amount.NewUnit(opts.decimals)
	if err != nil {
		return err
	}
	makerMin, err := amount.FromString(opts.makerMin, unit)
	if err != nil {
		return fmt.Errorf("maker-min: %w", err)
	}
	takerMin, err := amount.FromString(opts.takerMin, unit)
	if err != nil {
		return fmt.Errorf("taker-min: %w", err)
	}

	var req api.MatchRequest
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return fmt.Errorf("failed to decode request: %w", err)
	}
	p, err := api.DecodeMatchRequest(req, util.RealClock{})
	if err != nil {
		return err
	}
	if !p.HasBook {
		return fmt.Errorf("request has no orderBook")
	}
	if p.MakerMinimum != nil {
		makerMin = p.MakerMinimum
	}
	if p.TakerMinimum != nil {
		takerMin = p.TakerMinimum
	}

	res, err := matching.NewEngine(unit, nil).Match(p.Order, p.Book, makerMin, takerMin)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(p.Response(res, unit))
}
