package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/VenCasMet/finboard/internal/provider"
)

type quoteCmd struct{ *cli }

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "resolves the current quote of a symbol" }
func (*quoteCmd) Usage() string {
	return `finboard quote <symbol>

  Tries the configured quote providers in order and prints the first answer.
`
}
func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.errOut, "Error: exactly one symbol is required.")
		return subcommands.ExitUsageError
	}
	s, err := c.open()
	if err != nil {
		return c.fail("%v", err)
	}
	defer s.Close()

	q, err := s.services.Quotes.Resolve(ctx, f.Arg(0))
	if err != nil {
		return c.fail("%v", err)
	}
	fmt.Fprintf(c.out, "%s %s%s via %s\n", q.Symbol, q.Price, cachedSuffix(q.Cached), q.Source)
	if q.OHLC != nil {
		fmt.Fprintf(c.out, "  open %s  high %s  low %s\n", q.OHLC.Open, q.OHLC.High, q.OHLC.Low)
	}
	return subcommands.ExitSuccess
}

type seriesCmd struct {
	*cli
	interval string
}

func (*seriesCmd) Name() string     { return "series" }
func (*seriesCmd) Synopsis() string { return "resolves the chart series of a symbol" }
func (*seriesCmd) Usage() string {
	return `finboard series [-interval 1day|1week|1month] <symbol>
`
}

func (c *seriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.interval, "interval", string(provider.Day), "series interval")
}

func (c *seriesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.errOut, "Error: exactly one symbol is required.")
		return subcommands.ExitUsageError
	}
	iv, err := provider.ParseInterval(c.interval)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	s, err := c.open()
	if err != nil {
		return c.fail("%v", err)
	}
	defer s.Close()

	series := s.services.Series.Resolve(ctx, f.Arg(0), iv)
	if len(series) == 0 {
		return c.fail("no %s data for %s", iv, provider.NormalizeSymbol(f.Arg(0)))
	}
	printSeries(c.out, series)
	return subcommands.ExitSuccess
}
