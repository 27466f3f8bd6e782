package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/VenCasMet/finboard/internal/dashboard"
	"github.com/VenCasMet/finboard/internal/provider"
	"github.com/VenCasMet/finboard/internal/widget"
)

type listCmd struct{ *cli }

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "lists the widgets in display order" }
func (*listCmd) Usage() string {
	return `finboard list

  Prints every widget with its position, id, type and symbol.
`
}
func (*listCmd) SetFlags(*flag.FlagSet) {}

func (c *listCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := c.open()
	if err != nil {
		return c.fail("%v", err)
	}
	defer s.Close()
	printWidgets(c.out, s.Widgets())
	return subcommands.ExitSuccess
}

type addCmd struct {
	*cli
	title  string
	kind   string
	symbol string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "adds a widget at the end of the dashboard" }
func (*addCmd) Usage() string {
	return `finboard add -title <title> -type <card|table|chart> -symbol <ticker>

  Adds a widget and loads its data once.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.title, "title", "", "widget title")
	f.StringVar(&c.kind, "type", string(widget.Card), "widget type: card, table or chart")
	f.StringVar(&c.symbol, "symbol", "", "ticker symbol, e.g. AAPL")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := widget.ParseKind(c.kind)
	if err != nil {
		return c.fail("%v", err)
	}
	d, err := widget.New(c.title, kind, c.symbol)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	s, err := c.open()
	if err != nil {
		return c.fail("%v", err)
	}
	defer s.Close()

	w, err := s.Add(ctx, d)
	if err != nil {
		return c.fail("%v", err)
	}
	w.Wait()
	printState(c.out, w.Snapshot())
	return subcommands.ExitSuccess
}

type removeCmd struct {
	*cli
	id string
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "removes a widget" }
func (*removeCmd) Usage() string {
	return `finboard remove -id <widget id>
`
}

func (c *removeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "id of the widget to remove")
}

func (c *removeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id := c.id
	if id == "" && f.NArg() == 1 {
		id = f.Arg(0)
	}
	if id == "" {
		fmt.Fprintln(c.errOut, "Error: a widget id is required.")
		return subcommands.ExitUsageError
	}
	s, err := c.open()
	if err != nil {
		return c.fail("%v", err)
	}
	defer s.Close()

	if err := s.Remove(id); err != nil {
		return c.fail("%v", err)
	}
	printWidgets(c.out, s.Widgets())
	return subcommands.ExitSuccess
}

type moveCmd struct {
	*cli
	from, to int
}

func (*moveCmd) Name() string     { return "move" }
func (*moveCmd) Synopsis() string { return "moves a widget to another position" }
func (*moveCmd) Usage() string {
	return `finboard move -from <index> -to <index>

  Positions are zero-based. A target past either end is clamped.
`
}

func (c *moveCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.from, "from", -1, "current position")
	f.IntVar(&c.to, "to", -1, "new position")
}

func (c *moveCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := c.open()
	if err != nil {
		return c.fail("%v", err)
	}
	defer s.Close()

	if err := s.Reorder(c.from, c.to); err != nil {
		return c.fail("%v", err)
	}
	printWidgets(c.out, s.Widgets())
	return subcommands.ExitSuccess
}

type showCmd struct {
	*cli
	interval string
	style    string
	json     bool
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "loads and prints one widget" }
func (*showCmd) Usage() string {
	return `finboard show [-interval 1day|1week|1month] [-style line|candle] [-json] <widget id>

  Loads the widget's data and prints what it would display.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.interval, "interval", "", "chart interval")
	f.StringVar(&c.style, "style", "", "chart style")
	f.BoolVar(&c.json, "json", false, "print the widget state as JSON")
}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.errOut, "Error: exactly one widget id is required.")
		return subcommands.ExitUsageError
	}
	s, err := c.open()
	if err != nil {
		return c.fail("%v", err)
	}
	defer s.Close()

	w, err := s.Widget(f.Arg(0))
	if err != nil {
		return c.fail("%v", err)
	}
	if c.style != "" {
		style, err := dashboard.ParseChartStyle(c.style)
		if err != nil {
			return c.fail("%v", err)
		}
		if err := w.SetChartStyle(style); err != nil {
			return c.fail("%v", err)
		}
	}
	if c.interval != "" {
		iv, err := provider.ParseInterval(c.interval)
		if err != nil {
			return c.fail("%v", err)
		}
		if err := w.SetInterval(ctx, iv); err != nil {
			return c.fail("%v", err)
		}
	} else {
		w.Mount(ctx)
	}
	w.Wait()

	st := w.Snapshot()
	if c.json {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			return c.fail("%v", err)
		}
		return subcommands.ExitSuccess
	}
	printState(c.out, st)
	return subcommands.ExitSuccess
}

func printWidgets(out io.Writer, ws []widget.Descriptor) {
	if len(ws) == 0 {
		fmt.Fprintln(out, "No widgets.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTYPE\tSYMBOL\tTITLE")
	for i, w := range ws {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, w.ID, w.Kind, w.Symbol, w.Title)
	}
	tw.Flush()
}

func printState(out io.Writer, st dashboard.State) {
	fmt.Fprintf(out, "%s (%s %s) [%s]\n", st.Title, st.Kind, st.Symbol, st.Status)
	switch st.Kind {
	case widget.Card:
		if st.Price != nil {
			fmt.Fprintf(out, "  price %s%s\n", *st.Price, cachedSuffix(st.PriceCached))
		} else {
			fmt.Fprintln(out, "  no data")
		}
	case widget.Table:
		switch {
		case st.OHLC != nil:
			fmt.Fprintf(out, "  open %s  high %s  low %s  price %s\n", st.OHLC.Open, st.OHLC.High, st.OHLC.Low, st.OHLC.Price)
		case st.Price != nil:
			fmt.Fprintf(out, "  price %s%s (open/high/low unknown)\n", *st.Price, cachedSuffix(st.PriceCached))
		default:
			fmt.Fprintln(out, "  no data")
		}
	case widget.Chart:
		fmt.Fprintf(out, "  interval %s, style %s\n", st.Interval, st.ChartStyle)
		if len(st.Series) == 0 {
			fmt.Fprintln(out, "  data unavailable")
			return
		}
		printSeries(out, st.Series)
	}
}

func printSeries(out io.Writer, s provider.Series) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DATE\tOPEN\tHIGH\tLOW\tCLOSE\t")
	for _, p := range s {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", p.Date,
			provider.FormatFloat(p.Open), provider.FormatFloat(p.High),
			provider.FormatFloat(p.Low), provider.FormatFloat(p.Close))
	}
	tw.Flush()
}

func cachedSuffix(cached bool) string {
	if cached {
		return " (cached)"
	}
	return ""
}
