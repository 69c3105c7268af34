package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/subcommands"

	"stocktracker/internal/lookup"
	"stocktracker/internal/provider/alphavantage"
	"stocktracker/internal/view"
	"stocktracker/internal/watchlist"
)

type searchCmd struct {
	app     *App
	jsonOut bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "show the latest price and 30 day chart of a symbol" }
func (*searchCmd) Usage() string {
	return `search [-json] <symbol>

  Fetches the daily prices of symbol and prints the latest close, the
  traded volume and a chart of the last 30 closes.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.jsonOut, "json", false, "print the raw daily series as JSON")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.app.errOut(), "Error: exactly one symbol is required.")
		return subcommands.ExitUsageError
	}

	svc, err := c.app.lookup()
	if err != nil {
		fmt.Fprintf(c.app.errOut(), "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	series, err := svc.Search(ctx, f.Arg(0))
	if err != nil {
		fmt.Fprintln(c.app.errOut(), describeLookupError(err))
		return subcommands.ExitFailure
	}

	if c.jsonOut {
		b, err := json.MarshalIndent(series, "", "  ")
		if err != nil {
			fmt.Fprintf(c.app.errOut(), "Error encoding series: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintln(c.app.out(), string(b))
		return subcommands.ExitSuccess
	}

	latest, _ := series.Latest()
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", series.Symbol)
	fmt.Fprintf(&b, "- Latest close: %s (%s)\n", view.USD(latest.Close), latest.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Volume: %s\n\n", humanize.Comma(latest.Volume))
	_ = view.Chart(&b, series.Symbol, lookup.Chart(series))
	c.app.printMarkdown(b.String())
	return subcommands.ExitSuccess
}

type suggestCmd struct {
	app *App
}

func (*suggestCmd) Name() string     { return "suggest" }
func (*suggestCmd) Synopsis() string { return "list popular symbols starting with a letter" }
func (*suggestCmd) Usage() string {
	return `suggest <letter>
`
}

func (c *suggestCmd) SetFlags(*flag.FlagSet) {}

func (c *suggestCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(c.app.errOut(), "Error: a single letter is required.")
		return subcommands.ExitUsageError
	}
	symbols := lookup.Suggest(f.Arg(0))
	if len(symbols) == 0 {
		fmt.Fprintln(c.app.out(), "No suggestions.")
		return subcommands.ExitSuccess
	}
	for _, s := range symbols {
		fmt.Fprintln(c.app.out(), s)
	}
	return subcommands.ExitSuccess
}

// describeLookupError turns a lookup failure into the message shown to
// the user.
func describeLookupError(err error) string {
	switch {
	case errors.Is(err, lookup.ErrNoData), errors.Is(err, alphavantage.ErrInvalidSymbol):
		return "No data found for the entered symbol"
	case errors.Is(err, lookup.ErrEmptySymbol):
		return "Please enter a stock symbol"
	case errors.Is(err, watchlist.ErrInvalidCandidate):
		return "Invalid stock symbol or price"
	default:
		return "An error occurred while fetching stock data"
	}
}
