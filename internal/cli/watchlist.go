package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"stocktracker/internal/lookup"
	"stocktracker/internal/view"
	"stocktracker/internal/watchlist"
)

// lookupConcurrency bounds parallel market data requests of one add.
const lookupConcurrency = 4

type watchlistCmd struct {
	app    *App
	follow time.Duration
}

func (*watchlistCmd) Name() string     { return "watchlist" }
func (*watchlistCmd) Synopsis() string { return "show the saved watchlist" }
func (*watchlistCmd) Usage() string {
	return `watchlist [-follow <interval>]

  Fetches the watchlist from the backend and prints it.
  With -follow the list is refreshed at the given interval and printed on
  every change until interrupted.
`
}

func (c *watchlistCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.follow, "follow", 0, "refresh interval, 0 prints once")
}

func (c *watchlistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	m, err := c.app.manager()
	if err != nil {
		fmt.Fprintf(c.app.errOut(), "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer m.Close()

	if err := m.Start(ctx); err != nil {
		fmt.Fprintf(c.app.errOut(), "Error fetching watchlist: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.follow <= 0 {
		c.app.printMarkdown(markdown(m.State()))
		return subcommands.ExitSuccess
	}

	cancel := view.Watch(m, c.app.out(), c.app.Style)
	defer cancel()

	ticker := time.NewTicker(c.follow)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return subcommands.ExitSuccess
		case <-ticker.C:
			// failures keep the last state on screen
			_ = m.Refresh(ctx)
		}
	}
}

type addCmd struct {
	app   *App
	price string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add symbols to the watchlist at their latest price" }
func (*addCmd) Usage() string {
	return `add [-price <price>] <symbol>...

  Looks up the latest closing price of each symbol and saves it to the
  watchlist. Symbols are saved in argument order.
  - price: save at this price instead of looking it up.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.price, "price", "", "price to save, skips the market data lookup")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols := f.Args()
	if len(symbols) == 0 {
		fmt.Fprintln(c.app.errOut(), "Error: at least one symbol is required.")
		return subcommands.ExitUsageError
	}

	candidates, lookupErrs, status := c.candidates(ctx, symbols)
	if status != subcommands.ExitSuccess {
		return status
	}

	m, err := c.app.manager()
	if err != nil {
		fmt.Fprintf(c.app.errOut(), "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer m.Close()

	if err := m.Start(ctx); err != nil {
		fmt.Fprintf(c.app.errOut(), "Warning: could not load watchlist: %v\n", err)
	}

	// every add is optimistic, so all of them are visible before any settles
	pending := make([]<-chan error, len(symbols))
	for i := range symbols {
		if lookupErrs[i] == nil {
			pending[i] = m.AddAsync(ctx, candidates[i])
		}
	}

	status = subcommands.ExitSuccess
	for i, sym := range symbols {
		if err := lookupErrs[i]; err != nil {
			fmt.Fprintf(c.app.errOut(), "%s: %s\n", sym, describeLookupError(err))
			status = subcommands.ExitFailure
			continue
		}
		err := <-pending[i]
		if errors.Is(err, watchlist.ErrInvalidCandidate) {
			fmt.Fprintf(c.app.errOut(), "%s: %s\n", sym, describeLookupError(err))
			status = subcommands.ExitFailure
			continue
		}
		if err != nil {
			fmt.Fprintf(c.app.out(), "Failed to save %s. Please try again.\n", candidates[i].Symbol)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Fprintf(c.app.out(), "Successfully added %s to the watchlist!\n", candidates[i].Symbol)
	}

	c.app.printMarkdown(markdown(m.State()))
	return status
}

// candidates resolves a price for every symbol. Lookups run concurrently;
// a failed lookup is reported per symbol and does not stop the others.
func (c *addCmd) candidates(ctx context.Context, symbols []string) ([]watchlist.Candidate, []error, subcommands.ExitStatus) {
	candidates := make([]watchlist.Candidate, len(symbols))
	errs := make([]error, len(symbols))

	if c.price != "" {
		price, err := decimal.NewFromString(c.price)
		if err != nil {
			fmt.Fprintf(c.app.errOut(), "Error parsing price %q: %v\n", c.price, err)
			return nil, nil, subcommands.ExitUsageError
		}
		for i, sym := range symbols {
			candidates[i], errs[i] = watchlist.Candidate{Symbol: sym, Price: price}.Normalize()
		}
		return candidates, errs, subcommands.ExitSuccess
	}

	svc, err := c.app.lookup()
	if err != nil {
		fmt.Fprintf(c.app.errOut(), "Error: %v\n", err)
		return nil, nil, subcommands.ExitFailure
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			series, err := svc.Search(gctx, sym)
			if err == nil {
				candidates[i], err = lookup.Candidate(series)
			}
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()
	return candidates, errs, subcommands.ExitSuccess
}

func markdown(s watchlist.State) string {
	var b strings.Builder
	// strings.Builder never fails
	_ = view.Markdown(&b, s)
	return b.String()
}
