// Package cli implements the stocktracker subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"stocktracker/internal/backend"
	"stocktracker/internal/config"
	"stocktracker/internal/httpx"
	"stocktracker/internal/logger"
	"stocktracker/internal/lookup"
	"stocktracker/internal/provider"
	"stocktracker/internal/provider/alphavantage"
	"stocktracker/internal/provider/alphavantageadapter"
	"stocktracker/internal/provider/cache"
	"stocktracker/internal/provider/ratelimit"
	"stocktracker/internal/view"
	"stocktracker/internal/watchlist"
)

// Accounts is the account side of the backend.
type Accounts interface {
	Login(ctx context.Context, creds backend.Credentials) error
	Register(ctx context.Context, reg backend.Registration) error
}

// App carries what the commands share. Zero-valued collaborators are built
// from Config on first use.
type App struct {
	Config config.Config
	Out    io.Writer
	Err    io.Writer
	// Style is the glamour style used for markdown output.
	Style string

	Store    watchlist.Store
	Accounts Accounts
	Provider provider.Provider
}

var errNoAPIKey = errors.New("no market data API key configured, set ALPHAVANTAGE_API_KEY")

// Register the subcommands.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&watchlistCmd{app: app}, "watchlist")
	c.Register(&addCmd{app: app}, "watchlist")

	c.Register(&searchCmd{app: app}, "stocks")
	c.Register(&suggestCmd{app: app}, "stocks")

	c.Register(&loginCmd{app: app}, "account")
	c.Register(&registerCmd{app: app}, "account")
}

func (a *App) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *App) errOut() io.Writer {
	if a.Err == nil {
		return os.Stderr
	}
	return a.Err
}

func (a *App) backendClient() (*backend.BackendAPIClient, error) {
	httpClient := httpx.New(time.Duration(a.Config.Backend.RequestTimeoutSec) * time.Second)
	return backend.NewBackendAPIClient(
		backend.WithBaseURL(a.Config.Backend.BaseURL),
		backend.WithHTTPClient(httpClient),
	)
}

func (a *App) store() (watchlist.Store, error) {
	if a.Store != nil {
		return a.Store, nil
	}
	client, err := a.backendClient()
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	a.Store = client
	return client, nil
}

func (a *App) accounts() (Accounts, error) {
	if a.Accounts != nil {
		return a.Accounts, nil
	}
	client, err := a.backendClient()
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	a.Accounts = client
	return client, nil
}

// lookup builds the market data chain: adapter, then rate limit, then cache.
func (a *App) lookup() (*lookup.Service, error) {
	if a.Provider != nil {
		return lookup.New(a.Provider), nil
	}
	av := a.Config.AlphaVantage
	if av.APIKey == "" {
		return nil, errNoAPIKey
	}

	httpClient := httpx.New(time.Duration(av.RequestTimeoutSec) * time.Second)
	client, err := alphavantage.NewAlphaVantageAPIClient(
		av.APIKey,
		alphavantage.WithBaseURL(strings.TrimRight(av.Endpoint, "/")),
		alphavantage.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("alphavantage client: %w", err)
	}

	var p provider.Provider = alphavantageadapter.New(alphavantageadapter.Config{Name: "AlphaVantage"}, client)
	if av.MaxRPM > 0 {
		p = ratelimit.NewPerMinute(p, av.MaxRPM, av.Burst)
	} else if av.MinIntervalSec > 0 {
		p = ratelimit.NewMinInterval(p, time.Duration(av.MinIntervalSec)*time.Second)
	}
	if av.CacheTTLSec > 0 {
		p = &cache.Provider{P: p, TTL: time.Duration(av.CacheTTLSec) * time.Second, MaxItems: av.CacheMaxItems}
	}
	a.Provider = p
	return lookup.New(p), nil
}

func (a *App) manager() (*watchlist.Manager, error) {
	s, err := a.store()
	if err != nil {
		return nil, err
	}
	return watchlist.New(s,
		watchlist.WithRollbackOnFailure(a.Config.Watchlist.RollbackOnFailure),
		watchlist.WithLogger(logger.Get()),
	), nil
}

// printMarkdown renders md with the app style and writes it out.
func (a *App) printMarkdown(md string) {
	out, err := view.Render(md, a.Style)
	if err != nil {
		logger.Get().Warnw("Failed to render markdown", "error", err)
		out = md
	}
	fmt.Fprint(a.out(), out)
}
