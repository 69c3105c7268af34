package alphavantageadapter

import (
	"context"
	"errors"
	"strings"

	"stocktracker/internal/logger"
	"stocktracker/internal/metrics"
	"stocktracker/internal/provider"
	"stocktracker/internal/provider/alphavantage"
)

type Config struct {
	Name string // display name, default: AlphaVantage
}

type Adapter struct {
	cfg    Config
	client *alphavantage.AlphaVantageAPIClient
	log    *logger.Logger
}

func New(cfg Config, client *alphavantage.AlphaVantageAPIClient) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "AlphaVantage"
	}
	return &Adapter{
		cfg:    cfg,
		client: client,
		log:    logger.Get().With("component", "provider", "provider", cfg.Name),
	}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// DailySeries fetches the daily bars of symbol and converts them to the
// provider shape.
func (a *Adapter) DailySeries(ctx context.Context, symbol string) (provider.Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	bars, err := a.client.GetTimeSeriesDaily(ctx, symbol)
	if err != nil {
		status := "error"
		if errors.Is(err, alphavantage.ErrRateLimited) {
			status = "rate_limited"
		}
		metrics.LookupCalls.WithLabelValues(a.cfg.Name, status).Inc()
		a.log.Warnw("Daily series request failed", "symbol", symbol, "error", err)
		return provider.Series{}, err
	}
	metrics.LookupCalls.WithLabelValues(a.cfg.Name, "success").Inc()

	out := provider.Series{
		Symbol: symbol,
		Source: a.cfg.Name,
		Bars:   make([]provider.Bar, 0, len(bars)),
	}
	for _, b := range bars {
		out.Bars = append(out.Bars, provider.Bar{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	a.log.Debugw("Daily series fetched", "symbol", symbol, "bars", len(out.Bars))
	return out, nil
}
