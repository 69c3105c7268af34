package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"stocktracker/internal/provider"
)

// Provider wraps a provider and gates calls with a token bucket limiter.
// Concurrent calls wait for a token, or return early if the context is
// canceled.
type Provider struct {
	P       provider.Provider
	Limiter *rate.Limiter
}

// NewPerMinute allows rpm calls per minute with the given burst.
func NewPerMinute(p provider.Provider, rpm, burst int) *Provider {
	if burst <= 0 {
		burst = 1
	}
	if rpm <= 0 {
		return &Provider{P: p}
	}
	return &Provider{P: p, Limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)}
}

// NewMinInterval enforces a minimum time between calls.
func NewMinInterval(p provider.Provider, interval time.Duration) *Provider {
	if interval <= 0 {
		return &Provider{P: p}
	}
	return &Provider{P: p, Limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (r *Provider) Name() string { return r.P.Name() }

func (r *Provider) DailySeries(ctx context.Context, symbol string) (provider.Series, error) {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			return provider.Series{}, err
		}
	}
	return r.P.DailySeries(ctx, symbol)
}
