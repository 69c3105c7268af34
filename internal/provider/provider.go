package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one trading day of a symbol.
type Bar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Series is the normalized shape returned by all providers. Bars are
// ordered newest first.
type Series struct {
	Symbol string `json:"symbol"`
	Source string `json:"source"`
	Bars   []Bar  `json:"bars"`
}

// Latest returns the most recent bar.
func (s Series) Latest() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[0], true
}

// Window returns the n most recent bars, oldest first.
func (s Series) Window(n int) []Bar {
	if n <= 0 {
		return nil
	}
	if n > len(s.Bars) {
		n = len(s.Bars)
	}
	out := make([]Bar, n)
	for i := range n {
		out[n-1-i] = s.Bars[i]
	}
	return out
}

//go:generate mockgen -package=lookup_test -destination=../lookup/mock_provider_test.go -source=provider.go Provider
type Provider interface {
	Name() string
	DailySeries(ctx context.Context, symbol string) (Series, error)
}
