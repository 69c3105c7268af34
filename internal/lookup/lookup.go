package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stocktracker/internal/provider"
	"stocktracker/internal/watchlist"
)

// ChartDays is the number of daily closes shown in a chart.
const ChartDays = 30

var (
	ErrEmptySymbol = errors.New("enter a stock symbol")
	ErrNoData      = errors.New("no data found for the entered symbol")
)

// Point is one close of a price chart.
type Point struct {
	Date  time.Time
	Close decimal.Decimal
}

// Service looks up market data for symbols and turns it into watchlist
// candidates and charts.
type Service struct {
	p provider.Provider
}

func New(p provider.Provider) *Service {
	return &Service{p: p}
}

// Search normalizes symbol and fetches its daily series. A series without
// bars is reported as ErrNoData.
func (s *Service) Search(ctx context.Context, symbol string) (provider.Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return provider.Series{}, ErrEmptySymbol
	}
	series, err := s.p.DailySeries(ctx, symbol)
	if err != nil {
		return provider.Series{}, fmt.Errorf("searching %s: %w", symbol, err)
	}
	if len(series.Bars) == 0 {
		return provider.Series{}, ErrNoData
	}
	if series.Symbol == "" {
		series.Symbol = symbol
	}
	return series, nil
}

// Candidate proposes the series' symbol at its latest close.
func Candidate(series provider.Series) (watchlist.Candidate, error) {
	latest, ok := series.Latest()
	if !ok {
		return watchlist.Candidate{}, ErrNoData
	}
	return watchlist.Candidate{Symbol: series.Symbol, Price: latest.Close}, nil
}

// Chart returns the last ChartDays closes, oldest first.
func Chart(series provider.Series) []Point {
	bars := series.Window(ChartDays)
	out := make([]Point, len(bars))
	for i, b := range bars {
		out[i] = Point{Date: b.Date, Close: b.Close}
	}
	return out
}
