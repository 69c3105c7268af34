// Package view renders the watchlist and price charts as markdown. It only
// reads state; all mutations go through the watchlist manager.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"

	"stocktracker/internal/lookup"
	"stocktracker/internal/watchlist"
)

const (
	Title      = "Your Watchlist"
	EmptyState = "No stocks in your watchlist."
	ChartTitle = "Stock Price Chart"
)

// USD formats amount as dollars with two decimals, e.g. $250.50.
func USD(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.USD)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	cents := amount.Mul(factor).Round(0)
	return money.New(cents.IntPart(), money.USD).Display()
}

// Markdown writes the watchlist section for state.
func Markdown(w io.Writer, state watchlist.State) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", Title)
	if state.Len() == 0 {
		b.WriteString(EmptyState + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("| Stock Symbol | Rate |\n")
	b.WriteString("|---|---:|\n")
	for _, r := range state.Rows {
		rate := USD(r.Rate)
		if r.Pending {
			rate += " (saving)"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", r.Symbol, rate)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Chart writes the price chart section for symbol: a sparkline of the
// closes followed by a date/close table.
func Chart(w io.Writer, symbol string, points []lookup.Point) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", ChartTitle)
	if len(points) == 0 {
		b.WriteString("No data.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	closes := make([]decimal.Decimal, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}
	first, last := points[0], points[len(points)-1]
	fmt.Fprintf(&b, "**%s** closing price, %s to %s\n\n", symbol,
		first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "`%s`\n\n", Sparkline(closes))

	b.WriteString("| Date | Close |\n")
	b.WriteString("|---|---:|\n")
	for _, p := range points {
		fmt.Fprintf(&b, "| %s | %s |\n", p.Date.Format("2006-01-02"), USD(p.Close))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var ticks = []rune("▁▂▃▄▅▆▇█")

// Sparkline maps values onto eight block heights.
func Sparkline(values []decimal.Decimal) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = decimal.Min(lo, v)
		hi = decimal.Max(hi, v)
	}
	span := hi.Sub(lo)
	top := decimal.NewFromInt(int64(len(ticks) - 1))

	out := make([]rune, len(values))
	for i, v := range values {
		if span.IsZero() {
			out[i] = ticks[0]
			continue
		}
		idx := v.Sub(lo).Mul(top).Div(span).Round(0).IntPart()
		out[i] = ticks[idx]
	}
	return string(out)
}

// Render styles markdown for the terminal. An empty or "notty" style
// returns the markdown unchanged; "auto" picks dark or light from the
// terminal background.
func Render(markdown, style string) (string, error) {
	if style == "" || style == "notty" {
		return markdown, nil
	}
	styleOpt := glamour.WithStandardStyle(style)
	if style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
