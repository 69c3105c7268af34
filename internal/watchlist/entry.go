package watchlist

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Entry is a single watched symbol with the price it had when it was added.
// The rate is a snapshot and is never live-updated.
type Entry struct {
	Symbol string          `json:"symbol"`
	Rate   decimal.Decimal `json:"rate"`
}

// MarshalJSON writes rate as a JSON number, which is what the store expects.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Symbol string      `json:"symbol"`
		Rate   json.Number `json:"rate"`
	}{
		Symbol: e.Symbol,
		Rate:   json.Number(e.Rate.String()),
	})
}

// Equal reports whether both entries have the same symbol and numerically
// equal rates.
func (e Entry) Equal(o Entry) bool {
	return e.Symbol == o.Symbol && e.Rate.Equal(o.Rate)
}

func (e Entry) String() string {
	return fmt.Sprintf("%s@%s", e.Symbol, e.Rate.StringFixed(2))
}

// Candidate is an entry proposed by the stock lookup: a symbol and its
// latest price.
type Candidate struct {
	Symbol string
	Price  decimal.Decimal
}

// Normalize trims and upper-cases the symbol and checks the basic format.
func (c Candidate) Normalize() (Candidate, error) {
	sym := strings.ToUpper(strings.TrimSpace(c.Symbol))
	if sym == "" {
		return c, fmt.Errorf("%w: empty symbol", ErrInvalidCandidate)
	}
	if strings.ContainsAny(sym, " \t\r\n") {
		return c, fmt.Errorf("%w: symbol %q contains whitespace", ErrInvalidCandidate, sym)
	}
	if c.Price.IsNegative() {
		return c, fmt.Errorf("%w: negative price %s", ErrInvalidCandidate, c.Price)
	}
	return Candidate{Symbol: sym, Price: c.Price}, nil
}

// Entry converts the candidate into a watchlist entry.
func (c Candidate) Entry() Entry {
	return Entry{Symbol: c.Symbol, Rate: c.Price}
}

// Row is an entry as held by the state manager.
type Row struct {
	Entry
	// Pending is set while an optimistic append has not been confirmed by
	// the store.
	Pending bool
}

// State is an immutable snapshot of the watchlist.
type State struct {
	Rows []Row
}

// Entries returns the entries in display order.
func (s State) Entries() []Entry {
	out := make([]Entry, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Entry
	}
	return out
}

// Len returns the number of rows.
func (s State) Len() int { return len(s.Rows) }
