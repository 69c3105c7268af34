package watchlist

import "context"

// Store is the remote watchlist collection. It exposes no transactionality:
// an Append may be applied at least once and List returns the store's
// canonical content and ordering.
//
//go:generate mockgen -package=watchlist_test -destination=mock_store_test.go -source=store.go Store
type Store interface {
	// List returns every entry in the store.
	List(ctx context.Context) ([]Entry, error)
	// Append adds entries to the store.
	Append(ctx context.Context, entries []Entry) error
}
