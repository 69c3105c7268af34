package watchlist_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"stocktracker/internal/logger"
	"stocktracker/internal/watchlist"
)

func entry(symbol, rate string) watchlist.Entry {
	return watchlist.Entry{Symbol: symbol, Rate: decimal.RequireFromString(rate)}
}

func candidate(symbol, price string) watchlist.Candidate {
	return watchlist.Candidate{Symbol: symbol, Price: decimal.RequireFromString(price)}
}

func requireEntries(t *testing.T, want, got []watchlist.Entry) {
	t.Helper()
	require.Lenf(t, got, len(want), "want %v, got %v", want, got)
	for i := range want {
		require.Truef(t, want[i].Equal(got[i]), "entry %d: want %s, got %s", i, want[i], got[i])
	}
}

func newManager(store watchlist.Store, opts ...watchlist.Option) *watchlist.Manager {
	return watchlist.New(store, append([]watchlist.Option{watchlist.WithLogger(logger.Nop())}, opts...)...)
}

func TestManager_RefreshIsIdempotent(t *testing.T) {
	t.Parallel()

	// Arrange: an unchanged remote store
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	remote := []watchlist.Entry{entry("AAPL", "150.25"), entry("MSFT", "410")}
	store.EXPECT().List(gomock.Any()).Return(remote, nil).Times(2)

	m := newManager(store)

	// Act: refresh twice
	require.NoError(t, m.Refresh(t.Context()))
	first := m.Entries()
	require.NoError(t, m.Refresh(t.Context()))
	second := m.Entries()

	// Assert: identical local entries both times
	requireEntries(t, remote, first)
	requireEntries(t, first, second)
}

func TestManager_AddIsVisibleBeforePersist(t *testing.T) {
	t.Parallel()

	// Arrange: a store whose append blocks until released
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	release := make(chan struct{})
	store.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, entries []watchlist.Entry) error {
			<-release
			return nil
		}).
		Times(1)
	store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{entry("AAPL", "150")}, nil).Times(1)

	m := newManager(store)

	// Act: start the add without waiting for it
	done := m.AddAsync(t.Context(), candidate("AAPL", "150"))

	// Assert: the candidate is the last entry before any response
	state := m.State()
	require.Equal(t, 1, state.Len())
	last := state.Rows[state.Len()-1]
	require.True(t, last.Equal(entry("AAPL", "150")))
	require.True(t, last.Pending)

	close(release)
	require.NoError(t, <-done)
	require.False(t, m.State().Rows[0].Pending)
}

func TestManager_AddReconcilesWithStore(t *testing.T) {
	t.Parallel()

	// Arrange: the store reorders and changes precision on append
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	canonical := []watchlist.Entry{entry("MSFT", "410.00"), entry("AAPL", "150.00")}
	gomock.InOrder(
		store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{}, nil),
		store.EXPECT().
			Append(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, entries []watchlist.Entry) error {
				requireEntries(t, []watchlist.Entry{entry("AAPL", "150.0")}, entries)
				return nil
			}),
		store.EXPECT().List(gomock.Any()).Return(canonical, nil),
	)

	m := newManager(store)
	require.NoError(t, m.Start(t.Context()))
	require.Zero(t, m.Len())

	// Act
	err := m.Add(t.Context(), candidate("AAPL", "150.0"))

	// Assert: state equals what the store now returns, not the optimistic value
	require.NoError(t, err)
	requireEntries(t, canonical, m.Entries())
	for _, r := range m.State().Rows {
		require.False(t, r.Pending)
	}
}

func TestManager_AddFailureKeepsOptimisticEntry(t *testing.T) {
	t.Parallel()

	// Arrange: the store rejects the append
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{entry("IBM", "180")}, nil).Times(1)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("unexpected status: 500")).Times(1)

	m := newManager(store)
	require.NoError(t, m.Start(t.Context()))

	// Act
	err := m.Add(t.Context(), candidate("NFLX", "610.5"))

	// Assert: a generic failure was raised and the entry survived
	require.ErrorIs(t, err, watchlist.ErrAddFailed)
	requireEntries(t, []watchlist.Entry{entry("IBM", "180"), entry("NFLX", "610.5")}, m.Entries())
	require.True(t, m.State().Rows[1].Pending)
}

func TestManager_AddFailureRollsBackWhenConfigured(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{entry("IBM", "180")}, nil).Times(1)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("connection refused")).Times(1)

	m := newManager(store, watchlist.WithRollbackOnFailure(true))
	require.NoError(t, m.Start(t.Context()))

	// Act
	err := m.Add(t.Context(), candidate("NFLX", "610.5"))

	// Assert: only the optimistic row is removed
	require.ErrorIs(t, err, watchlist.ErrAddFailed)
	requireEntries(t, []watchlist.Entry{entry("IBM", "180")}, m.Entries())
}

func TestManager_RefreshFailureLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	before := []watchlist.Entry{entry("AAPL", "150"), entry("TSLA", "250.5")}
	gomock.InOrder(
		store.EXPECT().List(gomock.Any()).Return(before, nil),
		store.EXPECT().List(gomock.Any()).Return(nil, errors.New("decoding response: unexpected EOF")),
	)

	m := newManager(store)
	require.NoError(t, m.Refresh(t.Context()))

	// Act
	err := m.Refresh(t.Context())

	// Assert
	require.ErrorIs(t, err, watchlist.ErrRefreshFailed)
	requireEntries(t, before, m.Entries())
}

func TestManager_AddToEmptyWatchlist(t *testing.T) {
	t.Parallel()

	// Arrange: empty store that accepts the append
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	gomock.InOrder(
		store.EXPECT().List(gomock.Any()).Return(nil, nil),
		store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil),
		store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{entry("TSLA", "250.5")}, nil),
	)

	m := newManager(store)
	require.NoError(t, m.Start(t.Context()))

	// Act
	require.NoError(t, m.Add(t.Context(), candidate("TSLA", "250.5")))

	// Assert
	state := m.State()
	require.Equal(t, 1, state.Len())
	require.Equal(t, "TSLA", state.Rows[0].Symbol)
	require.Equal(t, "250.50", state.Rows[0].Rate.StringFixed(2))
}

func TestManager_AddSucceedsWhenReconcileFails(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	store.EXPECT().List(gomock.Any()).Return(nil, errors.New("timeout")).Times(1)

	m := newManager(store)

	// Act
	err := m.Add(t.Context(), candidate("AMD", "160"))

	// Assert: the entry is durable, so the add reports success
	require.NoError(t, err)
	state := m.State()
	require.Equal(t, 1, state.Len())
	require.False(t, state.Rows[0].Pending)
}

func TestManager_AddNormalizesCandidate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, entries []watchlist.Entry) error {
			require.Len(t, entries, 1)
			require.Equal(t, "GOOGL", entries[0].Symbol)
			return nil
		}).
		Times(1)
	store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{entry("GOOGL", "170")}, nil).Times(1)

	m := newManager(store)
	require.NoError(t, m.Add(t.Context(), candidate("  googl ", "170")))
}

func TestManager_AddRejectsInvalidCandidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    watchlist.Candidate
	}{
		{"empty symbol", candidate("   ", "10")},
		{"inner whitespace", candidate("BR K", "10")},
		{"negative price", candidate("AAPL", "-1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange: the store must not be touched
			ctrl := gomock.NewController(t)
			store := NewMockStore(ctrl)

			m := newManager(store)

			// Act
			err := m.Add(t.Context(), tt.c)

			// Assert
			require.ErrorIs(t, err, watchlist.ErrInvalidCandidate)
			require.NotErrorIs(t, err, watchlist.ErrAddFailed)
			require.Zero(t, m.Len())
		})
	}
}

func TestManager_StartFailureLeavesEmptyState(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().List(gomock.Any()).Return(nil, errors.New("dial tcp: connection refused")).Times(1)

	m := newManager(store)

	err := m.Start(t.Context())
	require.ErrorIs(t, err, watchlist.ErrRefreshFailed)
	require.Zero(t, m.Len())
}

func TestManager_Subscribe(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	gomock.InOrder(
		store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{entry("AAPL", "150")}, nil),
		store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil),
		store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{entry("AAPL", "150"), entry("BA", "200")}, nil),
		store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{entry("AAPL", "150")}, nil),
	)

	m := newManager(store)

	var mu sync.Mutex
	var states []watchlist.State
	cancel := m.Subscribe(func(s watchlist.State) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, s)
	})

	// Act
	require.NoError(t, m.Start(t.Context()))
	require.NoError(t, m.Add(t.Context(), candidate("BA", "200")))
	cancel()
	require.NoError(t, m.Refresh(t.Context()))

	// Assert: initial, fetch, optimistic, confirmed, reconciled
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, states, 5)
	require.Zero(t, states[0].Len())
	require.Equal(t, 1, states[1].Len())
	require.Equal(t, 2, states[2].Len())
	require.True(t, states[2].Rows[1].Pending)
	require.False(t, states[3].Rows[1].Pending)
	requireEntries(t, []watchlist.Entry{entry("AAPL", "150"), entry("BA", "200")}, states[4].Entries())
}

func TestManager_SubscribeConcurrentCommitsNeverGoBack(t *testing.T) {
	t.Parallel()

	// Arrange: failed persists leave every optimistic row in place, so each
	// commit grows the watchlist by one
	const adds = 20
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("unavailable")).Times(adds)

	m := newManager(store)

	var mu sync.Mutex
	var lens []int
	m.Subscribe(func(s watchlist.State) {
		mu.Lock()
		defer mu.Unlock()
		lens = append(lens, s.Len())
	})

	// Act
	var wg sync.WaitGroup
	errs := make(chan error, adds)
	for range adds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Add(t.Context(), candidate("AAPL", "150"))
		}()
	}
	wg.Wait()
	close(errs)

	// Assert: superseded states may be skipped, the newest is delivered
	for err := range errs {
		require.ErrorIs(t, err, watchlist.ErrAddFailed)
	}
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 0, lens[0])
	require.Equal(t, adds, lens[len(lens)-1])
	for i := 1; i < len(lens); i++ {
		require.Greater(t, lens[i], lens[i-1])
	}
}

func TestManager_SubscriberCanReadState(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{entry("KO", "60")}, nil).Times(1)

	m := newManager(store)

	var lens []int
	m.Subscribe(func(s watchlist.State) {
		lens = append(lens, m.Len())
	})
	require.NoError(t, m.Refresh(t.Context()))

	require.Equal(t, []int{0, 1}, lens)
}

func TestManager_Close(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().List(gomock.Any()).Return([]watchlist.Entry{entry("KO", "60")}, nil).Times(1)

	m := newManager(store)
	require.NoError(t, m.Start(t.Context()))

	calls := 0
	m.Subscribe(func(watchlist.State) { calls++ })

	// Act
	m.Close()

	// Assert: state is torn down and operations fail without touching the store
	require.Zero(t, m.Len())
	require.ErrorIs(t, m.Refresh(t.Context()), watchlist.ErrClosed)
	require.ErrorIs(t, m.Add(t.Context(), candidate("PEP", "170")), watchlist.ErrClosed)
	require.Equal(t, 1, calls)
}

// memStore is an in-memory Store used to exercise overlapping adds.
type memStore struct {
	mu      sync.Mutex
	entries []watchlist.Entry
	delay   time.Duration
}

func (s *memStore) List(ctx context.Context) ([]watchlist.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]watchlist.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *memStore) Append(ctx context.Context, entries []watchlist.Entry) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

func TestManager_OverlappingAddsConverge(t *testing.T) {
	t.Parallel()

	// Arrange
	store := &memStore{delay: 5 * time.Millisecond}
	m := newManager(store)

	// Act: fire both adds before either settles
	first := m.AddAsync(t.Context(), candidate("AAPL", "150"))
	second := m.AddAsync(t.Context(), candidate("MSFT", "410"))

	// Assert: optimistic rows appear in call order
	requireEntries(t, []watchlist.Entry{entry("AAPL", "150"), entry("MSFT", "410")}, m.Entries())

	require.NoError(t, <-first)
	require.NoError(t, <-second)

	// Assert: after both settle the state matches the store
	remote, err := store.List(t.Context())
	require.NoError(t, err)
	require.NoError(t, m.Refresh(t.Context()))
	requireEntries(t, remote, m.Entries())
	require.Equal(t, 2, m.Len())
}

func TestManager_AddDuplicatesAreKept(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	m := newManager(store)

	require.NoError(t, m.Add(t.Context(), candidate("AAPL", "150")))
	require.NoError(t, m.Add(t.Context(), candidate("AAPL", "151")))

	requireEntries(t, []watchlist.Entry{entry("AAPL", "150"), entry("AAPL", "151")}, m.Entries())
}
