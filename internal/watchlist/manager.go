package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"stocktracker/internal/logger"
	"stocktracker/internal/metrics"
)

var (
	// ErrAddFailed is the single failure signal of an add, whatever the
	// cause (transport, status, or response shape).
	ErrAddFailed = errors.New("add failed")

	// ErrRefreshFailed is the single failure signal of a refresh.
	ErrRefreshFailed = errors.New("refresh failed")

	// ErrInvalidCandidate rejects a candidate before any state change.
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrClosed is returned by operations on a closed manager.
	ErrClosed = errors.New("watchlist closed")
)

type row struct {
	entry Entry
	// token identifies an optimistic row until its persist succeeds.
	token uuid.UUID
}

type subscriber struct {
	id uint64
	fn func(State)
}

// Manager is the client's single source of truth for the watchlist. It
// mediates every read and write against the Store and notifies subscribers
// of each state change.
//
// The consistency model is eventual: an optimistic row may be shown before
// the store accepted it, and local state self-corrects only on the next
// successful Refresh.
type Manager struct {
	store    Store
	rollback bool
	log      *logger.Logger

	mu      sync.Mutex
	rows    []row
	subs    []subscriber
	nextSub uint64
	seq     uint64
	closed  bool

	// notifyMu serializes dispatch; delivered is the seq of the newest
	// state handed to subscribers.
	notifyMu  sync.Mutex
	delivered uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithRollbackOnFailure removes the optimistic row of a failed add. Without
// it the row stays visible until the next successful refresh.
func WithRollbackOnFailure(rollback bool) Option {
	return func(m *Manager) {
		m.rollback = rollback
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// New creates an empty manager backed by store.
func New(store Store, opts ...Option) *Manager {
	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.Get()
	}
	m.log = m.log.With("component", "watchlist_manager")
	return m
}

// Start populates the manager with the initial full fetch. On failure the
// state stays empty and the manager remains usable.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.Refresh(ctx); err != nil {
		m.log.Warnw("Initial watchlist fetch failed", "error", err)
		return err
	}
	return nil
}

// Close tears the manager down: subscribers are dropped and the in-memory
// state is discarded. In-flight adds still settle but no longer touch state.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.rows = nil
	m.subs = nil
	metrics.WatchlistEntries.Set(0)
}

// Refresh replaces local state wholesale with the store's content. Pending
// optimistic rows are dropped. On failure the state is left unchanged.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.isClosed() {
		return ErrClosed
	}

	entries, err := m.store.List(ctx)
	if err != nil {
		metrics.WatchlistOps.WithLabelValues("refresh", "error").Inc()
		m.log.Warnw("Failed to fetch watchlist", "error", err)
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	rows := make([]row, len(entries))
	for i, e := range entries {
		rows[i] = row{entry: e}
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.rows = rows
	m.commitLocked()

	metrics.WatchlistOps.WithLabelValues("refresh", "success").Inc()
	m.log.Debugw("Watchlist refreshed", "entries", len(rows))
	return nil
}

// Add appends the candidate optimistically, persists it, and reconciles
// with a refresh. It blocks until the operation settles.
func (m *Manager) Add(ctx context.Context, c Candidate) error {
	return <-m.AddAsync(ctx, c)
}

// AddAsync performs the optimistic append before returning and persists
// in the background. The returned channel yields exactly one value (nil
// or an error matching ErrAddFailed, ErrInvalidCandidate or ErrClosed).
//
// A successful persist triggers exactly one refresh. A failed refresh
// after a successful persist does not fail the add.
func (m *Manager) AddAsync(ctx context.Context, c Candidate) <-chan error {
	done := make(chan error, 1)

	c, err := c.Normalize()
	if err != nil {
		done <- err
		close(done)
		return done
	}
	entry := c.Entry()
	token := uuid.New()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		done <- ErrClosed
		close(done)
		return done
	}
	m.rows = append(m.rows, row{entry: entry, token: token})
	m.commitLocked()

	go func() {
		defer close(done)
		done <- m.persist(ctx, entry, token)
	}()
	return done
}

func (m *Manager) persist(ctx context.Context, entry Entry, token uuid.UUID) error {
	log := m.log.With("symbol", entry.Symbol)

	if err := m.store.Append(ctx, []Entry{entry}); err != nil {
		metrics.WatchlistOps.WithLabelValues("add", "error").Inc()
		log.Warnw("Failed to persist watchlist entry", "error", err, "rollback", m.rollback)
		if m.rollback && m.discard(token) {
			metrics.WatchlistOps.WithLabelValues("add", "rolled_back").Inc()
		}
		return fmt.Errorf("%w: %s: %w", ErrAddFailed, entry.Symbol, err)
	}

	m.confirm(token)
	metrics.WatchlistOps.WithLabelValues("add", "success").Inc()
	log.Infow("Symbol added to watchlist", "rate", entry.Rate.String())

	if err := m.Refresh(ctx); err != nil {
		metrics.WatchlistOps.WithLabelValues("reconcile", "error").Inc()
		log.Warnw("Reconciliation after add failed", "error", err)
	}
	return nil
}

// confirm clears the pending mark of the row with token, if still present.
func (m *Manager) confirm(token uuid.UUID) {
	m.mu.Lock()
	if i := m.indexLocked(token); i >= 0 && !m.closed {
		m.rows[i].token = uuid.Nil
		m.commitLocked()
		return
	}
	m.mu.Unlock()
}

// discard removes the row with token, if still present.
func (m *Manager) discard(token uuid.UUID) bool {
	m.mu.Lock()
	if i := m.indexLocked(token); i >= 0 && !m.closed {
		m.rows = append(m.rows[:i:i], m.rows[i+1:]...)
		m.commitLocked()
		return true
	}
	m.mu.Unlock()
	return false
}

func (m *Manager) indexLocked(token uuid.UUID) int {
	for i, r := range m.rows {
		if r.token == token {
			return i
		}
	}
	return -1
}

// State returns a snapshot of the current rows.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Entries returns a snapshot of the current entries.
func (m *Manager) Entries() []Entry {
	return m.State().Entries()
}

// Len returns the number of rows.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// Subscribe registers fn. It is called with the current state right away
// and after mutations. When mutations commit concurrently, a state that was
// superseded before it could be dispatched is skipped: fn always receives
// the newest state and never observes an older state after a newer one.
// fn may read the manager but must not call mutating methods or Subscribe
// synchronously.
func (m *Manager) Subscribe(fn func(State)) (cancel func()) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	seq := m.seq
	state := m.snapshotLocked()
	m.mu.Unlock()

	m.notifyMu.Lock()
	// a newer state was already dispatched to fn
	if m.delivered <= seq {
		fn(state)
	}
	m.notifyMu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) snapshotLocked() State {
	rows := make([]Row, len(m.rows))
	for i, r := range m.rows {
		rows[i] = Row{Entry: r.entry, Pending: r.token != uuid.Nil}
	}
	return State{Rows: rows}
}

// commitLocked publishes the current state. It must be called with m.mu
// held and releases it. States that lose the race to a newer one are not
// dispatched.
func (m *Manager) commitLocked() {
	m.seq++
	seq := m.seq
	state := m.snapshotLocked()
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	metrics.WatchlistEntries.Set(float64(len(m.rows)))
	m.mu.Unlock()

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	if seq <= m.delivered {
		return
	}
	m.delivered = seq
	for _, s := range subs {
		s.fn(state)
	}
}
