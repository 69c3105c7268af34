package view

import (
	"io"
	"strings"

	"stocktracker/internal/logger"
	"stocktracker/internal/watchlist"
)

// Watch re-renders the watchlist to w on every state change of m until the
// returned cancel func is called.
func Watch(m *watchlist.Manager, w io.Writer, style string) (cancel func()) {
	log := logger.Get().With("component", "watchlist_view")
	return m.Subscribe(func(s watchlist.State) {
		var b strings.Builder
		if err := Markdown(&b, s); err != nil {
			log.Warnw("Failed to build watchlist view", "error", err)
			return
		}
		out, err := Render(b.String(), style)
		if err != nil {
			log.Warnw("Failed to render watchlist view", "error", err)
			out = b.String()
		}
		if _, err := io.WriteString(w, out); err != nil {
			log.Warnw("Failed to write watchlist view", "error", err)
		}
	})
}
