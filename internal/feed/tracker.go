package feed

import (
	"sort"
	"sync"

	"marketwire/internal/model"
	"marketwire/internal/stream"
)

// Tracker maintains the latest trade and quote per symbol observed on a
// session's event feed. Safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	trades map[string]model.Trade
	quotes map[string]model.Quote
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		trades: make(map[string]model.Trade),
		quotes: make(map[string]model.Quote),
	}
}

// Apply folds one event into the tracked state. Non-data events are ignored.
func (t *Tracker) Apply(ev stream.Event) {
	switch e := ev.(type) {
	case stream.TradeEvent:
		t.mu.Lock()
		t.trades[e.Symbol] = e.Trade
		t.mu.Unlock()
	case stream.QuoteEvent:
		t.mu.Lock()
		t.quotes[e.Symbol] = e.Quote
		t.mu.Unlock()
	}
}

// Trade returns the most recent trade for symbol.
func (t *Tracker) Trade(symbol string) (model.Trade, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	trade, ok := t.trades[symbol]
	return trade, ok
}

// Quote returns the most recent quote for symbol.
func (t *Tracker) Quote(symbol string) (model.Quote, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	quote, ok := t.quotes[symbol]
	return quote, ok
}

// Symbols returns the sorted set of symbols seen so far.
func (t *Tracker) Symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[string]struct{}, len(t.trades)+len(t.quotes))
	for sym := range t.trades {
		seen[sym] = struct{}{}
	}
	for sym := range t.quotes {
		seen[sym] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}
