package app

import (
	"context"

	"github.com/rubiojr/gasprice/pkg/api"
)

// RefreshEvent tells subscribers the price list should be fetched again.
// Seq grows with every Refresh.
type RefreshEvent struct {
	Seq uint64
}

// Refresh bumps the refresh counter and signals every subscriber. It never
// blocks: a subscriber that has not consumed the previous event only sees
// the latest one.
func (a *App) Refresh() RefreshEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.refreshSeq++
	ev := RefreshEvent{Seq: a.refreshSeq}
	a.Metrics.Refreshes.Inc()

	for _, ch := range a.subs {
		select {
		case ch <- ev:
		default:
			// replace the pending event with the newer one
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
	return ev
}

// RefreshSeq returns the current value of the refresh counter.
func (a *App) RefreshSeq() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshSeq
}

// Subscribe returns a channel receiving refresh events and a function to
// stop receiving them. The channel is closed on cancel or Close.
func (a *App) Subscribe() (<-chan RefreshEvent, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan RefreshEvent, 1)
	if a.closed {
		close(ch)
		return ch, func() {}
	}

	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch

	cancel := func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if sub, ok := a.subs[id]; ok {
			close(sub)
			delete(a.subs, id)
		}
	}
	return ch, cancel
}

// WatchRefresh subscribes to refresh events before returning and then, in
// its own goroutine, fetches the price list on every event until ctx is
// done or the App is closed. The returned channel is closed when the
// watcher stops.
func (a *App) WatchRefresh(ctx context.Context, filters api.Filters) <-chan struct{} {
	events, cancel := a.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("refresh", "seq", ev.Seq)
				if err := a.FetchFuelPrices(ctx, filters); err != nil {
					a.log.Warn("error refreshing prices", "error", err)
				}
			}
		}
	}()
	return done
}
