// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import "time"

// Ticker delivers progress ticks to a run.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc starts a ticker with the given period.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the production TickerFunc backed by time.Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}
