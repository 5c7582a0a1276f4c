package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/five82/potluck/internal/paging"
)

const (
	defaultRefreshInterval = 60 * time.Second
	maxBackoff             = 5 * time.Minute
)

// Refresher is a list that can be reloaded in place.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StartRefresher launches a background goroutine that refreshes target at a
// fixed cadence, backing off after consecutive failures. onDone, if set, is
// called after every attempt. It returns immediately.
func StartRefresher(ctx context.Context, target Refresher, interval time.Duration, onDone func(error)) {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			err := target.Refresh(ctx)
			switch {
			case err == nil:
				failures = 0
			case errors.Is(err, paging.ErrClosed):
				return
			case errors.Is(err, paging.ErrBusy):
				// A load is already running; try again on the next tick.
			case ctx.Err() != nil:
				return
			default:
				failures++
				log.Printf("feed refresh failed (%d in a row): %v", failures, err)
			}
			if onDone != nil {
				onDone(err)
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
