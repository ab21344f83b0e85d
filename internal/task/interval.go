package task

import (
	"context"
	"sync"
	"time"
)

// Interval runs fn on a fixed period until stopped. Ticks that arrive while fn
// is still running are dropped rather than queued.
type Interval struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Every starts the loop. When immediate is set fn also runs once right away,
// before the first tick.
func Every(ctx context.Context, period time.Duration, immediate bool, fn func(ctx context.Context)) *Interval {
	ctx, cancel := context.WithCancel(ctx)
	i := &Interval{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(i.done)
		if immediate {
			fn(ctx)
		}
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()
	return i
}

// Stop cancels the loop and waits for a running fn to return.
func (i *Interval) Stop() {
	if i == nil {
		return
	}
	i.once.Do(i.cancel)
	<-i.done
}

// Done is closed once the loop has exited.
func (i *Interval) Done() <-chan struct{} {
	return i.done
}
