package auth

import (
	"log"
	"time"
)

// Reaper periodically deletes ledger rows whose expiry predates
// now minus the refresh TTL, so a row survives one full TTL window past its
// expiry before it is purged. Sweeps run sequentially; ticks never overlap.
type Reaper struct {
	ledger   Ledger
	interval time.Duration
	grace    time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewReaper builds a reaper sweeping every interval with the given grace
// period (normally the refresh TTL).
func NewReaper(ledger Ledger, interval, grace time.Duration) *Reaper {
	return &Reaper{
		ledger:   ledger,
		interval: interval,
		grace:    grace,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (r *Reaper) Start() {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.RunOnce()
			case <-r.stop:
				return
			}
		}
	}()
}

// RunOnce performs a single sweep and returns the number of purged rows.
func (r *Reaper) RunOnce() int64 {
	cutoff := time.Now().Add(-r.grace)
	n, err := r.ledger.PurgeExpiredBefore(cutoff)
	if err != nil {
		log.Printf("reaper: purge failed: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("reaper: purged %d expired refresh tokens", n)
	}
	return n
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (r *Reaper) Stop() {
	close(r.stop)
	<-r.done
}
