package sweep

import (
	"context"
	"time"

	"github.com/tazhibayda/foodshare-service/internal/listing"
	"github.com/tazhibayda/foodshare-service/internal/log"
	"github.com/tazhibayda/foodshare-service/internal/repo"
	"go.uber.org/zap"
)

// Sweeper periodically turns stale available listings into expired ones.
// The interval is a tunable, not a correctness knob: reads and accepts also
// catch expiry lazily with the same threshold, the sweep just makes sure
// listings nobody touches still transition.
type Sweeper struct {
	store    repo.Listings
	svc      *listing.Service
	interval time.Duration
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

func New(store repo.Listings, svc *listing.Service, interval time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		svc:      svc,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Sweeper) WithNow(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Start runs the sweep loop in its own goroutine until Stop.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				s.Sweep(context.Background())
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop shuts the loop down and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// Sweep is one pass: idempotent and order-independent across listings.
// A listing that an accept or a racing sweep already transitioned is simply a
// no-op here; individual failures are logged and skipped, never fatal.
func (s *Sweeper) Sweep(ctx context.Context) {
	due, err := s.store.DueForExpiry(ctx, s.now())
	if err != nil {
		log.L().Error("sweep: scan failed", zap.Error(err))
		return
	}
	for _, l := range due {
		if err := s.svc.Expire(ctx, l.ID); err != nil {
			log.L().Error("sweep: expire failed", zap.Int64("id", l.ID), zap.Error(err))
		}
	}
}
