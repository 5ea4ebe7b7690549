// Package refresh re-resolves cached listings in the background so stale
// cache entries can be served immediately.
package refresh

import (
	"context"
	"sync"
	"time"
)

type Job struct {
	ListingID string
	ComplexID string
	URL       string
}

type Refresher struct {
	ch      chan Job
	inFly   sync.Map // listing id -> struct{}
	timeout time.Duration
	Do      func(ctx context.Context, j Job)
}

// New starts workerCount workers. The resolution cascade is slow and paced,
// so one worker is the default.
func New(capacity int, workerCount int, timeout time.Duration, do func(ctx context.Context, j Job)) *Refresher {
	if capacity <= 0 {
		capacity = 64
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	r := &Refresher{ch: make(chan Job, capacity), timeout: timeout, Do: do}
	for i := 0; i < workerCount; i++ {
		go r.worker()
	}
	return r
}

// Enqueue reports whether the job was queued. A listing already queued or
// running is not queued twice, and jobs are dropped when the queue is full.
func (r *Refresher) Enqueue(j Job) bool {
	if _, exists := r.inFly.LoadOrStore(j.ListingID, struct{}{}); exists {
		return false
	}
	select {
	case r.ch <- j:
		return true
	default:
		r.inFly.Delete(j.ListingID)
		return false
	}
}

func (r *Refresher) worker() {
	for j := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		func() {
			defer func() {
				r.inFly.Delete(j.ListingID)
				cancel()
			}()
			if r.Do != nil {
				r.Do(ctx, j)
			}
		}()
	}
}
