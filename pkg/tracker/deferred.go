package tracker

import (
	"sync"
	"time"
)

// Deferred holds at most one pending action per key. Scheduling a key again
// replaces its pending action; Cancel drops it.
//
// A timer that already fired may still be waiting on the caller's own lock
// when it gets cancelled, so the callback receives its sequence number and
// must Claim it before acting. Claim fails for a cancelled or replaced action.
type Deferred struct {
	mu      sync.Mutex
	pending map[string]*deferredAction
	seq     uint64
	stopped bool
}

type deferredAction struct {
	timer *time.Timer
	seq   uint64
}

func NewDeferred() *Deferred {
	return &Deferred{pending: make(map[string]*deferredAction)}
}

func (d *Deferred) Schedule(key string, after time.Duration, fn func(seq uint64)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}

	d.seq++
	seq := d.seq
	d.pending[key] = &deferredAction{
		seq:   seq,
		timer: time.AfterFunc(after, func() { fn(seq) }),
	}
}

// Cancel reports whether an action was pending for key.
func (d *Deferred) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	action, ok := d.pending[key]
	if !ok {
		return false
	}
	action.timer.Stop()
	delete(d.pending, key)
	return true
}

// Claim removes the pending action for key if it is still the one numbered seq.
func (d *Deferred) Claim(key string, seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	action, ok := d.pending[key]
	if !ok || action.seq != seq {
		return false
	}
	delete(d.pending, key)
	return true
}

func (d *Deferred) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

func (d *Deferred) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels everything and refuses further scheduling.
func (d *Deferred) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for key, action := range d.pending {
		action.timer.Stop()
		delete(d.pending, key)
	}
}
