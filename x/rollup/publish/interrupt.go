package publish

import (
	"context"
	"sync"
	"time"
)

// Interrupter is a single-shot, re-arable cooperative cancellation flag.
// Once raised it stays raised until explicitly cleared; every waiting
// point in the publisher consults it through SleepOrInterrupted or
// IsSet. It deliberately does not use context.Context for the flag
// itself: a context.CancelFunc cannot be un-cancelled, but the flag
// must be clearable before the next Publish call.
type Interrupter struct {
	mu     sync.Mutex
	set    bool
	signal chan struct{}
}

// NewInterrupter returns a cleared Interrupter.
func NewInterrupter() *Interrupter {
	return &Interrupter{signal: make(chan struct{})}
}

// Interrupt idempotently raises the flag and wakes any waiting sleep.
func (in *Interrupter) Interrupt() {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.set {
		return
	}
	in.set = true
	close(in.signal)
}

// Clear lowers the flag, arming a fresh wakeup channel for the next cycle.
// Must be called before the next Publish after an interrupted one.
func (in *Interrupter) Clear() {
	in.mu.Lock()
	defer in.mu.Unlock()

	if !in.set {
		return
	}
	in.set = false
	in.signal = make(chan struct{})
}

// IsSet reports whether the flag is currently raised.
func (in *Interrupter) IsSet() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.set
}

// wakeupChan returns the channel that closes when Interrupt is next
// called, snapshotted under the lock so a concurrent Clear cannot swap
// it out from under an in-flight sleep.
func (in *Interrupter) wakeupChan() chan struct{} {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.signal
}

// SleepOrInterrupted blocks until d elapses, the flag is raised, or ctx
// is done — whichever comes first. It returns true if the sleep was cut
// short by an interrupt or context cancellation.
func (in *Interrupter) SleepOrInterrupted(ctx context.Context, d time.Duration) bool {
	if in.IsSet() {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return true
	case <-in.wakeupChan():
		return true
	case <-timer.C:
		return false
	}
}
