package actor

import "sync"

// macrotaskHandle is a cancelable handle to a closure scheduled onto a later
// turn of the runtime's cooperative loop (spec component C3). In the
// single-threaded host this spec was distilled from, a "macrotask" yields
// control back to the event loop between the receipt of a message and the
// invocation of its behavior. This module's Go translation runs each
// scheduled closure on its own goroutine rather than a shared loop (per
// spec.md §9's guidance that a dedicated worker is the faithful multi-
// threaded translation), but keeps the same cancel-before-run contract: a
// task cancelled before it runs never invokes its closure.
type macrotaskHandle struct {
	mu        sync.Mutex
	cancelled bool
	done      chan struct{}
}

// scheduleMacrotask runs fn on a new goroutine — a later "turn" relative to
// the caller — unless the returned handle is cancelled first.
func scheduleMacrotask(fn func()) *macrotaskHandle {
	h := &macrotaskHandle{done: make(chan struct{})}

	go func() {
		defer close(h.done)

		h.mu.Lock()
		cancelled := h.cancelled
		h.mu.Unlock()

		if !cancelled {
			fn()
		}
	}()

	return h
}

// cancel prevents a not-yet-run macrotask from running. It is a no-op if the
// task has already started or already completed.
func (h *macrotaskHandle) cancel() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.cancelled = true
	h.mu.Unlock()
}
