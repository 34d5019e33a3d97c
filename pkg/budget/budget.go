// Package budget implements MemoryBudget: a counted semaphore over byte
// units with FIFO-fair blocking reservation and move-only, RAII-style
// Permits. Grounded on the single-mutex-plus-condition-variable locking
// discipline the teacher's pkg/engine.ParallelScheduler uses to guard its
// shared unitStatus/unitResults maps — generalised here from map mutation to
// counted reservation.
package budget

import (
	"container/list"
	"sync"

	"github.com/xmute-dev/xmute/pkg/convert"
)

// Unbounded is the sentinel limit meaning no byte ceiling is enforced.
const Unbounded int64 = -1

// MemoryBudget is a counted semaphore: at most Limit bytes may be reserved
// at once (unless Limit is Unbounded). One mutex protects the waiter queue;
// per spec §5, no other lock is held across a converter call while holding
// this one.
type MemoryBudget struct {
	mu      sync.Mutex
	limit   int64
	used    int64
	waiters *list.List // of *waiter, FIFO order
}

type waiter struct {
	bytes int64
	ready chan struct{}
}

// New constructs a MemoryBudget with the given byte limit. Pass Unbounded
// for no ceiling.
func New(limit int64) *MemoryBudget {
	return &MemoryBudget{limit: limit, waiters: list.New()}
}

// Limit returns the budget's immutable byte ceiling.
func (b *MemoryBudget) Limit() int64 { return b.limit }

// Used returns the currently reserved byte count.
func (b *MemoryBudget) Used() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Permit is a move-only acquisition receipt. Go has no linear types, so
// "move-only" is enforced at runtime: Release panics if called twice, and
// callers are expected to treat a Permit as consumed once passed to
// Release (conventionally via defer immediately after acquisition).
type Permit struct {
	budget   *MemoryBudget
	bytes    int64
	released bool
	mu       sync.Mutex
}

// Release returns the Permit's reservation to the budget and wakes the
// longest-waiting blocked reserver, if any. Safe to call via defer; panics
// if called more than once on the same Permit, since a double release would
// silently over-credit the budget.
func (p *Permit) Release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		panic("budget: Permit released twice")
	}
	p.released = true
	p.mu.Unlock()
	p.budget.release(p.bytes)
}

// Bytes returns the number of bytes this permit reserves.
func (p *Permit) Bytes() int64 { return p.bytes }

func (b *MemoryBudget) fits(bytes int64) bool {
	return b.limit == Unbounded || b.used+bytes <= b.limit
}

// TryReserve attempts an atomic compare-and-increment reservation of bytes.
// It never blocks: returns (nil, false) immediately if the budget lacks
// room.
func (b *MemoryBudget) TryReserve(bytes int64) (*Permit, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.fits(bytes) {
		return nil, false
	}
	b.used += bytes
	return &Permit{budget: b, bytes: bytes}, true
}

// ReserveBlocking waits until bytes of space are available, serving
// contention in FIFO order, and returns the acquired Permit. It honours
// cancel: if cancel fires before space is available, it returns
// (nil, *convert.ConvertError) with Kind convert.KindCancelled instead of
// granting the reservation, and the waiter is removed from the queue
// without disturbing FIFO order for the remaining waiters.
func (b *MemoryBudget) ReserveBlocking(bytes int64, cancel <-chan struct{}) (*Permit, error) {
	b.mu.Lock()
	if b.waiters.Len() == 0 && b.fits(bytes) {
		b.used += bytes
		b.mu.Unlock()
		return &Permit{budget: b, bytes: bytes}, nil
	}

	w := &waiter{bytes: bytes, ready: make(chan struct{})}
	el := b.waiters.PushBack(w)
	b.mu.Unlock()

	select {
	case <-w.ready:
		return &Permit{budget: b, bytes: bytes}, nil
	case <-cancel:
		b.mu.Lock()
		// Remove ourselves if we're still queued (not already woken).
		select {
		case <-w.ready:
			// We were woken concurrently with cancellation; honour the
			// grant rather than leak a reservation.
			b.mu.Unlock()
			return &Permit{budget: b, bytes: bytes}, nil
		default:
			b.waiters.Remove(el)
		}
		b.mu.Unlock()
		return nil, convert.NewCancelled("reserve_blocking cancelled while waiting for memory")
	}
}

// release credits bytes back to the budget and wakes waiters in FIFO order
// while there is room for the front waiter's request.
func (b *MemoryBudget) release(bytes int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used -= bytes

	for {
		front := b.waiters.Front()
		if front == nil {
			return
		}
		w := front.Value.(*waiter)
		if !b.fits(w.bytes) {
			return
		}
		b.used += w.bytes
		b.waiters.Remove(front)
		close(w.ready)
	}
}
