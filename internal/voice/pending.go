package voice

import (
	"sync"

	"github.com/google/uuid"
)

// shape tags the result type a pending call expects on the wire.
type shape int

const (
	shapeLong shape = iota
	shapeBool
	shapeList
)

// pendingCall is one in-flight correlated request. The result slot starts at
// the shape default (-1, false, empty list) and is written at most once, by
// whichever side takes the entry out of the table. done is closed after the
// slot is final; waiters read the slot only after done.
type pendingCall struct {
	shape shape
	done  chan struct{}

	longVal int64
	boolVal bool
	listVal []uuid.UUID
}

func newPendingCall(s shape) *pendingCall {
	return &pendingCall{
		shape:   s,
		done:    make(chan struct{}),
		longVal: -1,
	}
}

// pendingTable maps correlation ids to in-flight calls. It is shared between
// the calling side (insert, timeout removal) and the delivery goroutine
// (lookup-and-remove), so every access goes through the mutex. Correlation
// ids are monotonically increasing and never reused within a process.
type pendingTable struct {
	mu    sync.Mutex
	next  uint64
	calls map[uint64]*pendingCall
}

func newPendingTable() *pendingTable {
	return &pendingTable{calls: make(map[uint64]*pendingCall)}
}

// add allocates the next correlation id and registers a fresh entry.
func (t *pendingTable) add(s shape) (uint64, *pendingCall) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.next
	t.next++
	pc := newPendingCall(s)
	t.calls[id] = pc
	return id, pc
}

// take removes and returns the entry for id. The entry is resolved exactly
// once: only the side that successfully takes it may write the result slot
// and close done.
func (t *pendingTable) take(id uint64) (*pendingCall, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pc, ok := t.calls[id]
	if ok {
		delete(t.calls, id)
	}
	return pc, ok
}

// size reports the number of in-flight calls.
func (t *pendingTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
