package streamreg

import (
	"sync"

	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/protoloom/protoloom/pkg/schema"
)

// Result is the one-shot outcome of a client-streaming or bidirectional
// call's background task: either the response envelope JSON, or an error
// string when the task failed.
type Result struct {
	JSON []byte
	Err  string
}

// ActiveStream holds everything a stream's send/finish operations need.
// DescriptorPool is shared (never mutated) with the background task that
// owns the HTTP/2 request; SendQueue carries pre-framed request bytes to
// that task; Response delivers the task's single terminal Result. closed
// guards SendQueue against a double close and is only ever read or written
// while the owning Registry's mu is held.
type ActiveStream struct {
	SendQueue  chan []byte
	Pool       *schema.DescriptorPool
	InputDesc  protoreflect.MessageDescriptor
	OutputDesc protoreflect.MessageDescriptor
	Response   chan Result

	closed bool
}

// Registry is the process-wide tab_id -> ActiveStream table. The zero
// value is not usable; construct with NewRegistry.
type Registry struct {
	mu      sync.Mutex
	streams map[string]*ActiveStream
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{streams: make(map[string]*ActiveStream)}
}

// Insert adds or overwrites the entry for tabID. A second open-stream call
// on an already-open tab orphans the previous entry by the caller's
// contract: its background task keeps running until its own channels
// close, but the registry no longer references it.
func (r *Registry) Insert(tabID string, stream *ActiveStream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams[tabID] = stream
}

// Get returns the entry for tabID without removing it, for callers that
// need its descriptors (e.g. framing a message against InputDesc before
// enqueuing it with Push).
func (r *Registry) Get(tabID string) (*ActiveStream, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.streams[tabID]
	return s, ok
}

// Push enqueues framed bytes onto tabID's send queue. The lookup, the
// closed check, and the channel send all happen under mu, so a Push that
// loses a race against Close observes closed rather than sending on (or
// racing to send on) an already-closed channel.
func (r *Registry) Push(tabID string, framed []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.streams[tabID]
	if !ok {
		return ErrUnknownTab
	}
	if s.closed {
		return ErrQueueClosed
	}

	select {
	case s.SendQueue <- framed:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close marks tabID's entry closed and closes its SendQueue, while still
// holding mu. The entry stays in the registry until Remove is called, so a
// Push racing against a finish still in progress observes ErrQueueClosed
// rather than ErrUnknownTab. Closing an already-closed entry reports
// ErrQueueClosed, guarding against a concurrent double finish.
func (r *Registry) Close(tabID string) (*ActiveStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.streams[tabID]
	if !ok {
		return nil, ErrUnknownTab
	}
	if s.closed {
		return nil, ErrQueueClosed
	}
	s.closed = true
	close(s.SendQueue)
	return s, nil
}

// Remove drops tabID's entry if it still points at s, a compare-and-delete
// guarding against removing a newer entry that a later open-stream call
// installed for the same tab_id after s was closed.
func (r *Registry) Remove(tabID string, s *ActiveStream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.streams[tabID] == s {
		delete(r.streams, tabID)
	}
}

// Count reports the number of streams currently held, for metrics.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}
