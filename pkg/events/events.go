// Package events carries the activity stream: every accepted mutation is
// published as an Event on a bounded in-memory queue and consumed by a
// background worker. Publishing never blocks request handling; when the
// queue is full the event is counted and dropped.
package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// EventType represents an activity kind on the stream.
type EventType string

const (
	EvUserCreated    EventType = "user_created"
	EvUserUpdated    EventType = "user_updated"
	EvPostCreated    EventType = "post_created"
	EvPostDeleted    EventType = "post_deleted"
	EvFollowed       EventType = "followed"
	EvUnfollowed     EventType = "unfollowed"
	EvPostLiked      EventType = "post_liked"
	EvPostUnliked    EventType = "post_unliked"
	EvCommentCreated EventType = "comment_created"
	EvCommentDeleted EventType = "comment_deleted"
	EvGraphReset     EventType = "graph_reset"
)

// Event is a lightweight in-memory representation of one accepted
// mutation. Payload may be backed by a pooled ByteBuffer; consumers must
// call Item.Done() when finished.
type Event struct {
	Type EventType
	// Actor is the user performing the action.
	Actor string
	// Subject is the entity acted on (post, comment or user id).
	Subject string
	// Payload holds an optional JSON snapshot of the entity (may be nil).
	Payload []byte
	// TS is the mutation timestamp (nanoseconds).
	TS int64
	// EnqSeq is a monotonic enqueue sequence assigned when the event is
	// accepted into the queue. It gives deterministic ordering in the spool.
	EnqSeq uint64
	// Extras holds small metadata extracted from HTTP request headers
	// (e.g. request id). It is optional.
	Extras map[string]string
}

// ErrQueueFull is returned by TryEnqueue when the queue is at capacity.
var ErrQueueFull = errors.New("event queue full")

// Item wraps an Event and owns a pooled ByteBuffer if one was used.
// Consumers MUST call Done() exactly once after processing the item to
// return pooled resources.
type Item struct {
	Event *Event

	// internal fields
	buf  *bytebufferpool.ByteBuffer
	once sync.Once
}

// Done releases internal pooled resources (buffer + event) back to the pool.
func (it *Item) Done() {
	it.once.Do(func() {
		if it.buf != nil {
			// avoid retaining huge buffers in the pool
			if int64(cap(it.buf.B)) > atomic.LoadInt64(&maxPooledBuffer) {
				// drop the buffer so GC can reclaim the underlying array
				it.buf = nil
			} else {
				bytebufferpool.Put(it.buf)
				it.buf = nil
			}
		}
		// clear slice header to avoid retention
		if it.Event != nil {
			it.Event.Payload = nil
			it.Event.Extras = nil
			eventPool.Put(it.Event)
			it.Event = nil
		}
		// return Item to pool
		itemPool.Put(it)
	})
}

// Queue is a bounded in-memory queue that the API layer publishes
// accepted mutations onto. It is safe for concurrent producers.
// Consumers should range over Out() to receive items.
type Queue struct {
	ch       chan *Item
	capacity int
	dropped  uint64
}

var eventPool = sync.Pool{New: func() any { return &Event{} }}
var itemPool = sync.Pool{New: func() any { return &Item{} }}

var enqSeq uint64

// maxPooledBuffer controls the largest buffer size that will be returned
// to the pooled ByteBuffer. Buffers larger than this will be dropped to
// avoid unbounded resident memory.
var maxPooledBuffer int64 = 256 * 1024 // 256 KiB

// SetMaxPooledBuffer adjusts the pooled buffer retention cap.
func SetMaxPooledBuffer(n int64) {
	if n > 0 {
		atomic.StoreInt64(&maxPooledBuffer, n)
	}
}

// NewQueue creates a new bounded Queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{ch: make(chan *Item, capacity), capacity: capacity}
}

// Out returns a read-only channel that consumers can range over to receive
// queued items. The returned channel is the internal channel cast to
// read-only; do not close it from callers.
func (q *Queue) Out() <-chan *Item { return q.ch }

// TryEnqueue attempts to enqueue an Event by copying payload into a pooled
// buffer. If payload is nil it enqueues an Event without buffer ownership.
// If the queue is full ErrQueueFull is returned and the event is dropped.
func (q *Queue) TryEnqueue(ev *Event) error {
	// acquire an Event from the pool and copy fields
	newEv := eventPool.Get().(*Event)
	*newEv = *ev
	// copy Extras map shallowly to avoid sharing mutable maps
	if ev.Extras != nil {
		newMap := make(map[string]string, len(ev.Extras))
		for k, v := range ev.Extras {
			newMap[k] = v
		}
		newEv.Extras = newMap
	}
	// assign enqueue sequence
	newEv.EnqSeq = atomic.AddUint64(&enqSeq, 1)

	var bb *bytebufferpool.ByteBuffer
	if len(ev.Payload) > 0 {
		bb = bytebufferpool.Get()
		// copy payload into pooled buffer
		bb.B = append(bb.B[:0], ev.Payload...)
		newEv.Payload = bb.B[:len(ev.Payload)]
	}

	it := itemPool.Get().(*Item)
	*it = Item{Event: newEv, buf: bb}

	select {
	case q.ch <- it:
		return nil
	default:
		// return resources
		if bb != nil {
			bytebufferpool.Put(bb)
		}
		eventPool.Put(newEv)
		atomic.AddUint64(&q.dropped, 1)
		return ErrQueueFull
	}
}

// TryEnqueueBytes copies payload into a pooled buffer and enqueues a new
// Event constructed from the provided fields.
func (q *Queue) TryEnqueueBytes(typ EventType, actor, subject string, payload []byte, ts int64) error {
	return q.TryEnqueue(&Event{Type: typ, Actor: actor, Subject: subject, Payload: payload, TS: ts})
}

// Enqueue attempts to enqueue ev, blocking until space is available or the
// provided context is done. Returns ctx.Err() if the context expires.
func (q *Queue) Enqueue(ctx context.Context, ev *Event) error {
	// copy fields into pooled event
	newEv := eventPool.Get().(*Event)
	*newEv = *ev
	// assign enqueue sequence
	newEv.EnqSeq = atomic.AddUint64(&enqSeq, 1)
	if ev.Extras != nil {
		newMap := make(map[string]string, len(ev.Extras))
		for k, v := range ev.Extras {
			newMap[k] = v
		}
		newEv.Extras = newMap
	}

	var bb *bytebufferpool.ByteBuffer
	if len(ev.Payload) > 0 {
		bb = bytebufferpool.Get()
		bb.B = append(bb.B[:0], ev.Payload...)
		newEv.Payload = bb.B[:len(ev.Payload)]
	}
	it := itemPool.Get().(*Item)
	*it = Item{Event: newEv, buf: bb}

	select {
	case q.ch <- it:
		return nil
	case <-ctx.Done():
		if bb != nil {
			bytebufferpool.Put(bb)
		}
		eventPool.Put(newEv)
		atomic.AddUint64(&q.dropped, 1)
		return ctx.Err()
	}
}

// EnqueueBytes copies payload into a pooled buffer and enqueues a new Event constructed from the provided fields.
func (q *Queue) EnqueueBytes(ctx context.Context, typ EventType, actor, subject string, payload []byte, ts int64) error {
	return q.Enqueue(ctx, &Event{Type: typ, Actor: actor, Subject: subject, Payload: payload, TS: ts})
}

// CloseAndDrain closes the queue channel and drains remaining items,
// ensuring their resources are released.
func (q *Queue) CloseAndDrain() {
	close(q.ch)
	for it := range q.ch {
		it.Done()
	}
}

// RunWorker runs a worker loop that invokes handler for each dequeued
// Event. It guarantees Item.Done() is called even if handler returns an
// error. The worker exits when stop is closed or when the queue is closed.
func (q *Queue) RunWorker(stop <-chan struct{}, handler func(*Event) error) {
	for {
		select {
		case it, ok := <-q.ch:
			if !ok {
				return
			}
			func(it *Item) {
				defer it.Done()
				_ = handler(it.Event)
			}(it)
		case <-stop:
			return
		}
	}
}

// Len returns the current number of items in the queue.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the configured capacity of the queue.
func (q *Queue) Cap() int { return q.capacity }

// Dropped returns the number of events that were dropped due to a full
// queue or context cancellations during enqueue.
func (q *Queue) Dropped() uint64 { return atomic.LoadUint64(&q.dropped) }
