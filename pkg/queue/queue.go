package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Queue errors.
var (
	// ErrClosed is returned when enqueueing into a closed queue.
	ErrClosed = errors.New("queue is closed")
)

// Queue constants.
const (
	// DefaultLaneBuffer is the default per-target lane capacity.
	DefaultLaneBuffer = 16
)

// Send is one outbound send operation.
type Send struct {
	// ID identifies the send across queue and transport.
	ID string

	// Target is the destination conversation.
	Target string

	// Payload is the encoded frame handed to the transport.
	Payload []byte

	// EnqueuedAt is set by the queue on submission.
	EnqueuedAt time.Time
}

// Sender hands one send to the transport. A nil error means the
// transport accepted the frame.
type Sender func(ctx context.Context, send *Send) error

// Config holds queue parameters.
type Config struct {
	// LaneBuffer is the per-target lane capacity.
	LaneBuffer int
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{
		LaneBuffer: DefaultLaneBuffer,
	}
}

// item pairs a send with the channel its caller blocks on.
type item struct {
	ctx    context.Context
	send   *Send
	result chan error
}

// lane is one target's FIFO channel. Lanes live until Close; the
// per-target worker count is bounded by the number of distinct
// targets a session talks to.
type lane struct {
	items chan *item
}

// Queue dispatches sends to the transport, one FIFO lane per target.
type Queue struct {
	mu     sync.Mutex
	config Config
	sender Sender
	lanes  map[string]*lane
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a queue dispatching through sender.
func New(sender Sender) *Queue {
	return NewWithConfig(sender, DefaultConfig())
}

// NewWithConfig creates a queue with explicit parameters.
// Zero values fall back to the defaults.
func NewWithConfig(sender Sender, config Config) *Queue {
	if config.LaneBuffer <= 0 {
		config.LaneBuffer = DefaultLaneBuffer
	}
	return &Queue{
		config: config,
		sender: sender,
		lanes:  make(map[string]*lane),
		done:   make(chan struct{}),
	}
}

// Enqueue submits a send and blocks until the transport accepts or
// rejects it, or ctx is done. Sends to the same target dispatch in
// submission order; distinct targets interleave.
//
// A missing ID is filled in with a fresh UUID.
func (q *Queue) Enqueue(ctx context.Context, send *Send) error {
	if send.ID == "" {
		send.ID = uuid.NewString()
	}
	send.EnqueuedAt = time.Now()

	it := &item{
		ctx:    ctx,
		send:   send,
		result: make(chan error, 1),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	ln, ok := q.lanes[send.Target]
	if !ok {
		ln = &lane{items: make(chan *item, q.config.LaneBuffer)}
		q.lanes[send.Target] = ln
		q.wg.Add(1)
		go q.work(ln)
	}
	q.mu.Unlock()

	select {
	case ln.items <- it:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrClosed
	}

	select {
	case err := <-it.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		// The worker may have dispatched the send just before
		// shutdown; prefer that outcome when present.
		select {
		case err := <-it.result:
			return err
		default:
			return ErrClosed
		}
	}
}

// Pending returns the number of sends waiting in the target's lane.
func (q *Queue) Pending(target string) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	ln, ok := q.lanes[target]
	if !ok {
		return 0
	}
	return len(ln.items)
}

// Close shuts the queue down. Waiting sends fail with ErrClosed.
// Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	q.mu.Unlock()

	q.wg.Wait()
}

// work drains one lane until the queue closes.
func (q *Queue) work(ln *lane) {
	defer q.wg.Done()

	for {
		select {
		case it := <-ln.items:
			q.dispatch(it)
		case <-q.done:
			q.drainClosed(ln)
			return
		}
	}
}

// dispatch hands one item to the sender and unblocks its caller.
func (q *Queue) dispatch(it *item) {
	select {
	case <-it.ctx.Done():
		it.result <- it.ctx.Err()
		return
	default:
	}
	it.result <- q.sender(it.ctx, it.send)
}

// drainClosed fails every item left in a closed lane.
func (q *Queue) drainClosed(ln *lane) {
	for {
		select {
		case it := <-ln.items:
			it.result <- ErrClosed
		default:
			return
		}
	}
}
