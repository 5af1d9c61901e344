package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrClosed is returned by a subscription once its bus is closed and every
	// message buffered before the close has been read.
	ErrClosed = errors.New("bus closed")

	// ErrEmpty is returned by Poll when no message is ready yet.
	ErrEmpty = errors.New("no message available")
)

// LagError reports that a subscription fell behind far enough for buffered
// messages to be overwritten before it read them. The subscription has
// already been moved to the oldest retained message.
type LagError struct {
	Skipped uint64
}

func (e *LagError) Error() string {
	return fmt.Sprintf("subscriber lagged by %d messages", e.Skipped)
}

// Bus is a fixed-capacity broadcast ring buffer. Any number of goroutines may
// publish concurrently, and every subscription reads the published sequence
// independently through its own cursor.
//
// The bus tracks a monotonically increasing sequence number. Message seq is
// stored in slot seq % capacity, and the retained window spans
// [head - min(head, capacity), head). A cursor below the window has lagged.
//
// All methods are safe for concurrent use.
type Bus struct {
	mutex    sync.Mutex
	slots    []string
	capacity uint64
	// head is the sequence number the next published message will get.
	head uint64
	// wake is closed and replaced on every publish and on close.
	wake        chan struct{}
	closed      bool
	subscribers int
}

// New creates a bus retaining at most capacity messages.
func New(capacity int) *Bus {
	if capacity < 1 {
		panic(fmt.Sprintf("broadcast: capacity must be positive, got %d", capacity))
	}
	return &Bus{
		slots:    make([]string, capacity),
		capacity: uint64(capacity),
		wake:     make(chan struct{}),
	}
}

// Publish appends msg, overwriting the oldest message when the buffer is
// full. It never blocks on subscribers. Publishing to a closed bus is a no-op.
func (b *Bus) Publish(msg string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return
	}

	b.slots[b.head%b.capacity] = msg
	b.head++

	close(b.wake)
	b.wake = make(chan struct{})
}

// Subscribe returns a subscription positioned at the current write head: it
// observes only messages published after this call.
func (b *Bus) Subscribe() *Subscription {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.subscribers++
	return &Subscription{bus: b, cursor: b.head}
}

// Close stops accepting messages and wakes every waiting subscription.
// Messages already buffered remain readable.
func (b *Bus) Close() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.wake)
}

// Closed reports whether Close has been called.
func (b *Bus) Closed() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.closed
}

// Capacity returns the fixed number of retained messages.
func (b *Bus) Capacity() int {
	return int(b.capacity)
}

// Len returns the number of messages currently retained.
func (b *Bus) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return int(min(b.head, b.capacity))
}

// Subscribers returns the number of open subscriptions.
func (b *Bus) Subscribers() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.subscribers
}

// oldest returns the sequence number of the oldest retained message.
// Caller must hold the mutex.
func (b *Bus) oldest() uint64 {
	return b.head - min(b.head, b.capacity)
}

// Subscription is a read cursor into a Bus. It must be used by a single
// goroutine.
type Subscription struct {
	bus    *Bus
	cursor uint64
	once   sync.Once
}

// Poll returns the next message without blocking. When nothing is ready it
// returns ErrEmpty together with a channel that is closed by the next publish
// or by Close; the caller waits on it and polls again.
//
// A *LagError is returned at most once per gap; the following Poll resumes at
// the oldest retained message.
func (s *Subscription) Poll() (string, <-chan struct{}, error) {
	b := s.bus
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if oldest := b.oldest(); s.cursor < oldest {
		skipped := oldest - s.cursor
		s.cursor = oldest
		return "", nil, &LagError{Skipped: skipped}
	}

	if s.cursor < b.head {
		msg := b.slots[s.cursor%b.capacity]
		s.cursor++
		return msg, nil, nil
	}

	if b.closed {
		return "", nil, ErrClosed
	}
	return "", b.wake, ErrEmpty
}

// Next blocks until a message is available, the subscription has lagged, the
// bus is closed, or ctx is done.
func (s *Subscription) Next(ctx context.Context) (string, error) {
	for {
		msg, wake, err := s.Poll()
		if !errors.Is(err, ErrEmpty) {
			return msg, err
		}

		select {
		case <-wake:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Close detaches the subscription from its bus. It is safe to call more than
// once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mutex.Lock()
		defer s.bus.mutex.Unlock()
		s.bus.subscribers--
	})
}
