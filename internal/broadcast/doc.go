// Package broadcast implements the per-channel message bus.
//
// A Bus is a bounded ring buffer with one read cursor per subscription.
// Publishing never waits for readers: when the buffer is full the oldest
// message is overwritten, and a subscription whose cursor pointed at it
// reports a LagError with the number of messages it missed before resuming
// at the oldest retained message.
package broadcast
