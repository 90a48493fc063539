package gochan

// ChannelIterator is a lazy, restartable traversal over a Channel's
// successive received values. It is equivalent to looping on Receive until
// ClosedAndEmpty, exposed as a single-consumer-at-a-time sequence so
// callers can range over a Channel without hand-rolling that loop.
//
// An iterator holds no buffered state of its own beyond the last result:
// cancelling one (simply discarding it without draining to ClosedAndEmpty)
// leaves the channel otherwise unchanged, since every value it already
// yielded was already consumed by the underlying Receive call.
type ChannelIterator struct {
	ch      *Channel
	current any
	err     error
	done    bool
}

// Iterate returns a ChannelIterator over c.
func (c *Channel) Iterate() *ChannelIterator {
	return &ChannelIterator{ch: c}
}

// Next advances the iterator, blocking as Receive would. It returns false
// when the channel has been closed and drained, or when a deserialisation
// error occurs; either way Err distinguishes the two afterward.
func (it *ChannelIterator) Next() bool {
	if it.done {
		return false
	}
	v, err := it.ch.Receive()
	if err != nil {
		it.done = true
		if !IsCode(err, CodeClosedAndEmpty) {
			it.err = err
		}
		return false
	}
	it.current = v
	return true
}

// Value returns the value produced by the most recent successful Next.
func (it *ChannelIterator) Value() any { return it.current }

// Err returns the error that stopped iteration, or nil if it stopped
// because the channel closed and drained normally.
func (it *ChannelIterator) Err() error { return it.err }
