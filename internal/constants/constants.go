// Package constants centralizes the structural and tunable values shared
// across the runtime: the channel header layout and the wait-loop timing
// floor.
package constants

import "time"

// Channel header layout: seven little-endian uint32 atomics followed by the
// slot ring.
const (
	OffsetCapacity         = 0
	OffsetWriteIndex       = 4
	OffsetReadIndex        = 8
	OffsetClosed           = 12
	OffsetSlotSize         = 16
	OffsetWaitingSenders   = 20
	OffsetWaitingReceivers = 24

	HeaderSize = 28

	// SlotLengthPrefixSize is the 32-bit length prefix at the start of every slot.
	SlotLengthPrefixSize = 4

	// MinSlotSize is the smallest slot_size create() will accept: four bytes
	// of length prefix plus at least four bytes of payload room.
	MinSlotSize = 8
)

// Default configuration constants.
const (
	// DefaultWaitTimeout bounds how long a blocked send/receive waits before
	// re-examining header state.
	DefaultWaitTimeout = 10 * time.Millisecond

	// DefaultChannelCapacity is used when a caller does not specify one.
	DefaultChannelCapacity = 16

	// DefaultSlotSize is used when a caller does not supply one and has not
	// sized the channel against a sample value.
	DefaultSlotSize = 256

	// TerminateGracePeriod is a suggested bound for a caller waiting on
	// Pool.Terminate before it turns to Pool.Kill. Terminate itself does not
	// read it: it waits for in-flight tasks without a deadline.
	TerminateGracePeriod = 2 * time.Second
)
