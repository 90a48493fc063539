package gochan

import (
	"encoding/binary"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/EklabDev/gochan/internal/constants"
	"github.com/EklabDev/gochan/internal/interfaces"
	"github.com/EklabDev/gochan/internal/queue"
	"github.com/EklabDev/gochan/internal/wait"
)

// Channel is a shared-memory FIFO of byte-serialised values. Capacity 0
// makes it a rendezvous channel: a send does not commit until a receiver is
// parked. Capacity 1 or more makes it a bounded buffer.
//
// All header mutation goes through atomics on the backing buffer; the
// struct's own mutexes only serialise the multi-step reservation sequence
// (compute offset, write payload, publish index) among concurrent senders
// and among concurrent receivers.
type Channel struct {
	id  string
	buf []byte

	capacity uint32 // arithmetic capacity; rendezvous is treated as 1 here
	rendez   bool

	codec    Codec
	observer interfaces.Observer
	logger   interfaces.Logger

	sendMu sync.Mutex
	recvMu sync.Mutex
}

// ChannelConfig configures a new Channel.
type ChannelConfig struct {
	// ID optionally names the channel; Channel.ID returns it. Registration
	// with a Pool does not read it: Pool.RegisterChannel takes its own id,
	// and that id is what a shared task looks the channel up by.
	ID string

	// Capacity is the slot count. 0 creates a rendezvous channel.
	Capacity uint32

	// SlotSize is the byte budget per slot, including the 4-byte length
	// prefix. Must be at least constants.MinSlotSize. Zero selects
	// constants.DefaultSlotSize.
	SlotSize uint32

	Codec    Codec
	Observer interfaces.Observer
	Logger   interfaces.Logger
}

// DefaultChannelConfig returns a ChannelConfig with the package defaults.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		Capacity: constants.DefaultChannelCapacity,
		SlotSize: constants.DefaultSlotSize,
		Codec:    JSONCodec{},
	}
}

// NewChannel allocates a Channel's shared region and initialises its header.
func NewChannel(cfg ChannelConfig) (*Channel, error) {
	if cfg.SlotSize == 0 {
		cfg.SlotSize = constants.DefaultSlotSize
	}
	if cfg.SlotSize < constants.MinSlotSize {
		return nil, newError("NewChannel", CodeSerializationFailed,
			"slot_size must be at least "+strconv.Itoa(constants.MinSlotSize), nil)
	}
	if cfg.Codec == nil {
		cfg.Codec = JSONCodec{}
	}
	if cfg.Observer == nil {
		cfg.Observer = NoOpObserver{}
	}

	arithCapacity := cfg.Capacity
	rendez := cfg.Capacity == 0
	if rendez {
		arithCapacity = 1
	}

	regionSize := constants.HeaderSize + uint64(arithCapacity)*uint64(cfg.SlotSize)
	if regionSize > uint64(^uint(0)) {
		return nil, newError("NewChannel", CodeSerializationFailed, "region size overflows platform word", nil)
	}

	c := &Channel{
		id:       cfg.ID,
		buf:      make([]byte, regionSize),
		capacity: arithCapacity,
		rendez:   rendez,
		codec:    cfg.Codec,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}

	binary.LittleEndian.PutUint32(c.buf[constants.OffsetCapacity:], arithCapacity)
	binary.LittleEndian.PutUint32(c.buf[constants.OffsetSlotSize:], cfg.SlotSize)
	return c, nil
}

// ID returns the channel's registration name, or "" if it was created
// without one.
func (c *Channel) ID() string { return c.id }

func (c *Channel) word(offset int) *uint32 {
	return (*uint32)(unsafe.Pointer(&c.buf[offset]))
}

func (c *Channel) writeIndexWord() *uint32       { return c.word(constants.OffsetWriteIndex) }
func (c *Channel) readIndexWord() *uint32        { return c.word(constants.OffsetReadIndex) }
func (c *Channel) closedWord() *uint32           { return c.word(constants.OffsetClosed) }
func (c *Channel) slotSizeWord() *uint32         { return c.word(constants.OffsetSlotSize) }
func (c *Channel) waitingSendersWord() *uint32   { return c.word(constants.OffsetWaitingSenders) }
func (c *Channel) waitingReceiversWord() *uint32 { return c.word(constants.OffsetWaitingReceivers) }

func (c *Channel) slotSize() uint32 { return atomic.LoadUint32(c.slotSizeWord()) }

// Send serialises value with the channel's codec and commits it as the next
// slot, blocking while the buffer is full (or, for a rendezvous channel,
// while no receiver is parked).
func (c *Channel) Send(value any) error {
	start := time.Now()
	err := c.send(value)
	c.observer.ObserveSend(uint64(len(c.buf)), uint64(time.Since(start).Nanoseconds()), err == nil)
	return err
}

func (c *Channel) send(value any) error {
	payload, err := c.codec.Marshal(value)
	if err != nil {
		return newError("Send", CodeSerializationFailed, err.Error(), err)
	}
	if uint32(len(payload)) > c.slotSize()-constants.SlotLengthPrefixSize {
		return newError("Send", CodePayloadTooLarge, "", nil)
	}

	for {
		if atomic.LoadUint32(c.closedWord()) == 1 {
			return newError("Send", CodeClosed, "", nil)
		}

		writeIdx := atomic.LoadUint32(c.writeIndexWord())
		readIdx := atomic.LoadUint32(c.readIndexWord())
		inFlight := writeIdx - readIdx

		needsReceiver := c.rendez && atomic.LoadUint32(c.waitingReceiversWord()) == 0
		if needsReceiver || inFlight >= c.capacity {
			atomic.AddUint32(c.waitingSendersWord(), 1)
			wait.On(c.waitingSendersWord()).Wait(time.Now().Add(wait.Floor))
			atomic.AddUint32(c.waitingSendersWord(), ^uint32(0)) // -1
			continue
		}

		if c.trySend(writeIdx, payload) {
			wait.On(c.waitingReceiversWord()).Wake(1)
			return nil
		}
		// Lost the race for this slot; another sender committed first. Retry.
	}
}

// trySend reserves writeIdx under sendMu, writes the payload, and
// release-stores the incremented write_index. It reports false if writeIdx
// is no longer the current write_index (another sender already advanced
// it), so the caller retries from a fresh read.
func (c *Channel) trySend(writeIdx uint32, payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if atomic.LoadUint32(c.writeIndexWord()) != writeIdx {
		return false
	}

	offset := constants.HeaderSize + uint64(writeIdx%c.capacity)*uint64(c.slotSize())
	binary.LittleEndian.PutUint32(c.buf[offset:], uint32(len(payload)))
	copy(c.buf[offset+constants.SlotLengthPrefixSize:], payload)

	atomic.StoreUint32(c.writeIndexWord(), writeIdx+1) // release-store
	return true
}

// Receive consumes the next committed slot and deserialises it, blocking
// while the channel is empty and open.
func (c *Channel) Receive() (any, error) {
	start := time.Now()
	v, err := c.receive()
	c.observer.ObserveReceive(uint64(len(c.buf)), uint64(time.Since(start).Nanoseconds()), err == nil)
	return v, err
}

func (c *Channel) receive() (any, error) {
	for {
		readIdx := atomic.LoadUint32(c.readIndexWord())
		writeIdx := atomic.LoadUint32(c.writeIndexWord()) // acquire-load

		if readIdx == writeIdx {
			if atomic.LoadUint32(c.closedWord()) == 1 {
				return nil, newError("Receive", CodeClosedAndEmpty, "", nil)
			}
			atomic.AddUint32(c.waitingReceiversWord(), 1)
			wait.On(c.waitingSendersWord()).Wake(1) // let a parked rendezvous sender notice waiting_receivers > 0
			wait.On(c.waitingReceiversWord()).Wait(time.Now().Add(wait.Floor))
			atomic.AddUint32(c.waitingReceiversWord(), ^uint32(0))
			continue
		}

		staged, ok := c.tryReceive(readIdx)
		if !ok {
			continue
		}
		wait.On(c.waitingSendersWord()).Wake(1)

		var value any
		err := c.codec.Unmarshal(staged, &value)
		queue.PutBuffer(staged)
		if err != nil {
			return nil, newError("Receive", CodeDeserializationFailed, err.Error(), err)
		}
		return value, nil
	}
}

// tryReceive stages the slot's payload into a pooled buffer so a steady
// stream of small receives doesn't allocate one slice per call. The
// returned buffer is owned by the caller, which must hand it to
// queue.PutBuffer once the codec is done with it.
func (c *Channel) tryReceive(readIdx uint32) ([]byte, bool) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	if atomic.LoadUint32(c.readIndexWord()) != readIdx {
		return nil, false
	}

	offset := constants.HeaderSize + uint64(readIdx%c.capacity)*uint64(c.slotSize())
	length := binary.LittleEndian.Uint32(c.buf[offset:])
	staged := queue.GetBuffer(length)
	copy(staged, c.buf[offset+constants.SlotLengthPrefixSize:offset+constants.SlotLengthPrefixSize+uint64(length)])

	atomic.StoreUint32(c.readIndexWord(), readIdx+1) // release-store
	return staged, true
}

// Close marks the channel closed and wakes every waiter. Idempotent.
func (c *Channel) Close() error {
	if !atomic.CompareAndSwapUint32(c.closedWord(), 0, 1) {
		return nil
	}
	c.observer.ObserveClose()
	const wakeAll = 1 << 30 // larger than any realistic waiter count
	wait.On(c.waitingSendersWord()).Wake(wakeAll)
	wait.On(c.waitingReceiversWord()).Wake(wakeAll)
	return nil
}

// IsClosed is an advisory, read-only snapshot of the closed flag.
func (c *Channel) IsClosed() bool {
	return atomic.LoadUint32(c.closedWord()) == 1
}

// HasData is an advisory, read-only snapshot of whether a receive would
// currently succeed without blocking.
func (c *Channel) HasData() bool {
	return atomic.LoadUint32(c.readIndexWord()) != atomic.LoadUint32(c.writeIndexWord())
}

// Cap reports the channel's configured capacity. A rendezvous channel (the
// capacity passed to NewChannel was 0) reports 0 here even though its
// internal slot arithmetic uses 1.
func (c *Channel) Cap() uint32 {
	if c.rendez {
		return 0
	}
	return c.capacity
}
