//go:build !linux

package wait

import (
	"sync"
	"time"
)

// broadcasters maps a header word address to the channel waiters on it park
// on. There is no futex outside Linux, so we fall back to a package-level
// registry of broadcast channels closed (and replaced) on every Wake.
var (
	broadcastMu sync.Mutex
	broadcasts  = map[*uint32]chan struct{}{}
)

func gate(addr *uint32) chan struct{} {
	broadcastMu.Lock()
	defer broadcastMu.Unlock()
	ch, ok := broadcasts[addr]
	if !ok {
		ch = make(chan struct{})
		broadcasts[addr] = ch
	}
	return ch
}

func wait(addr *uint32, timeout time.Duration) {
	ch := gate(addr)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
	}
}

func wake(addr *uint32, _ int) {
	broadcastMu.Lock()
	ch, ok := broadcasts[addr]
	if ok {
		close(ch)
	}
	broadcasts[addr] = make(chan struct{})
	broadcastMu.Unlock()
}
