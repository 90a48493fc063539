//go:build linux

package wait

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

func loadUint32(addr *uint32) uint32 {
	return atomic.LoadUint32(addr)
}

// wait parks the calling goroutine on addr via FUTEX_WAIT until woken, the
// timeout elapses, or the kernel observes *addr has already changed (in
// which case it returns immediately with EAGAIN, which we treat as success:
// the caller re-checks its condition regardless).
func wait(addr *uint32, timeout time.Duration) {
	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(unix.FUTEX_WAIT),
		uintptr(loadUint32(addr)),
		uintptr(unsafe.Pointer(&ts)),
		0, 0,
	)
}

// wake wakes up to n goroutines parked on addr via FUTEX_WAKE.
func wake(addr *uint32, n int) {
	_, _, _ = unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(unix.FUTEX_WAKE),
		uintptr(n),
		0, 0, 0,
	)
}
