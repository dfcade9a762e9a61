// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package futexgate

import (
	"context"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	futexWaitPrivate = unix.FUTEX_WAIT | unix.FUTEX_PRIVATE_FLAG
	futexWakePrivate = unix.FUTEX_WAKE | unix.FUTEX_PRIVATE_FLAG
)

// pollInterval bounds how long a single FUTEX_WAIT call blocks before
// re-checking ctx.Done. A real wake always short-circuits this; it only
// matters for cancellation latency.
const pollInterval = 200 * time.Millisecond

// Wait blocks while the gate's word still reads stateSleeping, waking early
// on a real Wake or on ctx cancellation. Must only be called after a
// successful CommitSleep.
func (g *Gate) Wait(ctx context.Context) {
	ts := unix.Timespec{
		Sec:  int64(pollInterval / time.Second),
		Nsec: int64(pollInterval % time.Second),
	}
	for atomic.LoadInt32(&g.word) == stateSleeping {
		if ctx.Err() != nil {
			atomic.CompareAndSwapInt32(&g.word, stateSleeping, stateAwake)
			return
		}
		_, _, errno := unix.Syscall6(
			unix.SYS_FUTEX,
			uintptr(unsafe.Pointer(&g.word)),
			uintptr(futexWaitPrivate),
			uintptr(stateSleeping),
			uintptr(unsafe.Pointer(&ts)),
			0, 0,
		)
		if errno != 0 && errno != unix.EAGAIN && errno != unix.EINTR && errno != unix.ETIMEDOUT {
			return
		}
	}
}

func (g *Gate) wake() {
	unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(&g.word)),
		uintptr(futexWakePrivate),
		1,
		0, 0, 0,
	)
}
