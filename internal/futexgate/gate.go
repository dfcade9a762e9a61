// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package futexgate

import (
	"sync/atomic"
	"unsafe"
)

const (
	stateAwake    int32 = 0
	stateSleeping int32 = -1
)

// Gate is a single-waiter sleep/wake point. The zero value is ready to use.
//
// Commit/CancelSleep/Wait is the three-step sequence a worker follows once
// it has found nothing to do:
//
//	if !g.CommitSleep() {
//	        continue // gate was not awake; recheck for work
//	}
//	if workerHasWorkNow() {
//	        g.CancelSleep()
//	        continue
//	}
//	g.Wait(ctx)
//
// A producer that just published work calls Wake, unconditionally and
// without checking whether anyone is actually sleeping; Wake is a no-op
// when the gate is already awake.
//
// word is a bare int32 rather than an atomix type: the Linux backend passes
// its address straight into the futex(2) syscall, which operates on raw
// process memory and has no notion of atomix's wrapper types.
//
// emuPtr is unused on Linux; the portable fallback backend lazily installs
// a *emulated condition variable here on first wait.
type Gate struct {
	word   int32
	emuPtr unsafe.Pointer
}

// CommitSleep transitions the gate from awake to sleeping. It reports false
// if the gate was not awake (it already reads sleeping), in which case the
// caller must not call Wait.
func (g *Gate) CommitSleep() bool {
	return atomic.CompareAndSwapInt32(&g.word, stateAwake, stateSleeping)
}

// CancelSleep reverts a CommitSleep that the caller decided not to follow
// through on, without going through a kernel wait call.
func (g *Gate) CancelSleep() {
	atomic.StoreInt32(&g.word, stateAwake)
}

// Wake transitions the gate to awake and, if it was sleeping, wakes the
// blocked waiter. Always safe to call with no one asleep.
func (g *Gate) Wake() {
	if atomic.CompareAndSwapInt32(&g.word, stateSleeping, stateAwake) {
		g.wake()
	}
}
