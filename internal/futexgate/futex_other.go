// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package futexgate

import (
	"context"
	"sync"
	"sync/atomic"
	"unsafe"
)

// emulated backs Wait/wake on platforms without a futex syscall: a
// mutex-guarded condition variable per Gate, broadcast whenever Wake finds
// the gate sleeping, with
// Wait rechecking g.word under the lock exactly the way a real futex
// rechecks the expected value before actually parking.
type emulated struct {
	mu sync.Mutex
	c  *sync.Cond
}

func (g *Gate) emu() *emulated {
	e := (*emulated)(atomic.LoadPointer(&g.emuPtr))
	if e != nil {
		return e
	}
	e = &emulated{}
	e.c = sync.NewCond(&e.mu)
	if !atomic.CompareAndSwapPointer(&g.emuPtr, nil, unsafe.Pointer(e)) {
		e = (*emulated)(atomic.LoadPointer(&g.emuPtr))
	}
	return e
}

// Wait blocks while the gate's word still reads stateSleeping, waking early
// on a real Wake or on ctx cancellation. Must only be called after a
// successful CommitSleep.
func (g *Gate) Wait(ctx context.Context) {
	e := g.emu()
	if ctx != nil && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			atomic.CompareAndSwapInt32(&g.word, stateSleeping, stateAwake)
			e.mu.Lock()
			e.c.Broadcast()
			e.mu.Unlock()
		})
		defer stop()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for atomic.LoadInt32(&g.word) == stateSleeping {
		e.c.Wait()
	}
}

func (g *Gate) wake() {
	e := g.emu()
	e.mu.Lock()
	e.c.Broadcast()
	e.mu.Unlock()
}
