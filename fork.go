// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import (
	"context"
	"sync"

	"github.com/zoobzio/capitan"
)

// BeforeFork quiesces the engine ahead of a fork(2): every live worker is
// paused (queue left untouched, goroutine parked) so that no worker thread
// is caught mid-mutation of the registry or a queue's internal pointers in
// the single-threaded child. Acquires registry.mu and returns with it held,
// so that no concurrent CreateRunner/DestroyRunner can mutate the registry
// while the caller is mid-fork; the caller must follow with exactly one of
// AfterForkParent or AfterForkChild, which release it.
func BeforeFork() {
	registry.mu.Lock()
	for _, r := range snapshotRunnersLocked() {
		r.setFlag(flagPause)
		r.gate.Wake()
		for !r.hasFlag(flagPaused) {
			sleep(r.clock, r.pausePollInterval)
		}
	}
	capitan.Info(context.Background(), SignalForkQuiesced)
}

// AfterForkParent resumes every worker paused by BeforeFork, then releases
// registry.mu. Call this in the parent process immediately after fork(2)
// returns.
func AfterForkParent() {
	defer registry.mu.Unlock()
	for _, r := range snapshotRunnersLocked() {
		r.clearFlag(flagPause)
		for r.hasFlag(flagPaused) {
			sleep(r.clock, r.pausePollInterval)
		}
	}
}

// AfterForkChild releases registry.mu (inherited held from BeforeFork, never
// unlocked by a fork(2) that only clones the calling thread) and returns at
// once if no runner is registered. Otherwise it clears the registry before
// releasing the mutex, then rebuilds the engine state in a freshly forked
// child: the parent's worker goroutines
// do not exist in the child's address space, so each inherited CallbackRunner
// is force-destroyed (its queue spliced onto a freshly created default
// worker, bypassing the normal stop handshake that would otherwise wait
// forever on a goroutine that was never forked) and the registry is
// repopulated with workers the child actually owns.
func AfterForkChild() {
	stale := snapshotRunnersLocked()
	if len(stale) == 0 {
		registry.mu.Unlock()
		return
	}
	registry.head, registry.tail, registry.dflt = nil, nil, nil
	registry.dfltOnce = sync.Once{}
	registry.cpus = nil
	registry.maxCPUs = 0
	registry.mu.Unlock()

	domain = newDomain()
	dispatchReaders = sync.Pool{New: func() any { return domain.Register() }}

	GetDefaultRunner()
	for _, r := range stale {
		r.clearFlag(flagPause)
		r.clearFlag(flagPaused)
		destroyRunner(r, true)
	}

	capitan.Info(context.Background(), SignalForkChildRebuilt)
}

// snapshotRunnersLocked returns every registered runner. Caller must already
// hold registry.mu.
func snapshotRunnersLocked() []*CallbackRunner {
	var out []*CallbackRunner
	for r := registry.head; r != nil; r = r.next {
		out = append(out, r)
	}
	return out
}
