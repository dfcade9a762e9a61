// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package urcu implements a deferred-reclamation engine for userspace
// read-copy-update. When a writer unlinks an object from a concurrently-read
// data structure, it cannot free the object immediately: some reader
// goroutine may still hold a live reference. urcu accepts reclamation
// requests from arbitrary producer goroutines and runs them from dedicated
// worker goroutines, each batch preceded by a full grace-period wait so no
// reader can still observe the pre-unlink state of any object in the batch.
//
// # Quick Start
//
// The common case needs no setup: DeferReclaim lazily creates a default
// worker on first use.
//
//	type Entry struct {
//	    urcu.ReclaimNode
//	    key, val int
//	}
//
//	func unlink(e *Entry) {
//	    // ... remove e from the live structure ...
//	    urcu.DeferReclaim(context.Background(), &e.ReclaimNode, func(n *urcu.ReclaimNode) {
//	        _ = urcu.NodeOwner[Entry](n) // the freed object; drop it
//	    })
//	}
//
// # Per-CPU fan-out
//
// High-throughput producers should spread reclamation across one worker per
// CPU rather than contending on the default worker's queue:
//
//	urcu.CreateAllCPURunners(0)
//	defer urcu.FreeAllCPURunners()
//
// # Per-goroutine override
//
// A goroutine that wants a dedicated worker — e.g. a single hot producer —
// attaches it to its own context. An override set this way wins the
// worker-selection race ahead of the per-CPU array:
//
//	r := urcu.CreateRunner(0, -1)
//	ctx := urcu.WithRunner(context.Background(), r)
//	urcu.DeferReclaim(ctx, &e.ReclaimNode, freeEntry)
//
// # Bounded shutdown
//
// DestroyRunner blocks until the worker's stop handshake completes.
// Callers that need a hard deadline on that wait — without abandoning the
// worker's pending callbacks — use DestroyRunnerContext instead:
//
//	if err := urcu.DestroyRunnerContext(ctx, r); err != nil {
//	    // ctx expired first; r still stops and its pending callbacks still
//	    // run, just not before this call returned.
//	}
//
// # Fork safety
//
// Go cannot intercept fork(2) transparently, so callers that fork the
// process around a raw fork primitive must bracket the call themselves:
//
//	urcu.BeforeFork()
//	pid := rawFork()
//	if pid == 0 {
//	    urcu.AfterForkChild()
//	} else {
//	    urcu.AfterForkParent()
//	}
//
// # Non-goals
//
// No ordering is promised across different workers' callbacks. Reclamation
// latency is unbounded under no-progress: the engine is throughput-oriented,
// not a real-time scheduler (FlagRT only trades the futex syscall's tail
// latency for a fixed poll interval, it does not bound latency). A callback
// that itself calls DeferReclaim is fully supported; the engine tolerates
// self-spawning indefinitely.
//
// # Dependencies
//
// This package uses [github.com/zoobzio/capitan] for structured event
// logging, [github.com/zoobzio/metricz] for counters and gauges,
// [github.com/zoobzio/tracez] for span tracing, [github.com/zoobzio/hookz]
// for lifecycle hooks, [github.com/zoobzio/clockz] for an injectable clock,
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering, [code.hybscloud.com/spin] for CPU pause instructions, and
// [golang.org/x/sys/unix] for the Linux futex and CPU-affinity syscalls.
package urcu
