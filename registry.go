// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import (
	"context"
	"runtime"
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"
)

// domain is the engine's own RCU domain, consumed only through the Domain
// interface (see interfaces.go) so this package never names rcu's concrete
// types directly. It has nothing to do with any caller's application data:
// clearing a per-CPU slot waits on it so that a concurrent dispatch that
// picked the evicted worker has finished enqueueing, and it is what every
// worker's drain loop waits on before invoking callbacks. A worker is a
// registered reader for the span between waking up and going back to sleep;
// a dispatch call checks out a pooled reader for the short span of picking
// a target worker.
var domain Domain = newDomain()

// dispatchReaders holds engine readers used only for the brief read section
// inside DeferReclaim and GetCPURunner. Reused across calls the
// way a real userspace RCU implementation reuses one reader per thread,
// rather than registering and unregistering on every call.
var dispatchReaders = sync.Pool{
	New: func() any { return domain.Register() },
}

func withReadSection(fn func()) {
	r := dispatchReaders.Get().(Reader)
	r.Online()
	fn()
	r.Offline()
	dispatchReaders.Put(r)
}

// registry is the process-wide set of live runners: a doubly linked list for
// iteration/teardown, a default runner created lazily on first use, and a
// per-CPU slot array.
type registryT struct {
	mu       sync.Mutex
	head     *CallbackRunner // sentinel-free; nil when empty
	tail     *CallbackRunner
	dflt     *CallbackRunner
	dfltOnce sync.Once
	cpus     []atomix.Uintptr
	maxCPUs  int
}

var registry registryT

func (reg *registryT) link(r *CallbackRunner) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r.prev = reg.tail
	r.next = nil
	if reg.tail != nil {
		reg.tail.next = r
	} else {
		reg.head = r
	}
	reg.tail = r
}

func (reg *registryT) unlink(r *CallbackRunner) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r.prev != nil {
		r.prev.next = r.next
	} else if reg.head == r {
		reg.head = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	} else if reg.tail == r {
		reg.tail = r.prev
	}
	r.prev, r.next = nil, nil
}

func (reg *registryT) ensureCPUSlots(n int) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.maxCPUs >= n {
		return
	}
	grown := make([]atomix.Uintptr, n)
	copy(grown, reg.cpus)
	reg.cpus = grown
	reg.maxCPUs = n
}

// CreateRunner creates and starts a new worker with the given flags, pinned
// to cpu (negative for unpinned).
func CreateRunner(flags Flag, cpu int) *CallbackRunner {
	return CreateRunnerWithOptions(Options{RT: flags.has(FlagRT), CPU: cpu})
}

// CreateRunnerWithOptions creates and starts a new worker using the full
// Options surface (clock override, poll intervals, realtime mode, CPU pin).
func CreateRunnerWithOptions(opts Options) *CallbackRunner {
	r := newRunner(opts)
	registry.link(r)
	startRunner(r)
	return r
}

// GetDefaultRunner returns the process-wide default worker, creating it on
// first use.
func GetDefaultRunner() *CallbackRunner {
	registry.dfltOnce.Do(func() {
		d := newRunner(Options{CPU: -1})
		registry.link(d)
		startRunner(d)
		registry.mu.Lock()
		registry.dflt = d
		registry.mu.Unlock()
	})
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return registry.dflt
}

// GetCPURunner returns the worker currently assigned to cpu, if any. It
// holds registry.mu briefly while reading the slot, so the read side is not
// lock-free.
func GetCPURunner(cpu int) (*CallbackRunner, error) {
	if cpu < 0 {
		return nil, ErrInvalid
	}
	var r *CallbackRunner
	withReadSection(func() {
		registry.mu.Lock()
		defer registry.mu.Unlock()
		if cpu >= registry.maxCPUs {
			return
		}
		addr := registry.cpus[cpu].LoadAcquire()
		if addr != 0 {
			r = (*CallbackRunner)(unsafe.Pointer(addr))
		}
	})
	return r, nil
}

// SetCPURunner assigns r to cpu's slot. Returns ErrExists if the slot is
// already assigned and ErrInvalid if cpu is negative; the slot array grows
// to fit any non-negative cpu. Passing a nil r clears the slot and, if it
// was occupied, waits one grace period before returning.
func SetCPURunner(cpu int, r *CallbackRunner) error {
	if cpu < 0 {
		return ErrInvalid
	}
	registry.ensureCPUSlots(cpu + 1)

	registry.mu.Lock()
	slot := &registry.cpus[cpu]
	registry.mu.Unlock()

	var addr uintptr
	if r != nil {
		addr = uintptr(unsafe.Pointer(r))
	}
	if !slot.CompareAndSwapAcqRel(0, addr) {
		if addr == 0 {
			old := slot.LoadAcquire()
			slot.StoreRelease(0)
			if old != 0 {
				domain.WaitForGracePeriod()
			}
			return nil
		}
		return ErrExists
	}
	return nil
}

// CreateAllCPURunners creates one worker per available CPU and assigns each
// to its matching per-CPU slot. Idempotent: a slot that is already populated
// is left untouched, and a concurrent caller racing to populate the same
// slot loses gracefully (its redundant runner is destroyed, and the loop
// continues on to the remaining CPUs instead of aborting the whole call).
func CreateAllCPURunners(flags Flag) error {
	n := runtime.NumCPU()
	registry.ensureCPUSlots(n)
	for cpu := 0; cpu < n; cpu++ {
		if existing, _ := GetCPURunner(cpu); existing != nil {
			continue
		}
		r := CreateRunner(flags, cpu)
		if err := SetCPURunner(cpu, r); err != nil {
			DestroyRunner(r)
			if IsExists(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// FreeAllCPURunners destroys every worker currently assigned to a per-CPU
// slot and clears the array.
func FreeAllCPURunners() {
	registry.mu.Lock()
	n := registry.maxCPUs
	registry.mu.Unlock()

	for cpu := 0; cpu < n; cpu++ {
		r, _ := GetCPURunner(cpu)
		if r == nil {
			continue
		}
		_ = SetCPURunner(cpu, nil)
		DestroyRunner(r)
	}
}

// DestroyRunner stops r, splices any leftover queued callbacks onto the
// default worker, and removes r from the registry. Destroying the default
// worker or a nil runner is a no-op. Blocks until the stop handshake
// completes; use DestroyRunnerContext for a bounded wait.
func DestroyRunner(r *CallbackRunner) {
	destroyRunner(r, false)
}

// DestroyRunnerContext behaves like DestroyRunner, but bounds only the
// caller's wait on the stop handshake by ctx. If ctx is done first, the
// worker still stops and its pending callbacks are still spliced onto the
// default worker and invoked in due course; the caller is simply not kept
// waiting for that to happen. Returns nil if the handshake completed before
// ctx was done, otherwise ctx.Err().
func DestroyRunnerContext(ctx context.Context, r *CallbackRunner) error {
	if r == nil {
		return nil
	}
	registry.mu.Lock()
	isDefault := r == registry.dflt
	registry.mu.Unlock()
	if isDefault {
		return nil
	}

	r.setFlag(flagStop)
	r.gate.Wake()

	select {
	case <-r.done:
		spliceAndUnlink(r)
		return nil
	case <-ctx.Done():
		go func() {
			<-r.done
			spliceAndUnlink(r)
		}()
		return ctx.Err()
	}
}

func destroyRunner(r *CallbackRunner, forced bool) {
	if r == nil {
		return
	}
	registry.mu.Lock()
	isDefault := r == registry.dflt
	registry.mu.Unlock()
	if isDefault {
		return
	}

	r.setFlag(flagStop)
	if !forced {
		r.gate.Wake()
		for !r.hasFlag(flagStopped) {
			sleep(r.clock, r.pausePollInterval)
		}
		<-r.done
	}

	spliceAndUnlink(r)
}

// spliceAndUnlink moves r's remaining queue onto the default worker and
// removes r from the registry. r's own goroutine must already have exited
// (done closed, or forcibly bypassed on the fork-child path) before this
// runs: nothing else drains r's queue concurrently once this is called.
func spliceAndUnlink(r *CallbackRunner) {
	dflt := GetDefaultRunner()
	moved := r.queue.SpliceInto(dflt.queue, backoff())
	if moved > 0 {
		dflt.qlen.Add(int64(moved))
		dflt.metrics.Gauge(MetricQueueLen).Set(float64(dflt.qlen.Load()))
		dflt.gate.Wake()
		_ = r.hooks.Emit(context.Background(), EventRunnerSpliced, RunnerEvent{
			CPU: r.cpuAffinity, BatchSize: moved, Timestamp: r.clock.Now(),
		})
	}

	registry.unlink(r)
	_ = r.hooks.Emit(context.Background(), EventRunnerDestroyed, RunnerEvent{
		CPU: r.cpuAffinity, Timestamp: r.clock.Now(),
	})
	r.tracer.Close()
	r.hooks.Close()
}
