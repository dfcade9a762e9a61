// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"code.hybscloud.com/urcu/internal/futexgate"
	"code.hybscloud.com/urcu/internal/wfq"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// pad is cache line padding to prevent false sharing between a runner's hot
// atomic fields and its cold bookkeeping fields.
type pad [64]byte

// CallbackRunner is one reclamation worker: a queue, a sleep gate, a flags
// word, and a dedicated goroutine locked to its own OS thread. Create with
// CreateRunner or CreateRunnerWithOptions; destroy with DestroyRunner.
type CallbackRunner struct {
	_     pad
	queue *wfq.Queue
	gate  futexgate.Gate
	flags atomix.Uint32
	qlen  atomix.Int64
	_     pad

	cpuAffinity       int
	reader            Reader
	clock             clockz.Clock
	pausePollInterval time.Duration
	idlePollInterval  time.Duration

	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[RunnerEvent]

	prev, next *CallbackRunner // registry intrusive link, guarded by registry.mu

	done chan struct{}
}

func newRunner(opts Options) *CallbackRunner {
	metrics := metricz.New()
	metrics.Counter(MetricEnqueuedTotal)
	metrics.Counter(MetricInvokedTotal)
	metrics.Counter(MetricWokenTotal)
	metrics.Gauge(MetricQueueLen)

	r := &CallbackRunner{
		queue:             wfq.New(),
		cpuAffinity:       opts.CPU,
		clock:             opts.clock(),
		pausePollInterval: opts.pausePollInterval(),
		idlePollInterval:  opts.idlePollInterval(),
		metrics:           metrics,
		tracer:            tracez.New(),
		hooks:             hookz.New[RunnerEvent](),
		done:              make(chan struct{}),
	}
	if opts.RT {
		r.flags.StoreRelease(uint32(FlagRT))
	}
	return r
}

// startRunner brings a freshly constructed runner to the Created state and
// spawns its dedicated goroutine.
func startRunner(r *CallbackRunner) {
	r.reader = domain.Register()
	go r.loop()
}

// Metrics returns this runner's metric registry (enqueued/invoked/woken
// counters, qlen gauge).
func (r *CallbackRunner) Metrics() *metricz.Registry { return r.metrics }

// Tracer returns this runner's tracer (drain/grace-period/invoke spans).
func (r *CallbackRunner) Tracer() *tracez.Tracer { return r.tracer }

// Hooks returns this runner's lifecycle hooks (pause/resume/stop/destroy/splice).
func (r *CallbackRunner) Hooks() *hookz.Hooks[RunnerEvent] { return r.hooks }

// QueueLen returns the runner's best-effort pending-callback count. Debug
// and observability only; not a correctness signal.
func (r *CallbackRunner) QueueLen() int64 { return r.qlen.Load() }

func (r *CallbackRunner) setFlag(bit Flag) {
	for {
		old := r.flags.LoadAcquire()
		if old&uint32(bit) != 0 {
			return
		}
		if r.flags.CompareAndSwapAcqRel(old, old|uint32(bit)) {
			return
		}
	}
}

func (r *CallbackRunner) clearFlag(bit Flag) {
	for {
		old := r.flags.LoadAcquire()
		if old&uint32(bit) == 0 {
			return
		}
		if r.flags.CompareAndSwapAcqRel(old, old&^uint32(bit)) {
			return
		}
	}
}

func (r *CallbackRunner) hasFlag(bit Flag) bool {
	return Flag(r.flags.LoadAcquire()).has(bit)
}

// enqueue appends node to this runner's queue, bumps qlen, and wakes the
// worker if it is asleep. Safe for any number of concurrent producers.
func (r *CallbackRunner) enqueue(node *ReclaimNode) {
	r.queue.Enqueue(nodeToLink(node))
	r.qlen.Add(1)
	r.metrics.Counter(MetricEnqueuedTotal).Inc()
	r.metrics.Gauge(MetricQueueLen).Set(float64(r.qlen.Load()))
	if !r.hasFlag(FlagRT) {
		r.gate.Wake()
		r.metrics.Counter(MetricWokenTotal).Inc()
		capitan.Info(context.Background(), SignalDispatchWake,
			FieldQueueLen.Field(int(r.qlen.Load())),
			FieldTimestamp.Field(float64(r.clock.Now().Unix())),
		)
	}
}

// backoff returns a fresh spin-then-yield callback for one Drain/SpliceInto
// call, handed to wfq to back off on the narrow producer-race window where
// a concurrent Enqueue has claimed its slot but not yet stored its link.
// A new spin.Wait per call matches the teacher's own per-loop backoff
// state; sharing one across calls would carry stale backoff into unrelated
// waits.
func backoff() func() {
	sw := spin.Wait{}
	return sw.Once
}

// sleep blocks for d on clock's own notion of time, the way every poll
// interval in this package is driven so tests can substitute a fake clock
// instead of waiting on the wall clock.
func sleep(clock clockz.Clock, d time.Duration) {
	<-clock.After(d)
}

// loop is the worker's main goroutine. Locked to its OS thread for the
// entire lifetime of the runner so CPU-affinity syscalls are meaningful.
func (r *CallbackRunner) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if r.cpuAffinity >= 0 {
		if err := pinToCPU(r.cpuAffinity); err != nil {
			if errors.Is(err, errAffinityUnsupported) {
				capitan.Warn(context.Background(), SignalFatalAbort,
					FieldOp.Field("pin_cpu"),
					FieldCPU.Field(r.cpuAffinity),
					FieldError.Field(err.Error()),
				)
			} else {
				abortf("pin_cpu", err)
			}
		}
	}

	capitan.Info(context.Background(), SignalRunnerCreated,
		FieldCPU.Field(r.cpuAffinity),
		FieldFlags.Field(int(r.flags.LoadAcquire())),
		FieldTimestamp.Field(float64(r.clock.Now().Unix())),
	)

	for {
		if r.hasFlag(flagPause) {
			r.reader.Unregister()
			r.setFlag(flagPaused)
			_ = r.hooks.Emit(context.Background(), EventRunnerPaused, RunnerEvent{
				CPU: r.cpuAffinity, Timestamp: r.clock.Now(),
			})
			for r.hasFlag(flagPause) {
				sleep(r.clock, r.pausePollInterval)
			}
			r.reader = domain.Register()
			r.clearFlag(flagPaused)
			_ = r.hooks.Emit(context.Background(), EventRunnerResumed, RunnerEvent{
				CPU: r.cpuAffinity, Timestamp: r.clock.Now(),
			})
		}

		r.reader.Online()

		ctx, drainSpan := r.tracer.StartSpan(context.Background(), RunnerDrainSpan)
		var pending []*ReclaimNode
		r.queue.Drain(func(n *wfq.Node) {
			pending = append(pending, linkToNode(n))
		}, backoff())
		batch := len(pending)
		drainSpan.SetTag(TagBatchSize, fmt.Sprintf("%d", batch))
		drainSpan.Finish()

		if batch > 0 {
			_, gpSpan := r.tracer.StartSpan(ctx, RunnerGracePeriodSpan)
			r.reader.Offline()
			domain.WaitForGracePeriod()
			r.reader.Online()
			gpSpan.Finish()

			_, invokeSpan := r.tracer.StartSpan(ctx, RunnerInvokeSpan)
			r.invokeBatch(pending)
			invokeSpan.SetTag(TagBatchSize, fmt.Sprintf("%d", batch))
			invokeSpan.Finish()

			r.qlen.Add(int64(-batch))
			r.metrics.Gauge(MetricQueueLen).Set(float64(r.qlen.Load()))
		}

		if r.hasFlag(flagStop) {
			break
		}

		r.reader.Offline()

		if r.hasFlag(FlagRT) {
			sleep(r.clock, r.idlePollInterval)
			continue
		}

		if r.gate.CommitSleep() {
			if r.queue.Empty() && !r.hasFlag(flagStop|flagPause) {
				r.gate.Wait(context.Background())
			} else {
				r.gate.CancelSleep()
			}
		}
	}

	r.gate.CancelSleep()
	r.setFlag(flagStopped)
	r.reader.Unregister()
	close(r.done)

	capitan.Info(context.Background(), SignalRunnerStopped,
		FieldCPU.Field(r.cpuAffinity),
		FieldTimestamp.Field(float64(r.clock.Now().Unix())),
	)
	_ = r.hooks.Emit(context.Background(), EventRunnerStopped, RunnerEvent{
		CPU: r.cpuAffinity, Timestamp: r.clock.Now(),
	})
}

// invokeBatch calls each drained node's Fn in FIFO order. Fn panics are not
// recovered: a broken callback crashes this worker's goroutine by contract,
// the same way a panicking handler crashes any other goroutine.
func (r *CallbackRunner) invokeBatch(pending []*ReclaimNode) {
	for _, n := range pending {
		n.fn(n)
		r.metrics.Counter(MetricInvokedTotal).Inc()
	}
}

// abortf routes an unrecoverable OS-level failure through capitan.Error and
// aborts the process. The reclamation engine cannot sensibly recover from a
// broken host mid-callback.
func abortf(op string, err error) {
	fe := &FatalError{Op: op, Err: err}
	capitan.Error(context.Background(), SignalFatalAbort,
		FieldOp.Field(op),
		FieldError.Field(fe.Error()),
	)
	os.Exit(2)
}
