// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import (
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Signal constants for runner lifecycle events.
// Signals follow the pattern: <component>.<event>.
const (
	SignalRunnerCreated    capitan.Signal = "runner.created"
	SignalRunnerPaused     capitan.Signal = "runner.paused"
	SignalRunnerResumed    capitan.Signal = "runner.resumed"
	SignalRunnerStopped    capitan.Signal = "runner.stopped"
	SignalRunnerDestroyed  capitan.Signal = "runner.destroyed"
	SignalRunnerOrphaned   capitan.Signal = "runner.orphaned"
	SignalDispatchWake     capitan.Signal = "dispatch.wake"
	SignalCPURunnerExists  capitan.Signal = "cpu_runner.exists"
	SignalForkQuiesced     capitan.Signal = "fork.quiesced"
	SignalForkChildRebuilt capitan.Signal = "fork.child_rebuilt"
	SignalFatalAbort       capitan.Signal = "runner.fatal_abort"
)

// Common field keys using capitan primitive types.
var (
	FieldRunnerID  = capitan.NewStringKey("runner_id")
	FieldCPU       = capitan.NewIntKey("cpu")
	FieldQueueLen  = capitan.NewIntKey("queue_len")
	FieldFlags     = capitan.NewIntKey("flags")
	FieldBatchSize = capitan.NewIntKey("batch_size")
	FieldOp        = capitan.NewStringKey("op")
	FieldError     = capitan.NewStringKey("error")
	FieldTimestamp = capitan.NewFloat64Key("timestamp")
)

// Observability constants for a CallbackRunner.
const (
	// Metrics.
	MetricEnqueuedTotal = metricz.Key("runner.enqueued.total")
	MetricInvokedTotal  = metricz.Key("runner.invoked.total")
	MetricWokenTotal    = metricz.Key("runner.woken.total")
	MetricQueueLen      = metricz.Key("runner.queue_len")

	// Spans.
	RunnerDrainSpan       = tracez.Key("runner.drain")
	RunnerGracePeriodSpan = tracez.Key("runner.grace_period")
	RunnerInvokeSpan      = tracez.Key("runner.invoke")

	// Tags.
	TagBatchSize = tracez.Tag("runner.batch_size")
	TagCPU       = tracez.Tag("runner.cpu")

	// Hook event keys.
	EventRunnerPaused    = hookz.Key("runner.paused")
	EventRunnerResumed   = hookz.Key("runner.resumed")
	EventRunnerStopped   = hookz.Key("runner.stopped")
	EventRunnerDestroyed = hookz.Key("runner.destroyed")
	EventRunnerSpliced   = hookz.Key("runner.spliced")
)

// RunnerEvent is emitted via a CallbackRunner's hooks on pause, resume,
// stop, destroy, and orphan-splice transitions.
type RunnerEvent struct {
	CPU       int
	BatchSize int
	Timestamp time.Time
}
