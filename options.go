// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Default poll intervals, used when Options leaves the corresponding field
// at its zero value.
const (
	DefaultPausePollInterval = time.Millisecond
	DefaultIdlePollInterval  = 10 * time.Millisecond
)

// Options configures CallbackRunner creation beyond the Flag/cpu pair that
// CreateRunner accepts directly.
type Options struct {
	// RT selects realtime mode; equivalent to passing FlagRT to CreateRunner.
	RT bool

	// CPU pins the worker's OS thread to this CPU (Linux best-effort).
	// Negative means unpinned.
	CPU int

	// PausePollInterval is how often the pause and stop handshakes re-check
	// the runner's flags. Zero means DefaultPausePollInterval.
	PausePollInterval time.Duration

	// IdlePollInterval is the realtime-mode poll cadence between drain
	// attempts. Zero means DefaultIdlePollInterval.
	IdlePollInterval time.Duration

	// Clock drives every poll interval in the runner; the queue's
	// producer-race backoff spins instead and does not use it. Nil means
	// clockz.RealClock.
	Clock clockz.Clock
}

// Builder configures and creates a CallbackRunner with a fluent API,
// mirroring the direct-constructor-vs-builder shape the rest of this
// dependency family uses for queue construction.
type Builder struct {
	opts Options
}

// NewOptions starts a Builder with the given CPU pin (negative for
// unpinned).
func NewOptions(cpu int) *Builder {
	return &Builder{opts: Options{CPU: cpu}}
}

// RT marks the runner as realtime: poll instead of futex-sleep.
func (b *Builder) RT() *Builder {
	b.opts.RT = true
	return b
}

// WithClock overrides the clock driving this runner's poll intervals.
func (b *Builder) WithClock(c clockz.Clock) *Builder {
	b.opts.Clock = c
	return b
}

// WithPausePollInterval overrides the pause/stop handshake poll interval.
func (b *Builder) WithPausePollInterval(d time.Duration) *Builder {
	b.opts.PausePollInterval = d
	return b
}

// WithIdlePollInterval overrides the realtime-mode idle poll interval.
func (b *Builder) WithIdlePollInterval(d time.Duration) *Builder {
	b.opts.IdlePollInterval = d
	return b
}

// Build creates the configured runner.
func (b *Builder) Build() *CallbackRunner {
	return CreateRunnerWithOptions(b.opts)
}

func (o Options) clock() clockz.Clock {
	if o.Clock == nil {
		return clockz.RealClock
	}
	return o.Clock
}

func (o Options) pausePollInterval() time.Duration {
	if o.PausePollInterval <= 0 {
		return DefaultPausePollInterval
	}
	return o.PausePollInterval
}

func (o Options) idlePollInterval() time.Duration {
	if o.IdlePollInterval <= 0 {
		return DefaultIdlePollInterval
	}
	return o.IdlePollInterval
}
