// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

// Flag is a bitmask configuring a CallbackRunner.
type Flag uint32

const (
	// FlagRT selects realtime mode: the worker skips the futex sleep and
	// instead polls at a fixed interval, trading wakeup tail latency for a
	// bounded, predictable poll cadence.
	FlagRT Flag = 1 << iota

	flagStop
	flagStopped
	flagPause
	flagPaused
)

func (f Flag) has(bit Flag) bool { return f&bit != 0 }
