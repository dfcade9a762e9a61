// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package futexgate implements the lost-wakeup-safe sleep/wake pattern: a
// worker commits to sleeping by CASing its gate word from 0 to -1, fences,
// rechecks its own wake condition, and only then blocks in the kernel wait
// call expecting -1. A producer fences, observes -1, sets the word back to
// 0, and wakes one waiter. Either the producer's write happens before the
// worker's recheck (worker sees work, never sleeps) or after it (worker is
// already blocked on -1, the wake call finds it there); no third interleaving
// loses the wakeup.
//
// On Linux this rides the real futex(2) syscall through golang.org/x/sys/unix.
// Other GOOS values fall back to a sync.Cond-based emulation with the same
// fence-and-recheck contract.
package futexgate
