// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rcu implements a minimal quiescent-state-based reclamation (QSBR)
// domain: a single monotonic epoch counter, and a set of registered readers
// each tracking the last epoch they were known to be between critical
// sections. A grace period has elapsed once every reader currently online
// has been observed at or past the target epoch, or has gone offline.
//
// This is intentionally the simplest reclamation scheme that satisfies the
// reclamation engine's contract (the parent package's worker loop waits on a
// Domain before invoking deferred callbacks); it is not a general-purpose
// userspace RCU implementation. Readers must call Online before touching
// RCU-protected data and Offline immediately after, on every pass through
// their loop; a reader that stays Online forever blocks every grace period
// indefinitely.
package rcu
