// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package urcu

// RaceEnabled is true when the race detector is active.
// Used by stress tests to shrink goroutine counts and iteration counts,
// since the race detector's instrumentation overhead otherwise dominates.
const RaceEnabled = true
