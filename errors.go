// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import (
	"errors"
	"fmt"
)

// ErrInvalid indicates a CPU index outside [0, maxCPUs).
var ErrInvalid = errors.New("urcu: invalid argument")

// ErrNoMemory indicates the per-CPU slice could not be allocated.
var ErrNoMemory = errors.New("urcu: no memory")

// ErrExists indicates a per-CPU slot is already assigned.
var ErrExists = errors.New("urcu: already exists")

// errAffinityUnsupported distinguishes "this platform has no affinity
// syscall" from a genuine OS-level failure on a platform that does: the
// worker loop logs and continues on the former, aborts on the latter.
// Declared here, not behind a build tag, because runner.go's platform-
// agnostic loop() compares against it regardless of GOOS.
var errAffinityUnsupported = errors.New("urcu: cpu affinity not supported on this platform")

// IsInvalid reports whether err is or wraps ErrInvalid.
func IsInvalid(err error) bool { return errors.Is(err, ErrInvalid) }

// IsNoMemory reports whether err is or wraps ErrNoMemory.
func IsNoMemory(err error) bool { return errors.Is(err, ErrNoMemory) }

// IsExists reports whether err is or wraps ErrExists.
func IsExists(err error) bool { return errors.Is(err, ErrExists) }

// FatalError wraps an unrecoverable OS-level failure: currently a CPU-affinity
// syscall that fails for a reason other than missing platform support.
// The reclamation engine has no sensible recovery from it; constructing
// one is always immediately followed by aborting the process (see abortf in
// runner.go).
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("urcu: fatal: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
