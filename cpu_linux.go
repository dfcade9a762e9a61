// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package urcu

import "golang.org/x/sys/unix"

// pinToCPU pins the calling OS thread to cpu. The caller distinguishes an
// unsupported-platform error (logged, non-fatal) from any other syscall
// failure, which signals a broken host and is treated as fatal.
func pinToCPU(cpu int) error {
	var set unix.CPUSet
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}

// currentCPU returns the CPU the calling goroutine's OS thread is currently
// running on, or -1 if that cannot be determined. Best-effort and racy by
// nature: the goroutine may be migrated the instant after this returns.
func currentCPU() int {
	cpu, err := unix.SchedGetcpu()
	if err != nil {
		return -1
	}
	return cpu
}
