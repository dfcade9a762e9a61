// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package urcu

// pinToCPU is a no-op on platforms without a CPU-affinity syscall. Callers
// treat its error as advisory only.
func pinToCPU(int) error {
	return errAffinityUnsupported
}

// currentCPU has no portable answer off Linux.
func currentCPU() int { return -1 }
