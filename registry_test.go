// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import (
	"context"
	"testing"
	"time"
)

func TestGetDefaultRunnerIsSingleton(t *testing.T) {
	a := GetDefaultRunner()
	b := GetDefaultRunner()
	if a != b {
		t.Fatal("GetDefaultRunner should return the same instance on every call")
	}
}

func TestDestroyDefaultRunnerIsNoop(t *testing.T) {
	d := GetDefaultRunner()
	DestroyRunner(d)
	if GetDefaultRunner() != d {
		t.Fatal("destroying the default runner should be a no-op")
	}
}

func TestSetCPURunnerRejectsDuplicateAssignment(t *testing.T) {
	const cpu = 7
	a := CreateRunner(0, -1)
	b := CreateRunner(0, -1)
	defer DestroyRunner(a)
	defer DestroyRunner(b)

	if err := SetCPURunner(cpu, a); err != nil {
		t.Fatalf("first SetCPURunner: %v", err)
	}
	defer SetCPURunner(cpu, nil)

	if err := SetCPURunner(cpu, b); !IsExists(err) {
		t.Fatalf("second SetCPURunner = %v, want ErrExists", err)
	}
}

func TestSetCPURunnerRejectsNegativeCPU(t *testing.T) {
	if err := SetCPURunner(-1, nil); !IsInvalid(err) {
		t.Fatalf("SetCPURunner(-1, nil) = %v, want ErrInvalid", err)
	}
}

func TestGetCPURunnerRejectsNegativeCPU(t *testing.T) {
	if _, err := GetCPURunner(-1); !IsInvalid(err) {
		t.Fatalf("GetCPURunner(-1) = %v, want ErrInvalid", err)
	}
}

func TestGetCPURunnerUnassignedSlotReturnsNil(t *testing.T) {
	r, err := GetCPURunner(9999)
	if err != nil {
		t.Fatalf("GetCPURunner: %v", err)
	}
	if r != nil {
		t.Fatalf("GetCPURunner for an unassigned slot = %v, want nil", r)
	}
}

func TestSetCPURunnerRoundTrip(t *testing.T) {
	const cpu = 3
	r := CreateRunner(0, -1)
	defer DestroyRunner(r)

	if err := SetCPURunner(cpu, r); err != nil {
		t.Fatalf("SetCPURunner: %v", err)
	}
	got, err := GetCPURunner(cpu)
	if err != nil {
		t.Fatalf("GetCPURunner: %v", err)
	}
	if got != r {
		t.Fatalf("GetCPURunner(%d) = %v, want %v", cpu, got, r)
	}
	if err := SetCPURunner(cpu, nil); err != nil {
		t.Fatalf("clearing slot: %v", err)
	}
	got, _ = GetCPURunner(cpu)
	if got != nil {
		t.Fatalf("GetCPURunner after clearing = %v, want nil", got)
	}
}

func TestDestroyRunnerContextCompletesBeforeDeadline(t *testing.T) {
	r := CreateRunnerWithOptions(Options{CPU: -1, PausePollInterval: time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := DestroyRunnerContext(ctx, r); err != nil {
		t.Fatalf("DestroyRunnerContext: %v", err)
	}
}

func TestDestroyRunnerContextStillInvokesCallbackAfterDeadline(t *testing.T) {
	r := CreateRunnerWithOptions(Options{CPU: -1})

	var obj reclaimable
	ctx := WithRunner(context.Background(), r)
	done := make(chan struct{})
	DeferReclaim(ctx, &obj.ReclaimNode, func(*ReclaimNode) { close(done) })

	// An already-expired deadline forces DestroyRunnerContext onto its
	// timeout path; the callback must still run once the worker actually
	// stops.
	shortCtx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	if err := DestroyRunnerContext(shortCtx, r); err == nil {
		t.Fatal("expected DestroyRunnerContext to time out")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deferred callback never ran after DestroyRunnerContext timed out")
	}
}

func TestDestroyRunnerContextOnDefaultRunnerIsNoop(t *testing.T) {
	d := GetDefaultRunner()
	if err := DestroyRunnerContext(context.Background(), d); err != nil {
		t.Fatalf("DestroyRunnerContext on default runner: %v", err)
	}
	if GetDefaultRunner() != d {
		t.Fatal("default runner should be unaffected")
	}
}

func TestDestroyRunnerStillRunsPendingCallback(t *testing.T) {
	r := CreateRunnerWithOptions(Options{CPU: -1, PausePollInterval: time.Millisecond})

	var freed int
	done := make(chan struct{})
	ctx := WithRunner(context.Background(), r)
	var obj reclaimable
	DeferReclaim(ctx, &obj.ReclaimNode, func(*ReclaimNode) {
		freed++
		close(done)
	})

	// Destroy the runner immediately: whether it drains the callback itself
	// or splices it onto the default worker first, it must run exactly once.
	DestroyRunner(r)

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("spliced callback never ran")
	}
}
