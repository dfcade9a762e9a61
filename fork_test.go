// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import (
	"context"
	"testing"
	"time"
)

func TestBeforeForkPausesAllRunners(t *testing.T) {
	a := CreateRunnerWithOptions(Options{CPU: -1, PausePollInterval: time.Millisecond})
	b := CreateRunnerWithOptions(Options{CPU: -1, PausePollInterval: time.Millisecond})
	defer DestroyRunner(a)
	defer DestroyRunner(b)

	BeforeFork()
	waitFor(t, 2*time.Second, func() bool { return a.hasFlag(flagPaused) && b.hasFlag(flagPaused) })

	AfterForkParent()
	waitFor(t, 2*time.Second, func() bool { return !a.hasFlag(flagPaused) && !b.hasFlag(flagPaused) })

	// A paused-then-resumed runner must still drain new work.
	obj := newReclaimable()
	ctx := WithRunner(context.Background(), a)
	DeferReclaim(ctx, &obj.ReclaimNode, func(n *ReclaimNode) {
		NodeOwner[reclaimable](n).freed.Store(true)
	})
	waitFor(t, 2*time.Second, func() bool { return obj.freed.Load() })
}

func TestAfterForkChildRebuildsRegistryAndKeepsDefaultRunnerWorking(t *testing.T) {
	extra := CreateRunnerWithOptions(Options{CPU: -1, PausePollInterval: time.Millisecond})
	preForkDefault := GetDefaultRunner()

	BeforeFork()
	AfterForkChild()

	postForkDefault := GetDefaultRunner()
	if postForkDefault == preForkDefault {
		t.Fatal("AfterForkChild should replace the default runner")
	}
	if postForkDefault == extra {
		t.Fatal("AfterForkChild should not keep a non-default stale runner as the new default")
	}

	obj := newReclaimable()
	DeferReclaim(context.Background(), &obj.ReclaimNode, func(n *ReclaimNode) {
		NodeOwner[reclaimable](n).freed.Store(true)
	})
	waitFor(t, 2*time.Second, func() bool { return obj.freed.Load() })
}
