// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type reclaimable struct {
	ReclaimNode
	freed atomic.Bool
}

func newReclaimable() *reclaimable {
	return &reclaimable{}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.After(timeout)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		if cond() {
			return
		}
		select {
		case <-ticker.C:
		case <-deadline:
			t.Fatal("condition not met before timeout")
		}
	}
}

func TestDeferReclaimInvokesCallback(t *testing.T) {
	r := CreateRunner(0, -1)
	defer DestroyRunner(r)

	obj := newReclaimable()
	ctx := WithRunner(context.Background(), r)
	DeferReclaim(ctx, &obj.ReclaimNode, func(n *ReclaimNode) {
		NodeOwner[reclaimable](n).freed.Store(true)
	})

	waitFor(t, 2*time.Second, func() bool { return obj.freed.Load() })
}

func TestQueueLenReturnsToZeroAfterInvoke(t *testing.T) {
	r := CreateRunner(0, -1)
	defer DestroyRunner(r)

	ctx := WithRunner(context.Background(), r)
	const n = 50
	objs := make([]*reclaimable, n)
	for i := range objs {
		objs[i] = newReclaimable()
		DeferReclaim(ctx, &objs[i].ReclaimNode, func(node *ReclaimNode) {
			NodeOwner[reclaimable](node).freed.Store(true)
		})
	}

	waitFor(t, 2*time.Second, func() bool {
		for _, o := range objs {
			if !o.freed.Load() {
				return false
			}
		}
		return true
	})
	waitFor(t, 2*time.Second, func() bool { return r.QueueLen() == 0 })
}

func TestConcurrentDeferReclaimProducers(t *testing.T) {
	r := CreateRunner(0, -1)
	defer DestroyRunner(r)

	ctx := WithRunner(context.Background(), r)
	const producers = 16
	const perProducer = 100
	var invoked atomic.Int64

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				obj := newReclaimable()
				DeferReclaim(ctx, &obj.ReclaimNode, func(*ReclaimNode) {
					invoked.Add(1)
				})
			}
		}()
	}
	wg.Wait()

	waitFor(t, 5*time.Second, func() bool { return invoked.Load() == producers*perProducer })
}

func TestRTModeDrainsEnqueuedCallback(t *testing.T) {
	r := CreateRunnerWithOptions(Options{RT: true, CPU: -1, IdlePollInterval: time.Millisecond})
	defer DestroyRunner(r)

	obj := newReclaimable()
	ctx := WithRunner(context.Background(), r)
	DeferReclaim(ctx, &obj.ReclaimNode, func(n *ReclaimNode) {
		NodeOwner[reclaimable](n).freed.Store(true)
	})

	waitFor(t, 2*time.Second, func() bool { return obj.freed.Load() })
}

func TestSelfEnqueueingCallback(t *testing.T) {
	r := CreateRunner(0, -1)
	defer DestroyRunner(r)

	ctx := WithRunner(context.Background(), r)
	const rounds = 5
	var count atomic.Int64

	first := newReclaimable()
	var recurse func(n *ReclaimNode)
	recurse = func(n *ReclaimNode) {
		if count.Add(1) < rounds {
			next := newReclaimable()
			DeferReclaim(ctx, &next.ReclaimNode, recurse)
		}
	}
	DeferReclaim(ctx, &first.ReclaimNode, recurse)

	waitFor(t, 2*time.Second, func() bool { return count.Load() == rounds })
}

func TestMetricsTrackEnqueuedAndInvoked(t *testing.T) {
	r := CreateRunner(0, -1)
	defer DestroyRunner(r)

	ctx := WithRunner(context.Background(), r)
	obj := newReclaimable()
	DeferReclaim(ctx, &obj.ReclaimNode, func(*ReclaimNode) {})

	waitFor(t, 2*time.Second, func() bool {
		return r.Metrics().Counter(MetricInvokedTotal).Value() >= 1
	})
	if got := r.Metrics().Counter(MetricEnqueuedTotal).Value(); got < 1 {
		t.Fatalf("enqueued counter = %v, want >= 1", got)
	}
}
