// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import "context"

type runnerCtxKey struct{}

// WithRunner returns a copy of ctx that binds r as the current goroutine's
// target worker, overriding the per-CPU and default selection that
// DeferReclaim would otherwise use.
func WithRunner(ctx context.Context, r *CallbackRunner) context.Context {
	return context.WithValue(ctx, runnerCtxKey{}, r)
}

// RunnerFromContext returns the worker bound to ctx by WithRunner, if any.
func RunnerFromContext(ctx context.Context) (*CallbackRunner, bool) {
	r, ok := ctx.Value(runnerCtxKey{}).(*CallbackRunner)
	return r, ok
}

// GetCurrentRunner resolves the worker that DeferReclaim would pick for
// ctx: a context override, else the calling CPU's assigned worker, else the
// default worker.
func GetCurrentRunner(ctx context.Context) *CallbackRunner {
	if r, ok := RunnerFromContext(ctx); ok && r != nil {
		return r
	}
	if cpu := currentCPU(); cpu >= 0 {
		if r, _ := GetCPURunner(cpu); r != nil {
			return r
		}
	}
	return GetDefaultRunner()
}

// DeferReclaim schedules fn(node) to run after the next grace period
// following this call, on the worker selected for ctx: a context override
// via WithRunner, else the caller's per-CPU worker, else the default
// worker. node must not be reused or freed by the caller; fn is responsible
// for that once it runs.
func DeferReclaim(ctx context.Context, node *ReclaimNode, fn func(*ReclaimNode)) {
	node.fn = fn

	withReadSection(func() {
		GetCurrentRunner(ctx).enqueue(node)
	})
}
