// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wfq implements an intrusive, unbounded multi-producer
// single-consumer queue: Enqueue is lock-free, Drain is lock-free for the
// single consumer.
//
// Unlike the sibling lfq queues this package is intrusive: callers embed
// Node as the first field of their own payload struct and cast between the
// two with unsafe.Pointer, the same trick the runtime uses for its own
// intrusive lists. This works because a Node embedded as the first field of
// a larger struct shares its address with the struct itself, and because the
// payload struct stays reachable through the caller's own reference for as
// long as its address is only held as a bare uintptr inside the queue link.
//
// The queue keeps one fixed-address sentinel (the Queue.head field) that
// producers XCHG into on the very first append after being drained empty,
// and that the consumer never frees. Enqueue claims the append position with
// an exchange built as a CAS-retry loop (the atomix Uintptr surface has no
// native exchange), and the only subsequent store is unconditional.
package wfq
