// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wfq

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

// Node is the intrusive queue link. Callers embed Node as the first field
// of their payload struct.
type Node struct {
	next atomix.Uintptr
}

// pad is cache line padding to prevent false sharing between the producer's
// append point and the consumer's drain-only fields.
type pad [64]byte

// Queue is an unbounded MPSC queue of *Node. The zero value is not usable;
// construct with New.
type Queue struct {
	_    pad
	tail atomix.Uintptr // producer append point, XCHG'd by every Enqueue
	_    pad
	head Node // fixed-address sentinel; never itself returned from Drain
}

// New creates an empty queue.
func New() *Queue {
	q := &Queue{}
	q.tail.StoreRelaxed(q.headAddr())
	return q
}

func (q *Queue) headAddr() uintptr {
	return uintptr(unsafe.Pointer(&q.head))
}

func nodeAt(addr uintptr) *Node {
	return (*Node)(unsafe.Pointer(addr))
}

func addrOf(n *Node) uintptr {
	return uintptr(unsafe.Pointer(n))
}

// Enqueue appends a single node. Lock-free, multi-producer safe: a CAS-retry
// loop (swap) claims the append position, one unconditional store publishes
// the link. It is not wait-free: a producer can lose the CAS repeatedly under
// contention.
func (q *Queue) Enqueue(n *Node) {
	q.EnqueueChain(n, n)
}

// EnqueueChain appends an already internally-linked chain [first..last] as
// one logical enqueue: a CAS-loop claims the tail, then a single store links
// the previous tail's successor. Used both by Enqueue (first==last) and by
// SpliceInto when migrating an entire evicted batch onto another queue in
// one linearization point.
func (q *Queue) EnqueueChain(first, last *Node) {
	last.next.StoreRelaxed(0)
	prevAddr := swap(&q.tail, addrOf(last))
	nodeAt(prevAddr).next.StoreRelease(addrOf(first))
}

// swap performs an atomic exchange on top of the corpus's CAS-only Uintptr
// surface: retry CompareAndSwapAcqRel against the last observed value until
// it wins. Every failed CAS means another caller's CAS succeeded, so some
// caller always makes progress; a single caller's retry count is not bounded.
func swap(a *atomix.Uintptr, new uintptr) uintptr {
	old := a.LoadAcquire()
	for !a.CompareAndSwapAcqRel(old, new) {
		old = a.LoadAcquire()
	}
	return old
}

// Empty reports whether the queue has nothing pending for Drain. A false
// positive cannot happen against a producer mid-Enqueue: Drain re-checks the
// head link itself and spin-waits on the transient-nil race rather than
// trusting this alone.
func (q *Queue) Empty() bool {
	return q.tail.LoadAcquire() == q.headAddr()
}

// takeBatch atomically snapshots the whole pending chain and resets the
// queue to empty, returning the first and last node addresses of the batch
// taken. ok is false if the queue was observed empty. Single-consumer only.
//
// sleep is invoked (repeatedly, briefly) only in the narrow window where a
// concurrent Enqueue has claimed its append position via the tail exchange
// but has not yet completed the corresponding next-link store.
func (q *Queue) takeBatch(sleep func()) (first, last uintptr, ok bool) {
	if q.Empty() {
		return 0, 0, false
	}
	for q.head.next.LoadAcquire() == 0 {
		sleep()
	}
	first = q.head.next.LoadAcquire()
	q.head.next.StoreRelease(0)
	last = swap(&q.tail, q.headAddr())
	return first, last, true
}

// walk invokes fn on every node from first to last inclusive, in FIFO
// order, spin-waiting on any transiently nil next link. Returns the count
// of nodes visited.
func walk(first, last uintptr, headAddr uintptr, sleep func(), fn func(*Node)) int {
	n := 0
	cur := first
	for {
		node := nodeAt(cur)
		if cur != headAddr {
			fn(node)
			n++
		}
		if cur == last {
			return n
		}
		next := node.next.LoadAcquire()
		for next == 0 {
			sleep()
			next = node.next.LoadAcquire()
		}
		cur = next
	}
}

// Drain removes the entire pending batch and invokes fn on each node in
// FIFO order. Single-consumer only. Returns the number of nodes drained.
func (q *Queue) Drain(fn func(*Node), sleep func()) int {
	first, last, ok := q.takeBatch(sleep)
	if !ok {
		return 0
	}
	return walk(first, last, q.headAddr(), sleep, fn)
}

// SpliceInto atomically moves this queue's entire pending batch onto dst's
// tail as a single logical enqueue, without invoking any callback. Returns
// the number of nodes moved. Single-consumer only with respect to this
// queue; dst only needs its own MPSC guarantee.
func (q *Queue) SpliceInto(dst *Queue, sleep func()) int {
	first, last, ok := q.takeBatch(sleep)
	if !ok {
		return 0
	}
	n := walk(first, last, q.headAddr(), sleep, func(*Node) {})
	dst.EnqueueChain(nodeAt(first), nodeAt(last))
	return n
}
