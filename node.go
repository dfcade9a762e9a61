// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import (
	"unsafe"

	"code.hybscloud.com/urcu/internal/wfq"
)

// ReclaimNode is the intrusive queue link callers embed as the first field
// of the object they want freed once a grace period has elapsed after
// DeferReclaim. The embedding object stays reachable through the caller's
// own reference for as long as its address is encoded into the queue as a
// bare uintptr, so Go's GC never mistakes the queue link for the only
// reference to the node.
type ReclaimNode struct {
	link wfq.Node
	fn   func(*ReclaimNode)
}

func nodeToLink(n *ReclaimNode) *wfq.Node {
	return &n.link
}

func linkToNode(l *wfq.Node) *ReclaimNode {
	return (*ReclaimNode)(unsafe.Pointer(l))
}

// NodeOwner casts a ReclaimNode back to the T that embeds it as its first
// field. Callers use this inside their callback to recover the concrete object to
// free. It is the caller's responsibility that T actually embeds
// ReclaimNode as its first field; this package cannot check that statically.
func NodeOwner[T any](n *ReclaimNode) *T {
	return (*T)(unsafe.Pointer(n))
}
