// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rcu

import (
	"sync"
	"sync/atomic"
	"time"
)

// offline is the sentinel local-epoch value for a reader that is not
// currently inside a critical section. It is never a valid epoch: Domain's
// epoch counter starts at 1 and only increases.
const offline uint64 = 0

// Domain is a quiescent-state-based reclamation domain. The zero value is
// not usable (its epoch would start at the offline sentinel); construct with
// NewDomain.
type Domain struct {
	epoch   atomic.Uint64
	mu      sync.Mutex
	readers []*Reader

	// pollInterval is how often WaitForGracePeriod rechecks outstanding
	// readers. Overridable by tests; zero means use the default.
	pollInterval time.Duration
}

// NewDomain creates an empty reclamation domain with its epoch counter
// starting at 1.
func NewDomain() *Domain {
	d := &Domain{}
	d.epoch.Store(1)
	return d
}

// Register adds a new reader to the domain, initially offline.
func (d *Domain) Register() *Reader {
	r := &Reader{domain: d}
	d.mu.Lock()
	d.readers = append(d.readers, r)
	d.mu.Unlock()
	return r
}

func (d *Domain) unregister(r *Reader) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, rr := range d.readers {
		if rr == r {
			d.readers = append(d.readers[:i], d.readers[i+1:]...)
			return
		}
	}
}

// WaitForGracePeriod blocks until every reader registered at the time of
// the call has either gone offline at least once, or been observed online
// at or past the epoch this call bumps to. Readers registered after the
// call returns, or unregistered during it, are not waited on.
func (d *Domain) WaitForGracePeriod() {
	target := d.epoch.Add(1)

	d.mu.Lock()
	pending := make([]*Reader, len(d.readers))
	copy(pending, d.readers)
	d.mu.Unlock()

	interval := d.pollInterval
	if interval <= 0 {
		interval = time.Millisecond
	}

	for _, r := range pending {
		for {
			local := r.local.Load()
			if local == offline || local >= target {
				break
			}
			time.Sleep(interval)
		}
	}
}

// Reader is one registered reader's quiescent-state tracker. The zero value
// is not usable; obtain one from Domain.Register.
type Reader struct {
	domain *Domain
	local  atomic.Uint64
}

// Online marks the reader as entering a critical section, publishing the
// domain's current epoch as the reader's local snapshot.
func (r *Reader) Online() {
	r.local.Store(r.domain.epoch.Load())
}

// Offline marks the reader as outside any critical section. A reader that
// is offline never blocks WaitForGracePeriod.
func (r *Reader) Offline() {
	r.local.Store(offline)
}

// Unregister removes the reader from its domain. After Unregister, the
// reader must not be used again.
func (r *Reader) Unregister() {
	r.local.Store(offline)
	r.domain.unregister(r)
}
