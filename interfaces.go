// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package urcu

import "code.hybscloud.com/urcu/rcu"

// Reader is the read-side handle a worker holds for the span between
// coming online and going back offline. Satisfied structurally by
// *rcu.Reader; declared here so this package never names rcu's concrete
// type outside of domainAdapter.
type Reader interface {
	Online()
	Offline()
	Unregister()
}

// ReaderDomain registers new readers against a reclamation domain.
type ReaderDomain interface {
	Register() Reader
}

// GracePeriodWaiter blocks until every reader registered at call time has
// gone offline at least once or been observed past the bumped epoch.
type GracePeriodWaiter interface {
	WaitForGracePeriod()
}

// Domain is the full surface this engine needs from a reclamation domain:
// reader registration plus grace-period detection. The engine depends on
// this interface, never on *rcu.Domain directly, so the rcu sub-package
// stays swappable behind this narrow seam.
type Domain interface {
	ReaderDomain
	GracePeriodWaiter
}

// domainAdapter adapts *rcu.Domain's concrete *rcu.Reader return type to
// the Reader interface Register must return. *rcu.Reader already satisfies
// Reader structurally; this adapter exists only because Go method sets
// require an exact return-type match for interface satisfaction, not a
// covariant one.
type domainAdapter struct {
	d *rcu.Domain
}

func newDomain() Domain {
	return domainAdapter{d: rcu.NewDomain()}
}

func (a domainAdapter) Register() Reader { return a.d.Register() }

func (a domainAdapter) WaitForGracePeriod() { a.d.WaitForGracePeriod() }
