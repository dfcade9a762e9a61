// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rcu

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitForGracePeriodNoReaders(t *testing.T) {
	d := NewDomain()
	d.pollInterval = time.Microsecond
	done := make(chan struct{})
	go func() {
		d.WaitForGracePeriod()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForGracePeriod did not return with no readers registered")
	}
}

func TestWaitForGracePeriodOfflineReader(t *testing.T) {
	d := NewDomain()
	d.pollInterval = time.Microsecond
	r := d.Register()
	r.Offline()

	done := make(chan struct{})
	go func() {
		d.WaitForGracePeriod()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForGracePeriod did not return for an offline reader")
	}
}

func TestWaitForGracePeriodBlocksUntilOffline(t *testing.T) {
	d := NewDomain()
	d.pollInterval = time.Millisecond
	r := d.Register()
	r.Online()

	done := make(chan struct{})
	go func() {
		d.WaitForGracePeriod()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitForGracePeriod returned while reader still online from before the bump")
	case <-time.After(20 * time.Millisecond):
	}

	r.Offline()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForGracePeriod did not unblock after reader went offline")
	}
}

func TestWaitForGracePeriodUnregisteredReaderIgnored(t *testing.T) {
	d := NewDomain()
	d.pollInterval = time.Microsecond
	r := d.Register()
	r.Online()
	r.Unregister()

	done := make(chan struct{})
	go func() {
		d.WaitForGracePeriod()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForGracePeriod waited on an unregistered reader")
	}
}

func TestWaitForGracePeriodConcurrentReaders(t *testing.T) {
	d := NewDomain()
	d.pollInterval = time.Millisecond

	const n = 16
	stop := atomic.Bool{}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			r := d.Register()
			defer r.Unregister()
			for !stop.Load() {
				r.Online()
				r.Offline()
			}
		}()
	}

	for i := 0; i < 5; i++ {
		d.WaitForGracePeriod()
	}

	stop.Store(true)
	wg.Wait()
}
