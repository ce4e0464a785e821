// Copyright (c) 2016 BVK Chaitanya
//
// This file is part of the Ortoo Mesos Library.
//
// The Ortoo Mesos Library is free software: you can redistribute it and/or
// modify it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The Ortoo Mesos Library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with the Ortoo Mesos Library.  If not, see
// <http://www.gnu.org/licenses/>.

//
// This file defines Condition data type, which implements condition variable
// functionality with timeouts and close semantics.
//
// THREAD SAFETY
//
// This module is not thread-safe. User must hold the lock before performing
// operations on the condition variable.
//
// NOTES
//
// Signal and Broadcast callers MUST hold the lock.
//

package ctlr

import (
	"sync"
	"time"

	"github.com/ortoo/mesos/base/errs"
)

// Condition implements the condition variable.
type Condition struct {
	// The lock associated with the condition variable.
	locker sync.Locker

	// A channel to send signals to the waiters.
	signalCh chan struct{}

	// Broadcast channel closed when the condition variable is destroyed.
	closeCh chan struct{}
}

// Initialize initializes a condition variable.
func (this *Condition) Initialize(locker sync.Locker) {
	this.locker = locker
	this.signalCh = make(chan struct{}, 1)
	this.closeCh = make(chan struct{})
}

// Close destroys the condition variable. All current and future waiters are
// woken up with an ErrClosed.
func (this *Condition) Close() error {
	select {
	case <-this.closeCh:
		return errs.ErrClosed
	default:
		close(this.closeCh)
	}
	return nil
}

// IsClosed returns true if the condition variable was destroyed.
func (this *Condition) IsClosed() bool {
	select {
	case <-this.closeCh:
		return true
	default:
		return false
	}
}

// WaitTimeout blocks the caller for a signal till the timeout channel ticks.
// Caller is required to hold the lock before calling this function.
func (this *Condition) WaitTimeout(timeoutCh <-chan time.Time) error {
	var status error

	signalCh := this.signalCh
	this.locker.Unlock()
	select {
	case <-this.closeCh:
		status = errs.ErrClosed
	case <-timeoutCh:
		status = errs.ErrTimeout
	case <-signalCh:
	}
	this.locker.Lock()

	return status
}

// Wait blocks the caller for a signal. Caller is required to hold the lock
// before calling this function.
func (this *Condition) Wait() error {
	var status error

	signalCh := this.signalCh
	this.locker.Unlock()
	select {
	case <-this.closeCh:
		status = errs.ErrClosed
	case <-signalCh:
	}
	this.locker.Lock()

	return status
}

// Broadcast wakes up all waiters. Caller is required to hold the lock before
// calling this function.
func (this *Condition) Broadcast() {
	signalCh := this.signalCh
	this.signalCh = make(chan struct{}, 1)
	close(signalCh)
}

// Signal wakes up one waiter. Caller is required to hold the lock before
// calling this function.
func (this *Condition) Signal() {
	select {
	case this.signalCh <- struct{}{}:
	default:
	}
}
