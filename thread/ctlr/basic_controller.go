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
// This file defines BasicController type which implements admission control
// and named-resource synchronization.
//
// THREAD SAFETY
//
// All public functions are thread-safe.
//
// NOTES
//
// BasicController objects provide a high-level abstraction for concurrency
// control in the form of resource locks.
//
// Resources are plain names. An operation locks the names it needs, either
// for exclusive (write) or shared (read) access, performs its work and
// unlocks them. A lock on all resources serializes against every other
// operation.
//
// After the controller is closed, write locks are not issued anymore, but
// read locks are still granted so that read-only operations keep working as
// long as a reference to the object exists -- which is safe because a live
// reference stops the garbage collection anyway.
//

package ctlr

import (
	"sync"
	"time"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
)

// Lock represents shared or exclusive ownership of one or more named
// resources, or of all resources.
type Lock struct {
	ctlr *BasicController

	// Name of the operation holding this lock.
	name string

	// Flag indicating that all resources are locked.
	all bool

	// Flag indicating shared (read-only) ownership.
	readOnly bool

	// Flag indicating that this lock is a no-op stub issued after close.
	stub bool

	// Flag indicating if lock was released already.
	released bool

	// Set of resource names owned by this lock. Nil when all is true.
	resourceMap map[string]struct{}

	// Channels for coordinating with the lock manager goroutine.
	resultCh chan error
	cancelCh chan struct{}
}

// release carries an early resource release to the lock manager.
type release struct {
	lock     *Lock
	resource string
}

// BasicController implements admission control and resource synchronization.
type BasicController struct {
	log.Logger

	// Wait group to wait for live operations to complete.
	wg sync.WaitGroup

	// Wait group for the lock manager goroutine.
	mgrWG sync.WaitGroup

	// Broadcast channel to signal closing the controller.
	closeCh chan struct{}

	// Channels to send lock, unlock and early release requests to the lock
	// manager.
	newCh     chan *Lock
	doneCh    chan *Lock
	releaseCh chan *release

	// The following fields belong to the lock manager goroutine.

	// Number of live (granted, unreleased) locks.
	live int

	// Write owner flag and reader count for the whole-controller lock.
	allWriter  bool
	allReaders int

	// Write owner flags and reader counts per resource name.
	writerMap map[string]bool
	readerMap map[string]int

	// Locks waiting because one or more resources are not available.
	waitingList []*Lock
}

// Initialize initializes the controller. The logger is retained for lifetime
// and diagnostic messages.
func (this *BasicController) Initialize(logger log.Logger) {
	this.Logger = logger.NewLogger("ctlr")
	this.closeCh = make(chan struct{})
	this.newCh = make(chan *Lock)
	this.doneCh = make(chan *Lock)
	this.releaseCh = make(chan *release)
	this.writerMap = make(map[string]bool)
	this.readerMap = make(map[string]int)

	this.mgrWG.Add(1)
	go this.goManageLocks()
}

// Close stops issuing new write locks and waits for all live operations to
// finish.
func (this *BasicController) Close() error {
	select {
	case <-this.closeCh:
		return errs.ErrClosed
	default:
		close(this.closeCh)
	}
	this.wg.Wait()
	this.mgrWG.Wait()
	return nil
}

// IsClosed returns true if controller is closed and false otherwise.
func (this *BasicController) IsClosed() bool {
	select {
	case <-this.closeCh:
		return true
	default:
		return false
	}
}

// GetCloseChannel returns the channel that broadcasts close operation.
func (this *BasicController) GetCloseChannel() <-chan struct{} {
	return this.closeCh
}

// Lock acquires exclusive ownership of given resources. It blocks until the
// resources become available. After the controller is closed, a no-op lock is
// returned on the assumption that all accesses are read-only by then.
func (this *BasicController) Lock(resourceList ...string) *Lock {
	lock, errLock := this.newLock("Lock", nil, false, false, resourceList)
	if errLock != nil {
		return this.newStub(resourceList)
	}
	return lock
}

// TimedLock is like Lock, except that it gives up with ErrTimeout when the
// resources cannot be acquired in the given time.
func (this *BasicController) TimedLock(timeout time.Duration, first string,
	rest ...string) (*Lock, error) {

	resourceList := append([]string{first}, rest...)
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timeoutCh = time.After(timeout)
	}
	return this.newLock("TimedLock", timeoutCh, false, false, resourceList)
}

// ReadLock acquires shared ownership of given resources. Read locks are
// granted even after the controller is closed.
func (this *BasicController) ReadLock(first string, rest ...string) *Lock {
	resourceList := append([]string{first}, rest...)
	lock, errLock := this.newLock("ReadLock", nil, false, true, resourceList)
	if errLock != nil {
		return this.newStub(resourceList)
	}
	return lock
}

// LockAll acquires exclusive ownership of all resources, serializing against
// every other operation.
func (this *BasicController) LockAll() *Lock {
	lock, errLock := this.newLock("LockAll", nil, true, false, nil)
	if errLock != nil {
		return this.newStub(nil)
	}
	return lock
}

// ReadLockAll acquires shared ownership of all resources.
func (this *BasicController) ReadLockAll() *Lock {
	lock, errLock := this.newLock("ReadLockAll", nil, true, true, nil)
	if errLock != nil {
		return this.newStub(nil)
	}
	return lock
}

// Unlock releases resources owned by the lock. With no arguments, all owned
// resources are released and the lock is closed. With arguments, only the
// named resources are released early; the lock stays live till the final
// Unlock().
func (this *Lock) Unlock(resourceList ...string) {
	if this.stub || this.released {
		return
	}

	if len(resourceList) > 0 {
		for _, resource := range resourceList {
			if _, ok := this.resourceMap[resource]; !ok {
				this.ctlr.Fatalf("operation %s is releasing resource %s it "+
					"does not own", this.name, resource)
			}
			this.ctlr.releaseCh <- &release{lock: this, resource: resource}
			delete(this.resourceMap, resource)
		}
		if len(this.resourceMap) > 0 {
			return
		}
	}

	this.released = true
	this.ctlr.doneCh <- this
	this.ctlr.wg.Done()
}

///////////////////////////////////////////////////////////////////////////////

// newStub makes a no-op lock for read-only access after close.
func (this *BasicController) newStub(resourceList []string) *Lock {
	resourceMap := make(map[string]struct{})
	for _, resource := range resourceList {
		resourceMap[resource] = struct{}{}
	}
	return &Lock{ctlr: this, stub: true, readOnly: true,
		resourceMap: resourceMap}
}

func (this *BasicController) newLock(opName string,
	timeoutCh <-chan time.Time, all, readOnly bool, resourceList []string) (
	*Lock, error) {

	lock := &Lock{
		ctlr:     this,
		name:     opName,
		all:      all,
		readOnly: readOnly,
		resultCh: make(chan error),
		cancelCh: make(chan struct{}),
	}
	if !all {
		lock.resourceMap = make(map[string]struct{})
		for _, resource := range resourceList {
			lock.resourceMap[resource] = struct{}{}
		}
	}

	// Read locks are granted even after close: close only stops mutations.
	if this.IsClosed() && !readOnly {
		return nil, errs.ErrClosed
	}

	newCh := this.newCh
	for {
		select {
		case <-this.closeCh:
			if !readOnly {
				close(lock.cancelCh)
				return nil, errs.ErrClosed
			}
			// The lock manager may have exited already; fall back to a stub.
			select {
			case newCh <- lock:
				newCh = nil
				continue
			case status := <-lock.resultCh:
				if status != nil {
					close(lock.cancelCh)
					return nil, status
				}
				return lock, nil
			default:
				close(lock.cancelCh)
				return nil, errs.ErrClosed
			}

		case <-timeoutCh:
			close(lock.cancelCh)
			return nil, errs.ErrTimeout

		case newCh <- lock:
			newCh = nil
			continue

		case status := <-lock.resultCh:
			if status != nil {
				close(lock.cancelCh)
				return nil, status
			}
			return lock, nil
		}
	}
}

// isReady returns true if all resources necessary for a lock are available.
func (this *BasicController) isReady(lock *Lock) bool {
	if lock.all {
		if this.allWriter {
			return false
		}
		if lock.readOnly {
			for _, writer := range this.writerMap {
				if writer {
					return false
				}
			}
			return true
		}
		if this.allReaders > 0 {
			return false
		}
		for _, writer := range this.writerMap {
			if writer {
				return false
			}
		}
		for _, readers := range this.readerMap {
			if readers > 0 {
				return false
			}
		}
		return true
	}

	if this.allWriter {
		return false
	}
	for resource := range lock.resourceMap {
		if this.writerMap[resource] {
			return false
		}
		if !lock.readOnly {
			if this.allReaders > 0 || this.readerMap[resource] > 0 {
				return false
			}
		}
	}
	return true
}

// issueLock grants a lock, if the requester hasn't timed out and is still
// waiting.
func (this *BasicController) issueLock(lock *Lock) {
	select {
	case <-lock.cancelCh:
		return

	case lock.resultCh <- nil:
		this.live++
		this.wg.Add(1)
		if lock.all {
			if lock.readOnly {
				this.allReaders++
			} else {
				this.allWriter = true
			}
			return
		}
		for resource := range lock.resourceMap {
			if lock.readOnly {
				this.readerMap[resource]++
			} else {
				this.writerMap[resource] = true
			}
		}
	}
}

// releaseLock returns all resources owned by a lock.
func (this *BasicController) releaseLock(lock *Lock) {
	this.live--
	if lock.all {
		if lock.readOnly {
			this.allReaders--
		} else {
			this.allWriter = false
		}
		return
	}
	for resource := range lock.resourceMap {
		this.releaseResource(lock, resource)
	}
}

func (this *BasicController) releaseResource(lock *Lock, resource string) {
	if lock.readOnly {
		this.readerMap[resource]--
		if this.readerMap[resource] == 0 {
			delete(this.readerMap, resource)
		}
		return
	}
	delete(this.writerMap, resource)
}

// removeWaiter removes a lock from the waiting list by its index.
func (this *BasicController) removeWaiter(index int) {
	size := len(this.waitingList)
	if size > 1 {
		copy(this.waitingList[index:], this.waitingList[index+1:])
		this.waitingList[size-1] = nil
		this.waitingList = this.waitingList[:size-1]
		return
	}
	this.waitingList = nil
}

// issueReady grants every waiting lock whose resources are all available, in
// arrival order.
func (this *BasicController) issueReady() {
	for ii := 0; ii < len(this.waitingList); {
		lock := this.waitingList[ii]
		if this.isReady(lock) {
			this.removeWaiter(ii)
			this.issueLock(lock)
			continue
		}
		ii++
	}
}

// cancelWriters fails waiting write locks with an error. Waiting read locks
// stay queued because reads are still allowed after close.
func (this *BasicController) cancelWriters(status error) {
	var readers []*Lock
	for _, lock := range this.waitingList {
		if lock.readOnly {
			readers = append(readers, lock)
			continue
		}
		select {
		case <-lock.cancelCh:
		case lock.resultCh <- status:
		}
	}
	this.waitingList = readers
}

// goManageLocks handles all lock management operations.
func (this *BasicController) goManageLocks() {
	defer this.mgrWG.Done()

	closing := false
	for {
		if closing && this.live == 0 && len(this.waitingList) == 0 {
			return
		}

		select {
		case <-this.closeCh:
			if !closing {
				closing = true
				this.cancelWriters(errs.ErrClosed)
				this.issueReady()
				continue
			}
			// Wait for live locks to drain.
			select {
			case lock := <-this.doneCh:
				this.releaseLock(lock)
				this.issueReady()
			case req := <-this.releaseCh:
				this.releaseResource(req.lock, req.resource)
				this.issueReady()
			case lock := <-this.newCh:
				if lock.readOnly && this.isReady(lock) {
					this.issueLock(lock)
				} else if lock.readOnly {
					this.waitingList = append(this.waitingList, lock)
				} else {
					select {
					case <-lock.cancelCh:
					case lock.resultCh <- errs.ErrClosed:
					}
				}
			}

		case lock := <-this.newCh:
			if this.isReady(lock) {
				this.issueLock(lock)
			} else {
				this.waitingList = append(this.waitingList, lock)
			}

		case lock := <-this.doneCh:
			this.releaseLock(lock)
			this.issueReady()

		case req := <-this.releaseCh:
			this.releaseResource(req.lock, req.resource)
			this.issueReady()
		}
	}
}
