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
// This file defines Registrar type which owns the durable roster of worker
// nodes stored as a single state variable.
//
// THREAD SAFETY
//
// All public functions are thread-safe. Mutating operations are serialized;
// a call that cannot start within the configured apply timeout is rejected
// with the retry error instead of interleaving partial updates.
//
// NOTES
//
// Recover must run once per leadership term before any mutating call. It
// reads the roster variable, defaulting to an empty roster when the variable
// was never written, and caches it with its version.
//
// Mutations go through the compare-and-swap contract of the storage layer.
// On a conflict the registrar re-reads the roster, reapplies the operation
// to the fresh value and retries up to a configured bound before reporting
// the unavailable error; the controller must then abdicate leadership rather
// than proceed with possibly stale state.
//

package registry

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/state"
	"github.com/ortoo/mesos/thread/ctlr"

	thispb "github.com/ortoo/mesos/proto/registry"
)

// VariableName is the state variable holding the roster.
const VariableName = "registry"

// Options define user configurable settings for a registrar.
type Options struct {
	// Maximum number of attempts for one mutating operation under repeated
	// compare-and-swap conflicts.
	MaxApplyRetries int

	// Time budget to begin a mutating operation when another one is in
	// flight. Expiry rejects the call with the retry error.
	ApplyTimeout time.Duration
}

// Validate checks if user configuration items are all valid.
func (this *Options) Validate() (status error) {
	if this.MaxApplyRetries < 1 {
		err := errs.NewErrInvalid("apply retry bound must be positive")
		status = errs.MergeErrors(status, err)
	}
	if this.ApplyTimeout < time.Millisecond {
		err := errs.NewErrInvalid("apply timeout %v is too small",
			this.ApplyTimeout)
		status = errs.MergeErrors(status, err)
	}
	return status
}

// Registrar maintains the roster of admitted and to-be-removed worker nodes.
type Registrar struct {
	log.Logger

	// Resource controller serializing roster operations.
	ctlr ctlr.BasicController

	// Storage backend holding the roster variable.
	store state.Storage

	// User configurable options.
	opts Options

	// True after a successful Recover.
	recovered bool

	// Cached roster and the version it was read or written with. The version
	// is nil until the roster variable is written for the first time.
	registry *thispb.Registry
	version  []byte
}

// Initialize initializes a registrar instance.
func (this *Registrar) Initialize(opts *Options,
	store state.Storage) (status error) {

	if err := opts.Validate(); err != nil {
		this.Errorf("invalid user options: %v", err)
		return err
	}

	this.store = store
	this.opts = *opts
	this.recovered = false
	this.registry = nil
	this.version = nil

	this.Logger = this.NewLogger("registrar:%s", VariableName)
	this.ctlr.Initialize(this)
	return nil
}

// Close releases all resources and destroys the object.
func (this *Registrar) Close() error {
	return this.ctlr.Close()
}

// Recover reads the current roster from the storage layer and caches it.
// A roster variable that was never written recovers as an empty roster.
func (this *Registrar) Recover() (*thispb.Registry, error) {
	lock, errLock := this.ctlr.TimedLock(this.opts.ApplyTimeout, "registrar")
	if errLock != nil {
		return nil, errLock
	}
	defer lock.Unlock()

	if err := this.doRefresh(); err != nil {
		this.Errorf("could not recover the roster: %v", err)
		return nil, err
	}

	this.recovered = true
	this.Infof("recovered roster with %d admitted and %d removed nodes",
		len(this.registry.AdmittedList), len(this.registry.RemovedList))
	return cloneRegistry(this.registry), nil
}

// Admit adds a new node to the roster. Fails with the exist error when the
// node is already admitted.
func (this *Registrar) Admit(nodeID, hostname string) (
	*thispb.Registry, error) {

	return this.apply(func(registry *thispb.Registry) error {
		if findNode(registry.AdmittedList, nodeID) >= 0 {
			return errs.NewErrExist("node %s is already admitted", nodeID)
		}
		if index := findNode(registry.RemovedList, nodeID); index >= 0 {
			registry.RemovedList = append(registry.RemovedList[:index],
				registry.RemovedList[index+1:]...)
		}
		node := &thispb.NodeInfo{}
		node.NodeId = proto.String(nodeID)
		node.Hostname = proto.String(hostname)
		node.RegisterTimestampNsecs = proto.Int64(time.Now().UnixNano())
		registry.AdmittedList = append(registry.AdmittedList, node)
		return nil
	})
}

// Readmit refreshes an admitted node, for example, when it reconnects after
// a controller failover. Fails with the not-exist error when the node is
// not admitted.
func (this *Registrar) Readmit(nodeID string) (*thispb.Registry, error) {
	return this.apply(func(registry *thispb.Registry) error {
		index := findNode(registry.AdmittedList, nodeID)
		if index < 0 {
			return errs.NewErrNotExist("node %s is not admitted", nodeID)
		}
		node := registry.AdmittedList[index]
		node.RegisterTimestampNsecs = proto.Int64(time.Now().UnixNano())
		return nil
	})
}

// Remove marks an admitted node for removal. Fails with the not-exist error
// when the node is not admitted.
func (this *Registrar) Remove(nodeID string) (*thispb.Registry, error) {
	return this.apply(func(registry *thispb.Registry) error {
		index := findNode(registry.AdmittedList, nodeID)
		if index < 0 {
			return errs.NewErrNotExist("node %s is not admitted", nodeID)
		}
		node := registry.AdmittedList[index]
		registry.AdmittedList = append(registry.AdmittedList[:index],
			registry.AdmittedList[index+1:]...)
		registry.RemovedList = append(registry.RemovedList, node)
		return nil
	})
}

///////////////////////////////////////////////////////////////////////////////

// findNode returns the index of a node id in a node list, or -1.
func findNode(nodeList []*thispb.NodeInfo, nodeID string) int {
	for index, node := range nodeList {
		if node.GetNodeId() == nodeID {
			return index
		}
	}
	return -1
}

// cloneRegistry returns a deep copy callers can keep.
func cloneRegistry(registry *thispb.Registry) *thispb.Registry {
	return proto.Clone(registry).(*thispb.Registry)
}

// doRefresh replaces the cached roster with the current stored value.
func (this *Registrar) doRefresh() error {
	variable, errGet := this.store.Get(VariableName)
	if errGet != nil {
		if errs.IsNotExist(errGet) {
			this.registry = &thispb.Registry{}
			this.version = nil
			return nil
		}
		return errGet
	}

	registry := &thispb.Registry{}
	if err := proto.Unmarshal(variable.Value, registry); err != nil {
		this.Errorf("could not parse the stored roster: %v", err)
		return errs.NewErrCorrupt("stored roster could not be parsed")
	}
	this.registry = registry
	this.version = variable.Version
	return nil
}

// apply runs one mutating operation against the cached roster and commits
// the result with a compare-and-swap write, retrying with a fresh read on
// conflicts. Operations are serialized; concurrent calls are rejected with
// the retry error after the apply timeout.
func (this *Registrar) apply(op func(*thispb.Registry) error) (
	*thispb.Registry, error) {

	lock, errLock := this.ctlr.TimedLock(this.opts.ApplyTimeout, "registrar")
	if errLock != nil {
		if errs.IsTimeout(errLock) {
			return nil, errs.NewErrRetry("another roster operation is in flight")
		}
		return nil, errLock
	}
	defer lock.Unlock()

	if !this.recovered {
		return nil, errs.NewErrInvalid("roster must be recovered before any " +
			"mutating operation")
	}

	for attempt := 0; attempt < this.opts.MaxApplyRetries; attempt++ {
		newRegistry := cloneRegistry(this.registry)
		if err := op(newRegistry); err != nil {
			return nil, err
		}

		data, errMarshal := proto.Marshal(newRegistry)
		if errMarshal != nil {
			this.Errorf("could not marshal the new roster: %v", errMarshal)
			return nil, errMarshal
		}

		variable, errSet := this.store.Set(VariableName, data, this.version)
		if errSet == nil {
			this.registry = newRegistry
			this.version = variable.Version
			return cloneRegistry(newRegistry), nil
		}
		if !errs.IsConflict(errSet) {
			this.Warningf("could not store the new roster: %v", errSet)
			return nil, errSet
		}

		// Another writer updated the roster; reapply the operation on the
		// fresh value.
		if err := this.doRefresh(); err != nil {
			this.Errorf("could not re-read the roster after a conflict: %v", err)
			return nil, err
		}
	}

	this.Warningf("roster operation gave up after %d conflicts",
		this.opts.MaxApplyRetries)
	return nil, errs.NewErrUnavailable("roster operation could not commit "+
		"in %d attempts", this.opts.MaxApplyRetries)
}
