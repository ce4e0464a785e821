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
// This file defines Log type which is the client facade for the replicated
// log.
//
// THREAD SAFETY
//
// All public functions are thread-safe.
//
// NOTES
//
// A Log object owns at most one live coordinator. Elect constructs a fresh
// coordinator for every attempt because demotion is terminal for a
// coordinator object. Read does not need the writer role; it serves learned
// actions from a local cache and fetches missing positions from the replica
// membership on demand.
//

package replog

import (
	"regexp"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/msg"
	"github.com/ortoo/mesos/thread/ctlr"
	"github.com/ortoo/mesos/wal"

	thispb "github.com/ortoo/mesos/proto/replog"
)

// Options define user configurable settings for a log and its coordinators.
type Options struct {
	// Timeout for the promise phase of an election.
	ElectTimeout time.Duration

	// Timeout for one quorum write.
	WriteTimeout time.Duration

	// Timeout for best-effort learn notifications.
	LearnTimeout time.Duration

	// Timeout for one catch-up read against a single replica.
	ReadTimeout time.Duration

	// Maximum number of learned actions cached in memory. Oldest positions
	// are evicted first.
	MaxCachedActions int
}

// Validate checks if user configuration items are all valid.
func (this *Options) Validate() (status error) {
	if this.ElectTimeout < time.Millisecond {
		err := errs.NewErrInvalid("elect timeout %v is too small",
			this.ElectTimeout)
		status = errs.MergeErrors(status, err)
	}
	if this.WriteTimeout < time.Millisecond {
		err := errs.NewErrInvalid("write timeout %v is too small",
			this.WriteTimeout)
		status = errs.MergeErrors(status, err)
	}
	if this.LearnTimeout < time.Millisecond {
		err := errs.NewErrInvalid("learn timeout %v is too small",
			this.LearnTimeout)
		status = errs.MergeErrors(status, err)
	}
	if this.ReadTimeout < time.Millisecond {
		err := errs.NewErrInvalid("read timeout %v is too small",
			this.ReadTimeout)
		status = errs.MergeErrors(status, err)
	}
	if this.MaxCachedActions < 1 {
		err := errs.NewErrInvalid("cached actions limit must be positive")
		status = errs.MergeErrors(status, err)
	}
	return status
}

// Log implements position based append, truncate and read operations over
// the replicated log.
type Log struct {
	log.Logger

	// The Messenger.
	msn msg.Messenger

	// Resource controller for admission control and synchronization.
	ctlr ctlr.BasicController

	// Quorum broadcast layer over the replica membership.
	network Network

	// Durable proposal number sequence shared by all coordinators created
	// from this log.
	seq proposalSequence

	// Rpc namespace and uid of the replicated log instance.
	namespace string
	uid       string

	// User configurable options.
	opts Options

	// Current coordinator. Nil until the first election; may be demoted.
	coord *Coordinator

	// Bounded cache of learned actions for fast local reads.
	actionCache map[int64]*thispb.LogAction
}

// uidRegexp returns the anchored wal recoverer pattern for an uid, so that
// multiple components sharing one wal never receive each other's records.
func uidRegexp(uid string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(uid) + "$")
}

// Initialize initializes a log instance.
func (this *Log) Initialize(opts *Options, namespace, uid string,
	msn msg.Messenger, lwal wal.WriteAheadLog) (status error) {

	if err := opts.Validate(); err != nil {
		this.Errorf("invalid user options: %v", err)
		return err
	}

	if err := this.seq.initialize(this.Logger, uid+"/seq", lwal); err != nil {
		this.Errorf("could not initialize proposal sequence: %v", err)
		return err
	}

	this.msn = msn
	this.uid = uid
	this.opts = *opts
	this.namespace = namespace
	this.coord = nil
	this.actionCache = make(map[int64]*thispb.LogAction)

	this.Logger = this.NewLogger("log:%s-%s", msn.UID(), uid)
	this.network.Initialize(this.Logger, msn)
	this.ctlr.Initialize(this)
	return nil
}

// Close releases all resources and destroys the object.
func (this *Log) Close() (status error) {
	if err := this.ctlr.Close(); err != nil {
		return err
	}
	if this.coord != nil {
		if err := this.coord.Close(); err != nil {
			status = errs.MergeErrors(status, err)
		}
	}
	if err := this.seq.close(); err != nil {
		status = errs.MergeErrors(status, err)
	}
	return status
}

// SetMembership replaces the replica membership with a new snapshot from the
// external coordination layer.
func (this *Log) SetMembership(replicaList []string) {
	this.network.SetMembership(replicaList)
}

// IsElected returns true if this log currently holds the writer role.
func (this *Log) IsElected() bool {
	lock := this.ctlr.ReadLock("coordinator")
	defer lock.Unlock()
	return this.coord != nil && this.coord.IsElected()
}

// HighPosition returns the next free log position. Fails with the
// not-elected error when this log does not hold the writer role.
func (this *Log) HighPosition() (int64, error) {
	lock := this.ctlr.ReadLock("coordinator")
	defer lock.Unlock()

	if this.coord == nil {
		return -1, errs.NewErrNotElected("log %s has no elected coordinator",
			this.uid)
	}
	return this.coord.HighPosition()
}

// FirstPosition returns the garbage collection floor observed by the current
// coordinator.
func (this *Log) FirstPosition() (int64, error) {
	lock := this.ctlr.ReadLock("coordinator")
	defer lock.Unlock()

	if this.coord == nil {
		return -1, errs.NewErrNotElected("log %s has no elected coordinator",
			this.uid)
	}
	return this.coord.FirstPosition()
}

// Elect attempts to acquire the writer role with a fresh coordinator. On
// failure the log keeps its previous coordinator, which may still be
// elected.
func (this *Log) Elect() (status error) {
	lock, errLock := this.ctlr.TimedLock(this.opts.ElectTimeout, "election")
	if errLock != nil {
		return errLock
	}
	defer lock.Unlock()

	coord := &Coordinator{Logger: this.Logger}
	errInit := coord.Initialize(&this.opts, this.namespace, this.uid, this.msn,
		&this.network, &this.seq)
	if errInit != nil {
		this.Errorf("could not initialize a new coordinator: %v", errInit)
		return errInit
	}

	if err := coord.Elect(); err != nil {
		this.Warningf("election attempt failed: %v", err)
		if errClose := coord.Close(); errClose != nil {
			this.Errorf("could not close failed coordinator: %v", errClose)
		}
		return err
	}

	swapLock := this.ctlr.Lock("coordinator")
	old := this.coord
	this.coord = coord
	swapLock.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			this.Errorf("could not close replaced coordinator: %v", err)
		}
	}
	return nil
}

// Append commits a user payload at the next free position and returns the
// position.
func (this *Log) Append(data []byte) (int64, error) {
	coord, errCoord := this.currentCoordinator()
	if errCoord != nil {
		return -1, errCoord
	}

	position, errAppend := coord.Append(data)
	if errAppend != nil {
		return -1, errAppend
	}

	action := thispb.LogAction{}
	action.Type = thispb.LogAction_APPEND.Enum()
	action.Data = data
	this.cacheActions(map[int64]*thispb.LogAction{position: &action})
	return position, nil
}

// Truncate commits a truncate action, marking all positions below the target
// eligible for garbage collection on the replicas.
func (this *Log) Truncate(to int64) error {
	coord, errCoord := this.currentCoordinator()
	if errCoord != nil {
		return errCoord
	}

	position, errTruncate := coord.Truncate(to)
	if errTruncate != nil {
		return errTruncate
	}

	action := thispb.LogAction{}
	action.Type = thispb.LogAction_TRUNCATE.Enum()
	action.TruncateTo = proto.Int64(to)
	this.cacheActions(map[int64]*thispb.LogAction{position: &action})
	return nil
}

// Read returns the learned actions for positions [begin, end) in position
// order. Positions missing from the local cache are fetched from the replica
// membership; the call fails with the unavailable error when some position
// cannot be resolved, for example, because it was garbage collected
// everywhere or too few replicas are reachable.
func (this *Log) Read(begin, end int64) ([]*thispb.LogAction, error) {
	if begin < 0 || end < begin {
		return nil, errs.NewErrInvalid("invalid read range [%d, %d)", begin, end)
	}

	lock := this.ctlr.Lock("cache")
	defer lock.Unlock()

	var missing []int64
	for position := begin; position < end; position++ {
		if _, ok := this.actionCache[position]; !ok {
			missing = append(missing, position)
		}
	}

	if len(missing) > 0 {
		fetched, errFetch := this.doCatchUp(missing[0], end)
		if errFetch != nil {
			this.Warningf("could not catch up positions %v: %v", missing, errFetch)
		}
		this.doCacheActions(fetched)
	}

	actionList := make([]*thispb.LogAction, 0, end-begin)
	for position := begin; position < end; position++ {
		action, ok := this.actionCache[position]
		if !ok {
			return nil, errs.NewErrUnavailable("position %d could not be resolved "+
				"from any replica", position)
		}
		actionList = append(actionList, proto.Clone(action).(*thispb.LogAction))
	}
	return actionList, nil
}

///////////////////////////////////////////////////////////////////////////////

// currentCoordinator returns the live coordinator handle, or the not-elected
// error when no election has succeeded yet.
func (this *Log) currentCoordinator() (*Coordinator, error) {
	lock := this.ctlr.ReadLock("coordinator")
	defer lock.Unlock()

	if this.coord == nil {
		return nil, errs.NewErrNotElected("log %s has no elected coordinator",
			this.uid)
	}
	return this.coord, nil
}

// doCatchUp fetches learned actions for positions [begin, end) from the
// replica membership, one replica at a time. Replicas that are behind or
// unreachable are skipped; fetching stops as soon as the range is complete.
func (this *Log) doCatchUp(begin, end int64) (
	map[int64]*thispb.LogAction, error) {

	request := thispb.ReadRequest{}
	request.BeginPosition = proto.Int64(begin)
	request.EndPosition = proto.Int64(end)
	message := thispb.LogMessage{ReadRequest: &request}

	var errFetch error
	fetched := make(map[int64]*thispb.LogAction)
	for _, replica := range this.network.Membership() {
		pending := int64(0)
		for position := begin; position < end; position++ {
			if _, ok := this.actionCache[position]; ok {
				continue
			}
			if _, ok := fetched[position]; ok {
				continue
			}
			pending++
		}
		if pending == 0 {
			break
		}

		reqHeader := this.msn.NewRequest(this.namespace, this.uid,
			"Replica.Read", this.opts.ReadTimeout)
		errSend := msg.SendProto(this.msn, replica, reqHeader, &message)
		if errSend != nil {
			this.Warningf("could not send read request to replica %s: %v", replica,
				errSend)
			errFetch = errs.MergeErrors(errFetch, errSend)
			this.msn.CloseMessage(reqHeader)
			continue
		}

		response := thispb.LogMessage{}
		_, errRecv := msg.ReceiveProto(this.msn, reqHeader, &response)
		this.msn.CloseMessage(reqHeader)
		if errRecv != nil {
			this.Warningf("could not receive read response from replica %s: %v",
				replica, errRecv)
			errFetch = errs.MergeErrors(errFetch, errRecv)
			continue
		}

		read := response.GetReadResponse()
		if read == nil {
			continue
		}
		for _, entry := range read.LearnedList {
			fetched[entry.GetPosition()] = entry.GetAction()
		}
	}
	return fetched, errFetch
}

// cacheActions inserts learned actions into the cache under the cache lock.
func (this *Log) cacheActions(actionMap map[int64]*thispb.LogAction) {
	lock := this.ctlr.Lock("cache")
	defer lock.Unlock()
	this.doCacheActions(actionMap)
}

// doCacheActions inserts learned actions into the cache and evicts the
// lowest positions when the cache grows beyond its configured bound.
func (this *Log) doCacheActions(actionMap map[int64]*thispb.LogAction) {
	for position, action := range actionMap {
		this.actionCache[position] = action
	}
	for len(this.actionCache) > this.opts.MaxCachedActions {
		lowest := int64(-1)
		for position := range this.actionCache {
			if lowest < 0 || position < lowest {
				lowest = position
			}
		}
		delete(this.actionCache, lowest)
	}
}
