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
// This file defines Coordinator type which implements the single writer role
// for the replicated log.
//
// THREAD SAFETY
//
// All public functions are thread-safe. Append and truncate operations are
// strictly serialized; only one write is in flight at a time.
//
// NOTES
//
// A coordinator object runs at most one election. Once demoted -- by a
// failed election, a replica reporting a higher promise, or a quorum failure
// -- it rejects all further operations with the not-elected error, and a
// fresh coordinator object must be constructed to re-attempt election.
// Demotion needs no distributed coordination: proposal number fencing at the
// replicas guarantees that a stale coordinator cannot commit anyway.
//

package replog

import (
	"sync/atomic"

	"github.com/golang/protobuf/proto"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/msg"
	"github.com/ortoo/mesos/thread/ctlr"

	thispb "github.com/ortoo/mesos/proto/replog"
)

// Coordinator life cycle states.
const (
	coordinatorUnelected int32 = iota
	coordinatorElecting
	coordinatorElected
	coordinatorDemoted
)

// Coordinator implements the two phase, single writer protocol against a
// quorum of replicas.
type Coordinator struct {
	log.Logger

	// The Messenger.
	msn msg.Messenger

	// Resource controller serializing append and truncate operations.
	ctlr ctlr.BasicController

	// Quorum broadcast layer over the replica membership.
	network *Network

	// Durable proposal number sequence shared by all coordinators of this
	// process.
	seq *proposalSequence

	// Rpc namespace and uid of the replicated log instance.
	namespace string
	uid       string

	// User configurable options.
	opts Options

	// Atomic life cycle state.
	state int32

	// Proposal number won by this coordinator's election.
	proposal int64

	// Next free log position. Valid only when elected.
	nextPosition int64

	// Garbage collection floor learned during election. Positions below it
	// may have been discarded by the replicas and are never written to.
	firstPosition int64
}

// Initialize initializes a coordinator instance.
func (this *Coordinator) Initialize(opts *Options, namespace, uid string,
	msn msg.Messenger, network *Network, seq *proposalSequence) error {

	if err := opts.Validate(); err != nil {
		this.Errorf("invalid user options: %v", err)
		return err
	}

	this.msn = msn
	this.network = network
	this.seq = seq
	this.uid = uid
	this.opts = *opts
	this.namespace = namespace
	this.proposal = -1
	this.state = coordinatorUnelected

	this.Logger = this.NewLogger("coordinator:%s-%s", msn.UID(), uid)
	this.ctlr.Initialize(this)
	return nil
}

// Close releases all resources and destroys the object.
func (this *Coordinator) Close() error {
	this.demote()
	return this.ctlr.Close()
}

// IsElected returns true if this coordinator holds the writer role.
func (this *Coordinator) IsElected() bool {
	return atomic.LoadInt32(&this.state) == coordinatorElected
}

// Proposal returns the proposal number used by this coordinator.
func (this *Coordinator) Proposal() int64 {
	return this.proposal
}

// HighPosition returns the next free log position.
func (this *Coordinator) HighPosition() (int64, error) {
	lock := this.ctlr.ReadLock("coordinator")
	defer lock.Unlock()

	if !this.IsElected() {
		return -1, errs.NewErrNotElected("coordinator with proposal %d was "+
			"demoted", this.proposal)
	}
	return this.nextPosition, nil
}

// FirstPosition returns the garbage collection floor observed during the
// election. Reads below it may fail because replicas have discarded the
// positions.
func (this *Coordinator) FirstPosition() (int64, error) {
	lock := this.ctlr.ReadLock("coordinator")
	defer lock.Unlock()

	if !this.IsElected() {
		return -1, errs.NewErrNotElected("coordinator with proposal %d was "+
			"demoted", this.proposal)
	}
	return this.firstPosition, nil
}

// Elect runs the promise phase against a quorum of replicas and, on success,
// completes every position some replica has voted on but not learned. A
// coordinator object can run only one election; any failure demotes it
// permanently.
func (this *Coordinator) Elect() (status error) {
	swapped := atomic.CompareAndSwapInt32(&this.state, coordinatorUnelected,
		coordinatorElecting)
	if !swapped {
		return errs.NewErrInvalid("coordinator objects can run only one election")
	}
	defer func() {
		if status != nil {
			this.demote()
		}
	}()

	offset, stride := this.network.ProposerSlot(this.msn.UID())
	proposal, errNext := this.seq.Next(offset, stride)
	if errNext != nil {
		this.Errorf("could not issue a new proposal number: %v", errNext)
		return errs.NewErrElectionFailed("could not issue a proposal number: %v",
			errNext)
	}
	this.proposal = proposal

	quorum := this.network.MajoritySize()
	reqHeader := this.msn.NewRequest(this.namespace, this.uid,
		"Replica.Promise", this.opts.ElectTimeout)
	defer this.msn.CloseMessage(reqHeader)

	request := thispb.PromiseRequest{}
	request.Proposal = proto.Int64(proposal)
	request.FirstPosition = proto.Int64(0)
	message := thispb.LogMessage{PromiseRequest: &request}

	granted := func(response *Response) bool {
		promise := response.Message.GetPromiseResponse()
		return promise != nil && promise.GetGranted() &&
			promise.GetPromisedProposal() == proposal
	}
	responseList, errCast := this.network.Broadcast(reqHeader, &message,
		quorum, granted)
	for _, response := range responseList {
		promise := response.Message.GetPromiseResponse()
		if promise != nil && promise.GetPromisedProposal() > proposal {
			this.seq.Observe(promise.GetPromisedProposal())
		}
	}
	if errCast != nil {
		this.Warningf("election with proposal %d could not get a promise "+
			"quorum: %v", proposal, errCast)
		return errs.NewErrElectionFailed("no promise quorum for proposal %d: %v",
			proposal, errCast)
	}

	// Adopt, for every position, the action voted with the highest proposal
	// number seen in the promise quorum. A position some quorum may have
	// decided must never get a different value from this coordinator.
	maxPosition := int64(-1)
	firstPosition := int64(0)
	learnedMap := make(map[int64]*thispb.LogAction)
	votedMap := make(map[int64]*thispb.LogAction)
	votedProposalMap := make(map[int64]int64)
	for _, response := range responseList {
		promise := response.Message.GetPromiseResponse()
		if promise == nil || !promise.GetGranted() {
			continue
		}
		// A replica raises its floor only on a learned truncate, so the
		// highest floor in the quorum is decided and positions below it must
		// never be rewritten.
		if begin := promise.GetBeginPosition(); begin > firstPosition {
			firstPosition = begin
		}
		for _, statepb := range promise.PositionStateList {
			position := statepb.GetPosition()
			if position > maxPosition {
				maxPosition = position
			}
			if statepb.GetLearned() {
				known, ok := learnedMap[position]
				if ok && !proto.Equal(known, statepb.GetVotedAction()) {
					this.Fatalf("replicas learned different actions %s and %s for "+
						"position %d", known, statepb.GetVotedAction(), position)
				}
				learnedMap[position] = statepb.GetVotedAction()
				continue
			}
			if statepb.VotedAction == nil {
				continue
			}
			current, ok := votedProposalMap[position]
			if !ok || statepb.GetVotedProposal() > current {
				votedProposalMap[position] = statepb.GetVotedProposal()
				votedMap[position] = statepb.GetVotedAction()
			}
		}
	}
	this.firstPosition = firstPosition
	this.nextPosition = maxPosition + 1
	if this.nextPosition < firstPosition {
		this.nextPosition = firstPosition
	}

	// Complete every position that is not positively learned: re-propose the
	// adopted action under the new proposal, or a nop when no replica voted.
	for position := firstPosition; position <= maxPosition; position++ {
		if _, ok := learnedMap[position]; ok {
			continue
		}
		action := votedMap[position]
		if action == nil {
			action = &thispb.LogAction{Type: thispb.LogAction_NOP.Enum()}
		}
		if err := this.doWrite(position, action); err != nil {
			this.Errorf("could not complete position %d during election: %v",
				position, err)
			return errs.NewErrElectionFailed("could not complete position %d: %v",
				position, err)
		}
	}

	atomic.StoreInt32(&this.state, coordinatorElected)
	this.Infof("coordinator is elected with proposal %d and next position %d",
		proposal, this.nextPosition)
	return nil
}

// Append commits a user payload at the next free position.
func (this *Coordinator) Append(data []byte) (int64, error) {
	action := thispb.LogAction{}
	action.Type = thispb.LogAction_APPEND.Enum()
	action.Data = data
	return this.doAppend(&action)
}

// Truncate commits a truncate action at the next free position, marking all
// positions below the target eligible for garbage collection.
func (this *Coordinator) Truncate(to int64) (int64, error) {
	action := thispb.LogAction{}
	action.Type = thispb.LogAction_TRUNCATE.Enum()
	action.TruncateTo = proto.Int64(to)
	return this.doAppend(&action)
}

///////////////////////////////////////////////////////////////////////////////

func (this *Coordinator) demote() {
	atomic.StoreInt32(&this.state, coordinatorDemoted)
}

// doAppend assigns the next free position to an action and commits it on a
// quorum. Operations are serialized; the next write is not issued until the
// previous one completes or fails.
func (this *Coordinator) doAppend(action *thispb.LogAction) (int64, error) {
	lock := this.ctlr.Lock("coordinator")
	defer lock.Unlock()

	if !this.IsElected() {
		return -1, errs.NewErrNotElected("coordinator with proposal %d was "+
			"demoted", this.proposal)
	}

	position := this.nextPosition
	if err := this.doWrite(position, action); err != nil {
		return -1, err
	}
	this.nextPosition = position + 1
	if action.GetType() == thispb.LogAction_TRUNCATE {
		if to := action.GetTruncateTo(); to > this.firstPosition {
			this.firstPosition = to
		}
	}
	return position, nil
}

// doWrite commits an action at a position on a quorum of replicas and
// broadcasts a best-effort learn notification. Any replica reporting a
// higher promise, and any failure to reach a quorum, demotes this
// coordinator permanently.
func (this *Coordinator) doWrite(position int64,
	action *thispb.LogAction) error {

	quorum := this.network.MajoritySize()
	reqHeader := this.msn.NewRequest(this.namespace, this.uid,
		"Replica.Write", this.opts.WriteTimeout)
	defer this.msn.CloseMessage(reqHeader)

	request := thispb.WriteRequest{}
	request.Proposal = proto.Int64(this.proposal)
	request.Position = proto.Int64(position)
	request.Action = action
	message := thispb.LogMessage{WriteRequest: &request}

	accepted := func(response *Response) bool {
		write := response.Message.GetWriteResponse()
		return write != nil && write.GetPromisedProposal() == this.proposal
	}
	responseList, errCast := this.network.Broadcast(reqHeader, &message,
		quorum, accepted)
	for _, response := range responseList {
		write := response.Message.GetWriteResponse()
		if write != nil && write.GetPromisedProposal() > this.proposal {
			promised := write.GetPromisedProposal()
			this.seq.Observe(promised)
			this.Warningf("replica %s has promised proposal %d above %d",
				response.Peer, promised, this.proposal)
			this.demote()
			return errs.NewErrNotElected("replica %s promised proposal %d above "+
				"%d", response.Peer, promised, this.proposal)
		}
	}
	if errCast != nil {
		this.Warningf("write for position %d could not reach a quorum: %v",
			position, errCast)
		this.demote()
		return errs.NewErrNotElected("no write quorum for position %d: %v",
			position, errCast)
	}

	// Best-effort learn broadcast; catch-up fills in any replica that misses
	// it.
	learnHeader := this.msn.NewRequest(this.namespace, this.uid,
		"Replica.Learn", this.opts.LearnTimeout)
	entry := thispb.LearnedEntry{}
	entry.Position = proto.Int64(position)
	entry.Action = action
	learnRequest := thispb.LearnRequest{}
	learnRequest.LearnedList = append(learnRequest.LearnedList, &entry)
	learnMessage := thispb.LogMessage{LearnRequest: &learnRequest}
	_, errSend := msg.SendAllProto(this.msn, this.network.Membership(),
		learnHeader, &learnMessage)
	if errSend != nil {
		this.Warningf("could not send learn notifications for position %d: %v",
			position, errSend)
	}
	this.msn.CloseMessage(learnHeader)
	return nil
}
