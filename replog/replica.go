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
// This file defines Replica type which implements the durable consensus
// member of the replicated log.
//
// THREAD SAFETY
//
// All public functions are thread-safe.
//
// NOTES
//
// A replica grants a promise iff the rpc proposal is strictly greater than
// the highest proposal it has promised, and accepts a write iff the rpc
// proposal is equal to its current promise. Both updates are persisted into
// the wal before the rpc response, so an acknowledged promise or vote is
// never forgotten across a crash.
//
// Positions below the highest learned truncate target are eligible for
// garbage collection. They are physically dropped when the next checkpoint is
// taken; until then they are simply not served by read rpcs.
//

package replog

import (
	"sort"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/msg"
	"github.com/ortoo/mesos/thread/ctlr"
	"github.com/ortoo/mesos/wal"

	msgpb "github.com/ortoo/mesos/proto/msg"
	thispb "github.com/ortoo/mesos/proto/replog"
)

// ReplicaOptions define user configurable settings for a replica.
type ReplicaOptions struct {
	// Maximum number of learned entries returned by one read rpc.
	MaxReadBatchSize int
}

// Validate checks if user configuration items are all valid.
func (this *ReplicaOptions) Validate() (status error) {
	if this.MaxReadBatchSize < 1 {
		err := errs.NewErrInvalid("read batch size must be positive")
		status = errs.MergeErrors(status, err)
	}
	return status
}

// Replica implements the persistent consensus member for one replicated log.
type Replica struct {
	log.Logger

	// The Messenger.
	msn msg.Messenger

	// Write ahead log where all consensus state is persisted.
	wal wal.WriteAheadLog

	// Resource controller for admission control and synchronization.
	ctlr ctlr.BasicController

	// Rpc namespace for the replicated log rpcs.
	namespace string

	// Globally unique id for the replicated log instance. All replicas of one
	// log share the same uid.
	uid string

	// User configurable options.
	opts ReplicaOptions

	//
	// Durable replica state.
	//

	// Highest proposal number ever promised. Starts at -1.
	promisedProposal int64

	// Mapping from position to the highest proposal voted on that position and
	// the action voted with it.
	votedProposalMap map[int64]int64
	votedActionMap   map[int64]*thispb.LogAction

	// Mapping from position to the learned (decided) action.
	learnedMap map[int64]*thispb.LogAction

	// Smallest position that is not eligible for garbage collection. Raised by
	// learned truncate actions.
	beginPosition int64
}

// ReplicaRPCList returns the list of rpcs handled by replica objects.
func ReplicaRPCList() []string {
	return []string{"Replica.Promise", "Replica.Write", "Replica.Learn",
		"Replica.Read", "Replica.Missing", "Replica.Status"}
}

// Initialize initializes a replica instance.
func (this *Replica) Initialize(opts *ReplicaOptions, namespace, uid string,
	msn msg.Messenger, lwal wal.WriteAheadLog) (status error) {

	if err := opts.Validate(); err != nil {
		this.Errorf("invalid user options: %v", err)
		return err
	}

	if err := lwal.ConfigureRecoverer(uidRegexp(uid), this); err != nil {
		this.Errorf("could not configure wal recoverer: %v", err)
		return err
	}

	this.msn = msn
	this.wal = lwal
	this.uid = uid
	this.opts = *opts
	this.namespace = namespace
	this.promisedProposal = -1
	this.beginPosition = 0
	this.votedProposalMap = make(map[int64]int64)
	this.votedActionMap = make(map[int64]*thispb.LogAction)
	this.learnedMap = make(map[int64]*thispb.LogAction)

	this.Logger = this.NewLogger("replica:%s-%s", this.msn.UID(), uid)
	this.ctlr.Initialize(this)
	return nil
}

// Close releases all resources and destroys the object.
func (this *Replica) Close() (status error) {
	if err := this.ctlr.Close(); err != nil {
		return err
	}

	if err := this.wal.ConfigureRecoverer(uidRegexp(this.uid), nil); err != nil {
		this.Errorf("could not unconfigure wal recoverer: %v", err)
		status = errs.MergeErrors(status, err)
	}
	return status
}

// PromisedProposal returns the highest proposal promised by this replica.
func (this *Replica) PromisedProposal() int64 {
	lock := this.ctlr.ReadLock("replica")
	defer lock.Unlock()
	return this.promisedProposal
}

// BeginPosition returns the garbage collection floor for this replica.
func (this *Replica) BeginPosition() int64 {
	lock := this.ctlr.ReadLock("replica")
	defer lock.Unlock()
	return this.beginPosition
}

// LearnedAction returns the learned action for a position, or nil when the
// position is not yet learned or was garbage collected.
func (this *Replica) LearnedAction(position int64) *thispb.LogAction {
	lock := this.ctlr.ReadLock("replica")
	defer lock.Unlock()

	action, ok := this.learnedMap[position]
	if !ok {
		return nil
	}
	return proto.Clone(action).(*thispb.LogAction)
}

///////////////////////////////////////////////////////////////////////////////

// PromiseRPC implements the Replica.Promise rpc.
func (this *Replica) PromiseRPC(reqHeader *msgpb.Header,
	request *thispb.PromiseRequest) (status error) {

	lock, errLock := this.ctlr.TimedLock(msg.RequestTimeout(reqHeader),
		"replica")
	if errLock != nil {
		return errLock
	}
	defer lock.Unlock()

	coordinator := reqHeader.GetMessengerId()
	proposal := request.GetProposal()

	response := thispb.PromiseResponse{}
	if proposal <= this.promisedProposal {
		// The rejection is explicit; a promised proposal equal to the request
		// proposal must never read as a grant.
		response.Granted = proto.Bool(false)
		response.PromisedProposal = proto.Int64(this.promisedProposal)
		message := thispb.LogMessage{PromiseResponse: &response}
		errSend := msg.SendResponseProto(this.msn, reqHeader, &message)
		if errSend != nil {
			this.Errorf("could not send promise rejection to %s: %v", coordinator,
				errSend)
			return errSend
		}
		return nil
	}

	// Persist the promise before replying, so a crash after the response
	// cannot roll it back.
	change := thispb.ReplicaChange{}
	change.PromisedProposal = proto.Int64(proposal)
	if err := this.doUpdateReplica(&change); err != nil {
		this.Errorf("could not commit promise for %s: %v", coordinator, err)
		return err
	}

	first := request.GetFirstPosition()
	if first < this.beginPosition {
		first = this.beginPosition
	}
	for _, position := range this.knownPositions(first) {
		statepb := thispb.PositionState{}
		statepb.Position = proto.Int64(position)
		if action, ok := this.learnedMap[position]; ok {
			statepb.Learned = proto.Bool(true)
			statepb.VotedAction = action
			if votedProposal, ok := this.votedProposalMap[position]; ok {
				statepb.VotedProposal = proto.Int64(votedProposal)
			}
		} else {
			statepb.VotedProposal = proto.Int64(this.votedProposalMap[position])
			statepb.VotedAction = this.votedActionMap[position]
		}
		response.PositionStateList = append(response.PositionStateList, &statepb)
	}

	response.Granted = proto.Bool(true)
	response.PromisedProposal = proto.Int64(proposal)
	response.BeginPosition = proto.Int64(this.beginPosition)
	message := thispb.LogMessage{PromiseResponse: &response}
	if err := msg.SendResponseProto(this.msn, reqHeader, &message); err != nil {
		this.Errorf("could not send promise response to %s: %v", coordinator,
			err)
		return err
	}
	return nil
}

// WriteRPC implements the Replica.Write rpc.
func (this *Replica) WriteRPC(reqHeader *msgpb.Header,
	request *thispb.WriteRequest) (status error) {

	lock, errLock := this.ctlr.TimedLock(msg.RequestTimeout(reqHeader),
		"replica")
	if errLock != nil {
		return errLock
	}
	defer lock.Unlock()

	coordinator := reqHeader.GetMessengerId()
	proposal := request.GetProposal()
	position := request.GetPosition()

	response := thispb.WriteResponse{}
	if proposal != this.promisedProposal {
		response.PromisedProposal = proto.Int64(this.promisedProposal)
		message := thispb.LogMessage{WriteResponse: &response}
		errSend := msg.SendResponseProto(this.msn, reqHeader, &message)
		if errSend != nil {
			this.Errorf("could not send write rejection to %s: %v", coordinator,
				errSend)
			return errSend
		}
		return nil
	}

	// Garbage collected positions are already decided; acknowledge without
	// depositing a vote that the next checkpoint would drop anyway.
	if position < this.beginPosition {
		response.PromisedProposal = proto.Int64(proposal)
		message := thispb.LogMessage{WriteResponse: &response}
		if err := msg.SendResponseProto(this.msn, reqHeader, &message); err != nil {
			this.Errorf("could not send write response to %s: %v", coordinator,
				err)
			return err
		}
		return nil
	}

	change := thispb.ReplicaChange{}
	vote := thispb.ReplicaChange_Vote{}
	vote.Position = proto.Int64(position)
	vote.Proposal = proto.Int64(proposal)
	vote.Action = request.GetAction()
	change.VoteList = append(change.VoteList, &vote)
	if err := this.doUpdateReplica(&change); err != nil {
		this.Errorf("could not commit vote for %s: %v", coordinator, err)
		return err
	}

	response.PromisedProposal = proto.Int64(proposal)
	message := thispb.LogMessage{WriteResponse: &response}
	if err := msg.SendResponseProto(this.msn, reqHeader, &message); err != nil {
		this.Errorf("could not send write response to %s: %v", coordinator, err)
		return err
	}
	return nil
}

// LearnRPC implements the Replica.Learn rpc. Learn requests are best-effort
// broadcasts, so no response is sent.
func (this *Replica) LearnRPC(reqHeader *msgpb.Header,
	request *thispb.LearnRequest) (status error) {

	lock, errLock := this.ctlr.TimedLock(msg.RequestTimeout(reqHeader),
		"replica")
	if errLock != nil {
		return errLock
	}
	defer lock.Unlock()

	change := thispb.ReplicaChange{}
	for _, entry := range request.LearnedList {
		position := entry.GetPosition()
		// Garbage collected positions must not be resurrected by late learn
		// messages.
		if position < this.beginPosition {
			continue
		}
		if known, ok := this.learnedMap[position]; ok {
			if !proto.Equal(known, entry.GetAction()) {
				this.Errorf("refusing to learn conflicting action for position %d: "+
					"have %s, got %s", position, known, entry.GetAction())
				return errs.NewErrCorrupt("conflicting learn for position %d",
					position)
			}
			continue
		}
		change.LearnedList = append(change.LearnedList, entry)
	}

	if len(change.LearnedList) == 0 {
		return nil
	}
	if err := this.doUpdateReplica(&change); err != nil {
		this.Errorf("could not commit learned actions: %v", err)
		return err
	}
	return nil
}

// ReadRPC implements the Replica.Read rpc serving learned actions for
// catch-up. Positions below the garbage collection floor are not served.
func (this *Replica) ReadRPC(reqHeader *msgpb.Header,
	request *thispb.ReadRequest) (status error) {

	lock := this.ctlr.ReadLock("replica")
	defer lock.Unlock()

	begin := request.GetBeginPosition()
	if begin < this.beginPosition {
		begin = this.beginPosition
	}
	end := request.GetEndPosition()

	response := thispb.ReadResponse{}
	for position := begin; position < end; position++ {
		if len(response.LearnedList) >= this.opts.MaxReadBatchSize {
			break
		}
		action, ok := this.learnedMap[position]
		if !ok {
			continue
		}
		entry := thispb.LearnedEntry{}
		entry.Position = proto.Int64(position)
		entry.Action = action
		response.LearnedList = append(response.LearnedList, &entry)
	}

	message := thispb.LogMessage{ReadResponse: &response}
	if err := msg.SendResponseProto(this.msn, reqHeader, &message); err != nil {
		this.Errorf("could not send read response to %s: %v",
			reqHeader.GetMessengerId(), err)
		return err
	}
	return nil
}

// MissingRPC implements the Replica.Missing rpc reporting unlearned positions
// in the requested range.
func (this *Replica) MissingRPC(reqHeader *msgpb.Header,
	request *thispb.MissingRequest) (status error) {

	lock := this.ctlr.ReadLock("replica")
	defer lock.Unlock()

	begin := request.GetBeginPosition()
	if begin < this.beginPosition {
		begin = this.beginPosition
	}
	end := request.GetEndPosition()

	response := thispb.MissingResponse{}
	for position := begin; position < end; position++ {
		if _, ok := this.learnedMap[position]; !ok {
			response.PositionList = append(response.PositionList, position)
		}
	}

	message := thispb.LogMessage{MissingResponse: &response}
	if err := msg.SendResponseProto(this.msn, reqHeader, &message); err != nil {
		this.Errorf("could not send missing response to %s: %v",
			reqHeader.GetMessengerId(), err)
		return err
	}
	return nil
}

// StatusRPC implements the Replica.Status rpc.
func (this *Replica) StatusRPC(reqHeader *msgpb.Header,
	request *thispb.StatusRequest) (status error) {

	lock := this.ctlr.ReadLock("replica")
	defer lock.Unlock()

	firstUnlearned := this.beginPosition
	for {
		if _, ok := this.learnedMap[firstUnlearned]; !ok {
			break
		}
		firstUnlearned++
	}

	response := thispb.StatusResponse{}
	response.PromisedProposal = proto.Int64(this.promisedProposal)
	response.BeginPosition = proto.Int64(this.beginPosition)
	response.FirstUnlearnedPosition = proto.Int64(firstUnlearned)
	response.TimestampNsecs = proto.Int64(time.Now().UnixNano())

	message := thispb.LogMessage{StatusResponse: &response}
	if err := msg.SendResponseProto(this.msn, reqHeader, &message); err != nil {
		this.Errorf("could not send status response to %s: %v",
			reqHeader.GetMessengerId(), err)
		return err
	}
	return nil
}

// Dispatch dispatches incoming rpc requests.
func (this *Replica) Dispatch(header *msgpb.Header, data []byte) error {
	if header.Request == nil {
		this.Errorf("incoming message %s is not a rpc request", header)
		return errs.ErrInvalid
	}
	request := header.GetRequest()
	if request.GetObjectId() != this.uid {
		this.Errorf("rpc request %s doesn't belong to this instance", header)
		return errs.ErrInvalid
	}

	message := thispb.LogMessage{}
	if err := proto.Unmarshal(data, &message); err != nil {
		this.Errorf("could not parse incoming message %s", header)
		return err
	}

	switch {
	case message.PromiseRequest != nil:
		return this.PromiseRPC(header, message.GetPromiseRequest())

	case message.WriteRequest != nil:
		return this.WriteRPC(header, message.GetWriteRequest())

	case message.LearnRequest != nil:
		return this.LearnRPC(header, message.GetLearnRequest())

	case message.ReadRequest != nil:
		return this.ReadRPC(header, message.GetReadRequest())

	case message.MissingRequest != nil:
		return this.MissingRPC(header, message.GetMissingRequest())

	case message.StatusRequest != nil:
		return this.StatusRPC(header, message.GetStatusRequest())

	default:
		this.Errorf("unknown/invalid rpc request %s", header)
		return errs.ErrInvalid
	}
}

///////////////////////////////////////////////////////////////////////////////

// RecoverCheckpoint recovers replica state from a checkpoint record.
func (this *Replica) RecoverCheckpoint(uid string, data []byte) error {
	if uid != this.uid {
		this.Errorf("checkpoint record doesn't belong to this replica")
		return errs.ErrInvalid
	}

	walRecord := thispb.WALRecord{}
	if err := proto.Unmarshal(data, &walRecord); err != nil {
		this.Errorf("could not parse checkpoint wal record: %v", err)
		return errs.NewErrCorrupt("checkpoint record could not be parsed")
	}
	if walRecord.Checkpoint == nil {
		this.Errorf("checkpoint record has no replica state")
		return errs.ErrCorrupt
	}

	checkpoint := walRecord.GetCheckpoint()
	this.promisedProposal = checkpoint.GetPromisedProposal()
	this.beginPosition = checkpoint.GetBeginPosition()
	for _, vote := range checkpoint.VoteList {
		this.votedProposalMap[vote.GetPosition()] = vote.GetProposal()
		this.votedActionMap[vote.GetPosition()] = vote.GetAction()
	}
	for _, entry := range checkpoint.LearnedList {
		this.learnedMap[entry.GetPosition()] = entry.GetAction()
	}
	return nil
}

// RecoverChange recovers an update from a change record.
func (this *Replica) RecoverChange(lsn wal.LSN, uid string,
	data []byte) error {

	if uid != this.uid {
		this.Errorf("change record doesn't belong to this replica")
		return errs.ErrInvalid
	}

	walRecord := thispb.WALRecord{}
	if err := proto.Unmarshal(data, &walRecord); err != nil {
		this.Errorf("could not parse change record: %v", err)
		return errs.NewErrCorrupt("change record could not be parsed")
	}
	if walRecord.ReplicaChange == nil {
		this.Errorf("invalid/corrupt wal change record: %s", walRecord)
		return errs.ErrCorrupt
	}
	return this.doUpdateReplica(walRecord.GetReplicaChange())
}

// TakeCheckpoint saves current replica state as a wal checkpoint and drops
// garbage collected positions.
func (this *Replica) TakeCheckpoint() (status error) {
	lock := this.ctlr.Lock("replica")
	defer lock.Unlock()

	// Garbage collected positions are dropped here; they are never served
	// after this point, even across restarts.
	for position := range this.learnedMap {
		if position < this.beginPosition {
			delete(this.learnedMap, position)
			delete(this.votedProposalMap, position)
			delete(this.votedActionMap, position)
		}
	}
	for position := range this.votedProposalMap {
		if position < this.beginPosition {
			delete(this.votedProposalMap, position)
			delete(this.votedActionMap, position)
		}
	}

	checkpoint := thispb.ReplicaCheckpoint{}
	checkpoint.PromisedProposal = proto.Int64(this.promisedProposal)
	checkpoint.BeginPosition = proto.Int64(this.beginPosition)
	for _, position := range this.knownPositions(this.beginPosition) {
		if votedProposal, ok := this.votedProposalMap[position]; ok {
			vote := thispb.ReplicaChange_Vote{}
			vote.Position = proto.Int64(position)
			vote.Proposal = proto.Int64(votedProposal)
			vote.Action = this.votedActionMap[position]
			checkpoint.VoteList = append(checkpoint.VoteList, &vote)
		}
		if action, ok := this.learnedMap[position]; ok {
			entry := thispb.LearnedEntry{}
			entry.Position = proto.Int64(position)
			entry.Action = action
			checkpoint.LearnedList = append(checkpoint.LearnedList, &entry)
		}
	}

	if err := this.wal.BeginCheckpoint(); err != nil {
		this.Errorf("could not begin wal checkpoint: %v", err)
		return err
	}
	walRecord := thispb.WALRecord{}
	walRecord.Checkpoint = &checkpoint
	errAppend := wal.AppendCheckpointProto(this.wal, this.uid, &walRecord)
	if errAppend != nil {
		this.Errorf("could not append checkpoint record: %v", errAppend)
		if err := this.wal.EndCheckpoint(false); err != nil {
			this.Errorf("could not cancel wal checkpoint: %v", err)
			errAppend = errs.MergeErrors(errAppend, err)
		}
		return errAppend
	}
	if err := this.wal.EndCheckpoint(true); err != nil {
		this.Errorf("could not commit wal checkpoint: %v", err)
		return err
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////

// knownPositions returns every position at or above first with a vote or a
// learned action, in increasing order.
func (this *Replica) knownPositions(first int64) []int64 {
	positionSet := make(map[int64]struct{})
	for position := range this.votedProposalMap {
		if position >= first {
			positionSet[position] = struct{}{}
		}
	}
	for position := range this.learnedMap {
		if position >= first {
			positionSet[position] = struct{}{}
		}
	}

	positionList := make([]int64, 0, len(positionSet))
	for position := range positionSet {
		positionList = append(positionList, position)
	}
	sort.Sort(Int64Slice(positionList))
	return positionList
}

// doUpdateReplica persists a change record and applies it to the in-memory
// state. The change record write is skipped during wal recovery.
func (this *Replica) doUpdateReplica(change *thispb.ReplicaChange) error {
	if !this.wal.IsRecovering() {
		walRecord := thispb.WALRecord{}
		walRecord.ReplicaChange = change
		_, errSync := wal.SyncChangeProto(this.wal, this.uid, &walRecord)
		if errSync != nil {
			this.Errorf("could not write replica change record: %v", errSync)
			return errSync
		}
	}

	if change.PromisedProposal != nil {
		this.promisedProposal = change.GetPromisedProposal()
	}

	for _, vote := range change.VoteList {
		position := vote.GetPosition()
		this.votedProposalMap[position] = vote.GetProposal()
		this.votedActionMap[position] = vote.GetAction()
	}

	for _, entry := range change.LearnedList {
		position := entry.GetPosition()
		action := entry.GetAction()
		this.learnedMap[position] = action
		if action.GetType() == thispb.LogAction_TRUNCATE {
			if to := action.GetTruncateTo(); to > this.beginPosition {
				this.beginPosition = to
			}
		}
	}
	return nil
}
