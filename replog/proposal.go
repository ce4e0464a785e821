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
// This file defines proposalSequence type which persists the most recent
// proposal number issued by coordinators of the local process.
//
// THREAD SAFETY
//
// All functions are thread-safe.
//
// NOTES
//
// Proposal numbers issued by different processes must never collide: two
// coordinators sharing a number could each mistake the other's promises for
// their own. The caller therefore partitions the number space across the
// membership -- process i issues only numbers x with x % stride == i -- and
// the sequence picks the smallest number in that residue class strictly
// above every number this process issued before and every conflicting
// promise it has observed.
//
// A wal checkpoint taken by a co-resident component may trim this
// sequence's change records, in which case a restart can re-issue an old
// number of its own class. No replica grants the same number twice and
// rejections are explicit in the promise response, so a reused number only
// costs a failed election, and the rejections observed there raise the
// floor for the retry.
//

package replog

import (
	"sync"

	"github.com/golang/protobuf/proto"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/wal"

	thispb "github.com/ortoo/mesos/proto/replog"
)

type proposalSequence struct {
	log.Logger

	// Write ahead log where proposal numbers are persisted.
	wal wal.WriteAheadLog

	// Uid for the wal records of this sequence.
	uid string

	// Mutex protecting the fields below.
	mutex sync.Mutex

	// Most recent proposal number issued, persisted in the wal. Starts at -1.
	lastProposal int64

	// Highest conflicting proposal observed from replica rejections. Not
	// persisted; it only speeds up convergence of re-elections.
	observed int64
}

func (this *proposalSequence) initialize(logger log.Logger, uid string,
	lwal wal.WriteAheadLog) error {

	if err := lwal.ConfigureRecoverer(uidRegexp(uid), this); err != nil {
		return err
	}

	this.Logger = logger
	this.wal = lwal
	this.uid = uid
	this.lastProposal = -1
	this.observed = -1
	return nil
}

func (this *proposalSequence) close() error {
	return this.wal.ConfigureRecoverer(uidRegexp(this.uid), nil)
}

// Observe raises the floor for future proposal numbers after a replica
// reported a higher promised proposal.
func (this *proposalSequence) Observe(proposal int64) {
	this.mutex.Lock()
	if proposal > this.observed {
		this.observed = proposal
	}
	this.mutex.Unlock()
}

// Next persists and returns a proposal number strictly greater than every
// number issued before and every conflicting promise observed. The number
// space is partitioned across processes: only numbers x with
// x % stride == offset are issued, so concurrent coordinators on different
// processes can never share a proposal number.
func (this *proposalSequence) Next(offset, stride int64) (int64, error) {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	next := this.lastProposal + 1
	if next <= this.observed {
		next = this.observed + 1
	}
	if stride > 1 {
		next += (offset - next%stride + stride) % stride
	}

	change := thispb.ProposalChange{}
	change.LastProposal = proto.Int64(next)
	walRecord := thispb.WALRecord{}
	walRecord.ProposalChange = &change
	if _, err := wal.SyncChangeProto(this.wal, this.uid, &walRecord); err != nil {
		this.Errorf("could not persist proposal number %d: %v", next, err)
		return -1, err
	}

	this.lastProposal = next
	return next, nil
}

// RecoverCheckpoint recovers the sequence from a checkpoint record.
func (this *proposalSequence) RecoverCheckpoint(uid string,
	data []byte) error {

	return this.RecoverChange(nil, uid, data)
}

// RecoverChange recovers the sequence from a change record.
func (this *proposalSequence) RecoverChange(lsn wal.LSN, uid string,
	data []byte) error {

	walRecord := thispb.WALRecord{}
	if err := proto.Unmarshal(data, &walRecord); err != nil {
		this.Errorf("could not parse proposal change record: %v", err)
		return errs.NewErrCorrupt("proposal record could not be parsed")
	}
	if walRecord.ProposalChange == nil {
		this.Errorf("invalid/corrupt proposal wal record: %s", walRecord)
		return errs.ErrCorrupt
	}

	this.mutex.Lock()
	last := walRecord.GetProposalChange().GetLastProposal()
	if last > this.lastProposal {
		this.lastProposal = last
	}
	this.mutex.Unlock()
	return nil
}
