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
// This file defines Network type which implements quorum-aware broadcast over
// the current replica membership.
//
// THREAD SAFETY
//
// All public functions are thread-safe.
//
// NOTES
//
// Membership is supplied by an external coordination layer and may change
// between calls. Every broadcast operates on a point-in-time snapshot of the
// membership; it performs no retries of its own, so callers decide the retry
// policy.
//

package replog

import (
	"sort"
	"sync"

	"github.com/golang/protobuf/proto"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/msg"

	msgpb "github.com/ortoo/mesos/proto/msg"
	thispb "github.com/ortoo/mesos/proto/replog"
)

// Response pairs one replica's reply with its messenger id.
type Response struct {
	// Messenger id for the replica that sent this reply.
	Peer string

	// The reply payload.
	Message thispb.LogMessage
}

// Network implements quorum broadcast over the replica membership.
type Network struct {
	log.Logger

	// The Messenger.
	msn msg.Messenger

	// Mutex protecting the membership snapshot.
	mutex sync.Mutex

	// Current set of replica messenger ids, in sorted order.
	replicaList []string
}

// Initialize initializes the network with an empty membership.
func (this *Network) Initialize(logger log.Logger, msn msg.Messenger) {
	this.Logger = logger.NewLogger("network:%s", msn.UID())
	this.msn = msn
}

// SetMembership replaces the replica membership with a new snapshot.
func (this *Network) SetMembership(replicaList []string) {
	newList := make([]string, len(replicaList))
	copy(newList, replicaList)
	sort.Sort(sort.StringSlice(newList))

	this.mutex.Lock()
	this.replicaList = newList
	this.mutex.Unlock()
}

// Membership returns a point-in-time snapshot of the replica membership.
func (this *Network) Membership() []string {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	snapshot := make([]string, len(this.replicaList))
	copy(snapshot, this.replicaList)
	return snapshot
}

// ProposerSlot partitions the proposal number space across the current
// membership: it returns the position of an uid in the sorted membership and
// the membership size, so the caller owns all numbers x with
// x % stride == offset. An uid outside the membership gets the whole space;
// the explicit grant flag in promise responses covers such collisions.
func (this *Network) ProposerSlot(uid string) (offset, stride int64) {
	this.mutex.Lock()
	defer this.mutex.Unlock()

	for ii, replica := range this.replicaList {
		if replica == uid {
			return int64(ii), int64(len(this.replicaList))
		}
	}
	return 0, 1
}

// MajoritySize returns the majority quorum size for the current membership.
func (this *Network) MajoritySize() int {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	return len(this.replicaList)/2 + 1
}

// Broadcast sends a request to every replica in the current membership and
// collects responses from distinct replicas until quorum many acceptable
// responses arrive or the request timeout expires. Responses are returned in
// arrival order, including the unacceptable ones.
//
// reqHeader: Request header carrying the timeout budget. The caller owns the
//            header and must close it.
//
// message: Request payload sent to every replica.
//
// quorum: Minimum number of distinct, acceptable responders for success.
//
// accept: Optional filter deciding if a response counts toward the quorum.
//         A nil filter counts every response.
//
// Returns the responses received, and a non-nil error if fewer than quorum
// acceptable responses arrived in time.
func (this *Network) Broadcast(reqHeader *msgpb.Header, message proto.Message,
	quorum int, accept func(*Response) bool) ([]*Response, error) {

	snapshot := this.Membership()
	if quorum > len(snapshot) {
		this.Errorf("quorum size %d is larger than the membership %v", quorum,
			snapshot)
		return nil, errs.NewErrRetry("quorum %d needs more than %d replicas",
			quorum, len(snapshot))
	}

	count, errSend := msg.SendAllProto(this.msn, snapshot, reqHeader, message)
	if errSend != nil && count < quorum {
		this.Errorf("could not send %s to a quorum: %v", reqHeader, errSend)
		return nil, errSend
	}

	accepted := 0
	var responseList []*Response
	peerSet := make(map[string]struct{})
	for ii := 0; ii < count && accepted < quorum; ii++ {
		response := &Response{}
		resHeader, errRecv := msg.ReceiveProto(this.msn, reqHeader,
			&response.Message)
		if errRecv != nil {
			this.Warningf("could not receive quorum responses for %s: %v",
				reqHeader, errRecv)
			return responseList, errRecv
		}
		peer := resHeader.GetMessengerId()
		if _, ok := peerSet[peer]; ok {
			continue
		}
		peerSet[peer] = struct{}{}
		response.Peer = peer
		responseList = append(responseList, response)
		if accept == nil || accept(response) {
			accepted++
		}
	}

	if accepted < quorum {
		return responseList, errs.NewErrTimeout("received %d acceptable "+
			"responses for %s when quorum is %d", accepted, reqHeader, quorum)
	}
	return responseList, nil
}
