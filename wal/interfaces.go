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
// This file defines client interfaces for write ahead logs.
//
// THREAD SAFETY
//
// Thread safety depends on the specific implementation; all WAL types in
// sub-packages are thread-safe.
//

package wal

import (
	"regexp"
)

// LSN is a logical sequence number identifying a record position in a wal.
type LSN interface {
}

// WriteAheadLog defines common semantics for write ahead logs. Multiple
// users can share one wal; records are segregated by an uid chosen by each
// user, and each user recovers only its own records.
type WriteAheadLog interface {
	// ConfigureRecoverer registers a private recoverer for all records whose
	// uid matches the given regexp. At most one recoverer can exist per
	// regexp; passing a nil recoverer removes an existing registration.
	//
	// re: Regexp matched against record uids.
	//
	// recoverer: Recoverer for records with matching uids.
	//
	// Returns nil on success.
	ConfigureRecoverer(re *regexp.Regexp, recoverer Recoverer) error

	// Recover replays the wal contents. For every user, records from the most
	// recent committed checkpoint are replayed first, followed by the change
	// records logged after that checkpoint began.
	//
	// recoverer: Receives records whose uid has no private recoverer
	// configured through ConfigureRecoverer.
	//
	// Returns an error if wal data couldn't be read, or the first error
	// returned by a recoverer callback.
	Recover(recoverer Recoverer) error

	// IsRecovering returns true while Recover is replaying the wal. Users
	// check this flag to avoid re-logging changes that are being replayed.
	IsRecovering() bool

	// QueueChangeRecord queues a record for an asynchronous append. If the
	// backend later fails to write the record, no following record (queued or
	// appended) is logged either, so recovery never observes a gap.
	//
	// uid: User id for the record.
	//
	// data: User data written to the wal.
	//
	// Returns a wal-local, monotonically increasing id for the record
	// position.
	QueueChangeRecord(uid string, data []byte) LSN

	// AppendChangeRecord appends a record and blocks until it, and every
	// record before it, is handed to the file system. Data may still live in
	// kernel buffers, so this does not guarantee durability.
	//
	// On a backend failure the record is zeroed out and an error is returned;
	// callers may retry.
	//
	// uid: User id for the record.
	//
	// data: User data written to the wal.
	//
	// On success, returns a wal-local, monotonically increasing id for the
	// record position.
	AppendChangeRecord(uid string, data []byte) (LSN, error)

	// SyncChangeRecord is AppendChangeRecord followed by an fdatasync
	// equivalent, so the record and all records before it become durable.
	//
	// uid: User id for the record.
	//
	// data: User data written to the wal.
	//
	// On success, returns a wal-local, monotonically increasing id for the
	// record position.
	SyncChangeRecord(uid string, data []byte) (LSN, error)

	// BeginCheckpoint starts a checkpoint. Only one checkpoint can be active
	// at a time.
	//
	// Returns nil on success.
	BeginCheckpoint() error

	// EndCheckpoint finishes the checkpoint started by BeginCheckpoint.
	//
	// commit: When true the checkpoint is committed; otherwise it is
	// canceled and the previous checkpoint, if any, stays current.
	//
	// Returns an error on backend failures; the operation can be retried.
	EndCheckpoint(commit bool) error

	// AppendCheckpointRecord writes a record into the active checkpoint.
	// Large state can be split across multiple records.
	//
	// uid: User id for the record.
	//
	// data: User data written into the checkpoint record.
	//
	// Returns an error on backend failures. A failed checkpoint record does
	// not abort the checkpoint; the caller may retry the record.
	AppendCheckpointRecord(uid string, data []byte) error
}

// Recoverer is implemented by objects that log their state into a wal and
// reconstruct it after a restart.
type Recoverer interface {
	// RecoverCheckpoint is invoked with records from the most recent committed
	// checkpoint, in the order they were written. Change records logged while
	// the checkpoint was open are replayed after all checkpoint records, so a
	// recoverer whose checkpoint is not a consistent snapshot must tolerate
	// replaying a change whose effect is already present.
	//
	// This callback is never invoked if no checkpoint was committed.
	//
	// uid: User id for the record.
	//
	// data: User data in the checkpoint record.
	//
	// Recovery is aborted if the callback returns a non-nil error.
	RecoverCheckpoint(uid string, data []byte) error

	// RecoverChange is invoked for every change record that survives the
	// current checkpoint. LSNs are unique and monotonically increasing, but
	// not necessarily contiguous.
	//
	// lsn: Logical sequence number for the change record.
	//
	// uid: User id for the record.
	//
	// data: User data in the change record.
	//
	// Recovery is aborted if the callback returns a non-nil error.
	RecoverChange(lsn LSN, uid string, data []byte) error
}
