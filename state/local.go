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
// This file defines LocalState type which stores named variables durably on
// the local file system, without replication.
//
// THREAD SAFETY
//
// All public functions are thread-safe.
//
// NOTES
//
// Every update is synced into the wal before it becomes visible, so an
// acknowledged write survives a crash. The variable mapping is rebuilt from
// the wal on recovery; checkpoints bound the replay cost.
//

package state

import (
	"bytes"
	"regexp"
	"sort"

	"github.com/golang/protobuf/proto"

	"github.com/ortoo/mesos/base/errs"
	"github.com/ortoo/mesos/base/log"
	"github.com/ortoo/mesos/thread/ctlr"
	"github.com/ortoo/mesos/wal"

	thispb "github.com/ortoo/mesos/proto/state"
)

// LocalState implements the Storage interface over a local wal.
type LocalState struct {
	log.Logger

	// Resource controller for admission control and synchronization.
	ctlr ctlr.BasicController

	// Write ahead log where all variables are persisted.
	wal wal.WriteAheadLog

	// Uid for the wal records of this instance.
	uid string

	// Current live value for every variable name.
	variableMap map[string]*thispb.VariableDiff
}

// Initialize initializes a local state instance.
func (this *LocalState) Initialize(uid string,
	lwal wal.WriteAheadLog) (status error) {

	re := regexp.MustCompile("^" + regexp.QuoteMeta(uid) + "$")
	if err := lwal.ConfigureRecoverer(re, this); err != nil {
		this.Errorf("could not configure wal recoverer: %v", err)
		return err
	}

	this.wal = lwal
	this.uid = uid
	this.variableMap = make(map[string]*thispb.VariableDiff)

	this.Logger = this.NewLogger("state:%s", uid)
	this.ctlr.Initialize(this)
	return nil
}

// Close releases all resources and destroys the object.
func (this *LocalState) Close() (status error) {
	if err := this.ctlr.Close(); err != nil {
		return err
	}

	re := regexp.MustCompile("^" + regexp.QuoteMeta(this.uid) + "$")
	if err := this.wal.ConfigureRecoverer(re, nil); err != nil {
		this.Errorf("could not unconfigure wal recoverer: %v", err)
		status = errs.MergeErrors(status, err)
	}
	return status
}

// Get returns the current variable for a name.
func (this *LocalState) Get(name string) (*Variable, error) {
	lock := this.ctlr.ReadLock("state")
	defer lock.Unlock()

	diff, ok := this.variableMap[name]
	if !ok {
		return nil, errs.NewErrNotExist("variable %s has no live value", name)
	}
	return makeVariable(diff), nil
}

// Set writes a new value for a name under the compare-and-swap contract.
func (this *LocalState) Set(name string, value []byte,
	expected []byte) (*Variable, error) {

	lock := this.ctlr.Lock("state")
	defer lock.Unlock()

	if err := this.checkVersion(name, expected); err != nil {
		return nil, err
	}

	version, errVersion := NewVersion()
	if errVersion != nil {
		this.Errorf("could not create version for variable %s: %v", name,
			errVersion)
		return nil, errVersion
	}

	diff := &thispb.VariableDiff{}
	diff.Name = proto.String(name)
	diff.Version = version
	diff.Value = value
	if err := this.doUpdateState(diff); err != nil {
		return nil, err
	}
	return makeVariable(diff), nil
}

// Delete removes the live value for a name with a durable tombstone.
func (this *LocalState) Delete(name string, expected []byte) error {
	lock := this.ctlr.Lock("state")
	defer lock.Unlock()

	if _, ok := this.variableMap[name]; !ok {
		return errs.NewErrNotExist("variable %s has no live value", name)
	}
	if err := this.checkVersion(name, expected); err != nil {
		return err
	}

	version, errVersion := NewVersion()
	if errVersion != nil {
		this.Errorf("could not create version for tombstone on %s: %v", name,
			errVersion)
		return errVersion
	}

	diff := &thispb.VariableDiff{}
	diff.Name = proto.String(name)
	diff.Version = version
	diff.Deleted = proto.Bool(true)
	return this.doUpdateState(diff)
}

// Names returns the names of all live variables in sorted order.
func (this *LocalState) Names() ([]string, error) {
	lock := this.ctlr.ReadLock("state")
	defer lock.Unlock()

	nameList := make([]string, 0, len(this.variableMap))
	for name := range this.variableMap {
		nameList = append(nameList, name)
	}
	sort.Sort(sort.StringSlice(nameList))
	return nameList, nil
}

///////////////////////////////////////////////////////////////////////////////

// RecoverCheckpoint recovers the variable mapping from a checkpoint record.
func (this *LocalState) RecoverCheckpoint(uid string, data []byte) error {
	if uid != this.uid {
		this.Errorf("checkpoint record doesn't belong to this instance")
		return errs.ErrInvalid
	}

	walRecord := thispb.WALRecord{}
	if err := proto.Unmarshal(data, &walRecord); err != nil {
		this.Errorf("could not parse checkpoint wal record: %v", err)
		return errs.NewErrCorrupt("checkpoint record could not be parsed")
	}
	if walRecord.Checkpoint == nil {
		this.Errorf("checkpoint record has no variable state")
		return errs.ErrCorrupt
	}

	for _, diff := range walRecord.GetCheckpoint().VariableList {
		this.variableMap[diff.GetName()] = diff
	}
	return nil
}

// RecoverChange recovers one variable update from a change record.
func (this *LocalState) RecoverChange(lsn wal.LSN, uid string,
	data []byte) error {

	if uid != this.uid {
		this.Errorf("change record doesn't belong to this instance")
		return errs.ErrInvalid
	}

	walRecord := thispb.WALRecord{}
	if err := proto.Unmarshal(data, &walRecord); err != nil {
		this.Errorf("could not parse change record: %v", err)
		return errs.NewErrCorrupt("change record could not be parsed")
	}
	if walRecord.Change == nil {
		this.Errorf("invalid/corrupt wal change record: %s", walRecord)
		return errs.ErrCorrupt
	}
	return this.doUpdateState(walRecord.GetChange())
}

// TakeCheckpoint saves all live variables as a wal checkpoint.
func (this *LocalState) TakeCheckpoint() (status error) {
	lock := this.ctlr.Lock("state")
	defer lock.Unlock()

	checkpoint := thispb.VariableCheckpoint{}
	nameList := make([]string, 0, len(this.variableMap))
	for name := range this.variableMap {
		nameList = append(nameList, name)
	}
	sort.Sort(sort.StringSlice(nameList))
	for _, name := range nameList {
		checkpoint.VariableList = append(checkpoint.VariableList,
			this.variableMap[name])
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

// checkVersion verifies the compare-and-swap admission test for a write.
func (this *LocalState) checkVersion(name string, expected []byte) error {
	var current []byte
	if diff, ok := this.variableMap[name]; ok {
		current = diff.GetVersion()
	}
	if !bytes.Equal(expected, current) {
		return errs.NewErrConflict("expected version for variable %s does not "+
			"match its current version", name)
	}
	return nil
}

// doUpdateState persists a diff record and applies it to the in-memory
// mapping. The record write is skipped during wal recovery.
func (this *LocalState) doUpdateState(diff *thispb.VariableDiff) error {
	if !this.wal.IsRecovering() {
		walRecord := thispb.WALRecord{}
		walRecord.Change = diff
		_, errSync := wal.SyncChangeProto(this.wal, this.uid, &walRecord)
		if errSync != nil {
			this.Errorf("could not write state change record: %v", errSync)
			return errSync
		}
	}

	if diff.GetDeleted() {
		delete(this.variableMap, diff.GetName())
	} else {
		this.variableMap[diff.GetName()] = diff
	}
	return nil
}
